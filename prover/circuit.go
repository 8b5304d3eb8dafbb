// Package prover produces Groth16 proofs that a puzzle has a valid
// solution without revealing the solution itself. The clue grid is the
// public input; the completed grid is the secret witness.
package prover

import (
	"fmt"

	"github.com/consensys/gnark/frontend"

	"github.com/sudoku-xyz/go-sudoku/sudoku"
)

// Circuit constrains a completed grid against public clues. Givens holds
// the clue values in row-major order with 0 for blanks; Solution holds the
// full grid. Both have Size*Size entries.
type Circuit struct {
	Givens   []frontend.Variable `gnark:",public"`
	Solution []frontend.Variable

	Size    int
	BoxSize int
}

// NewCircuit allocates a circuit skeleton for size x size grids. Size must
// be a perfect square.
func NewCircuit(size int) (*Circuit, error) {
	box := 1
	for box*box < size {
		box++
	}
	if size < 1 || box*box != size {
		return nil, fmt.Errorf("grid size %d is not a perfect square", size)
	}
	return &Circuit{
		Givens:   make([]frontend.Variable, size*size),
		Solution: make([]frontend.Variable, size*size),
		Size:     size,
		BoxSize:  box,
	}, nil
}

// Define declares the constraints:
//
//  1. every solution cell holds a value in 1..Size,
//  2. the solution agrees with every nonzero given,
//  3. rows, columns and boxes hold pairwise distinct values.
func (c *Circuit) Define(api frontend.API) error {
	n := c.Size
	if len(c.Givens) != n*n || len(c.Solution) != n*n {
		return fmt.Errorf("circuit wants %d cells, got %d givens and %d solution cells",
			n*n, len(c.Givens), len(c.Solution))
	}

	// (v-1)(v-2)...(v-n) == 0 pins each cell to 1..n.
	for _, v := range c.Solution {
		prod := frontend.Variable(1)
		for k := 1; k <= n; k++ {
			prod = api.Mul(prod, api.Sub(v, k))
		}
		api.AssertIsEqual(prod, 0)
	}

	// given * (given - solution) == 0. Blank givens are 0 and satisfy
	// this trivially; nonzero givens force equality.
	for i := range c.Givens {
		diff := api.Sub(c.Givens[i], c.Solution[i])
		api.AssertIsEqual(api.Mul(c.Givens[i], diff), 0)
	}

	for _, group := range cellGroups(n, c.BoxSize) {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				api.AssertIsDifferent(c.Solution[group[i]], c.Solution[group[j]])
			}
		}
	}

	return nil
}

// cellGroups returns the row-major cell indexes of every row, column and
// box, the 3n groups whose members must be pairwise distinct.
func cellGroups(size, boxSize int) [][]int {
	groups := make([][]int, 0, 3*size)

	for row := 0; row < size; row++ {
		group := make([]int, size)
		for col := 0; col < size; col++ {
			group[col] = row*size + col
		}
		groups = append(groups, group)
	}

	for col := 0; col < size; col++ {
		group := make([]int, size)
		for row := 0; row < size; row++ {
			group[row] = row*size + col
		}
		groups = append(groups, group)
	}

	for boxRow := 0; boxRow < size; boxRow += boxSize {
		for boxCol := 0; boxCol < size; boxCol += boxSize {
			group := make([]int, 0, size)
			for r := boxRow; r < boxRow+boxSize; r++ {
				for c := boxCol; c < boxCol+boxSize; c++ {
					group = append(group, r*size+c)
				}
			}
			groups = append(groups, group)
		}
	}

	return groups
}

// Assignment builds the full witness for a puzzle and its claimed solution.
func Assignment(p *sudoku.Puzzle, solution sudoku.Grid) (*Circuit, error) {
	n := p.Size()
	c, err := NewCircuit(n)
	if err != nil {
		return nil, err
	}
	if len(solution) != n {
		return nil, fmt.Errorf("solution has %d rows, puzzle is %dx%d", len(solution), n, n)
	}

	given := p.GridCopy()
	for row := 0; row < n; row++ {
		if len(solution[row]) != n {
			return nil, fmt.Errorf("solution row %d has %d cells, want %d", row, len(solution[row]), n)
		}
		for col := 0; col < n; col++ {
			idx := row*n + col
			c.Givens[idx] = given[row][col]
			c.Solution[idx] = solution[row][col]
		}
	}
	return c, nil
}

// PublicAssignment builds the public part of the witness, the clue grid.
// Used on the verifier side, which never sees the solution.
func PublicAssignment(p *sudoku.Puzzle) (*Circuit, error) {
	n := p.Size()
	c, err := NewCircuit(n)
	if err != nil {
		return nil, err
	}

	given := p.GridCopy()
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			idx := row*n + col
			c.Givens[idx] = given[row][col]
			c.Solution[idx] = 0
		}
	}
	return c, nil
}
