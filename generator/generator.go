// Package generator builds sudoku puzzles that are solvable by
// construction: it completes a grid first and then carves cells out of it.
// A seeded Generator is fully deterministic, which makes generated fixtures
// reproducible across runs and machines.
package generator

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/sudoku-xyz/go-sudoku/solver"
	"github.com/sudoku-xyz/go-sudoku/sudoku"
)

// Difficulty selects how many cells Generate removes from a complete grid.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// ErrEmptyCount reports a requested empty-cell count outside 0..N².
var ErrEmptyCount = errors.New("generator: empty cell count out of range")

// removalRatio maps a difficulty to the fraction of cells emptied.
func (d Difficulty) removalRatio() (float64, error) {
	switch d {
	case Easy:
		return 0.4, nil
	case Medium:
		return 0.5, nil
	case Hard:
		return 0.6, nil
	}
	return 0, fmt.Errorf("generator: unknown difficulty %q", d)
}

// Generator produces puzzles from a private RNG stream.
type Generator struct {
	rng *rand.Rand
}

// New returns a Generator seeded with seed; 0 seeds from the clock.
func New(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Complete returns a fully solved grid of the given size. The boxes on the
// main diagonal share no row or column, so each is filled with an
// independent shuffled permutation; backtracking then completes the
// remaining cells.
func (g *Generator) Complete(size int) (*sudoku.Puzzle, error) {
	p, err := sudoku.NewEmpty(size)
	if err != nil {
		return nil, err
	}
	boxSize := p.BoxSize()
	for start := 0; start < size; start += boxSize {
		perm := g.rng.Perm(size)
		i := 0
		for r := start; r < start+boxSize; r++ {
			for c := start; c < start+boxSize; c++ {
				p.Set(r, c, perm[i]+1)
				i++
			}
		}
	}
	b := solver.NewBacktracking(p)
	if !b.Solve(nil) {
		return nil, fmt.Errorf("generator: could not complete a %dx%d grid", size, size)
	}
	return sudoku.New(b.Solution())
}

// Generate builds a puzzle with exactly emptyCells empty cells by carving
// uniformly random positions out of a complete grid. The result always has
// at least one solution; it is not guaranteed to be unique.
func (g *Generator) Generate(size, emptyCells int) (*sudoku.Puzzle, error) {
	if emptyCells < 0 || emptyCells > size*size {
		return nil, fmt.Errorf("%w: %d of %d cells", ErrEmptyCount, emptyCells, size*size)
	}
	full, err := g.Complete(size)
	if err != nil {
		return nil, err
	}
	for _, pos := range g.rng.Perm(size * size)[:emptyCells] {
		full.Clear(pos/size, pos%size)
	}
	return full, nil
}

// GenerateDifficulty builds a puzzle whose empty-cell count is the
// difficulty's share of the grid: 40% for easy, 50% for medium, 60% for
// hard.
func (g *Generator) GenerateDifficulty(size int, d Difficulty) (*sudoku.Puzzle, error) {
	ratio, err := d.removalRatio()
	if err != nil {
		return nil, err
	}
	return g.Generate(size, int(float64(size*size)*ratio))
}
