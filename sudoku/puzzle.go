// Package sudoku provides the puzzle model shared by every solving strategy:
// a mutable grid with row/column/box constraint checks, deterministic
// empty-cell scanning, candidate enumeration, and deep-copy semantics.
//
// A Puzzle is not safe for concurrent mutation. Solvers own a private clone
// and hand observers value snapshots instead of live references.
package sudoku

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrBadSize reports a grid whose dimension is not a perfect square of
	// at least 4 (4x4, 9x9, 16x16, ...).
	ErrBadSize = errors.New("sudoku: grid size must be a perfect square >= 4")

	// ErrRaggedGrid reports a grid whose rows do not all have the same length.
	ErrRaggedGrid = errors.New("sudoku: grid rows must all have equal length")

	// ErrValueRange reports a cell value outside 0..N.
	ErrValueRange = errors.New("sudoku: cell value out of range")
)

// Puzzle owns one Grid plus its derived size and box size.
type Puzzle struct {
	size    int
	boxSize int
	grid    Grid
}

// New builds a Puzzle from an explicit grid. The grid is deep-copied, so the
// caller's slice is never aliased. Malformed input is rejected, never
// coerced: the returned error matches ErrBadSize, ErrRaggedGrid or
// ErrValueRange via errors.Is.
func New(grid Grid) (*Puzzle, error) {
	size := len(grid)
	boxSize := intSqrt(size)
	if size < 4 || boxSize*boxSize != size {
		return nil, fmt.Errorf("%w: got %d", ErrBadSize, size)
	}
	for r, row := range grid {
		if len(row) != size {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrRaggedGrid, r, len(row), size)
		}
		for c, v := range row {
			if v < 0 || v > size {
				return nil, fmt.Errorf("%w: cell (%d,%d) holds %d, want 0..%d", ErrValueRange, r, c, v, size)
			}
		}
	}
	return &Puzzle{size: size, boxSize: boxSize, grid: grid.Clone()}, nil
}

// NewEmpty builds an all-zeros Puzzle of the given size.
func NewEmpty(size int) (*Puzzle, error) {
	boxSize := intSqrt(size)
	if size < 4 || boxSize*boxSize != size {
		return nil, fmt.Errorf("%w: got %d", ErrBadSize, size)
	}
	grid := make(Grid, size)
	for i := range grid {
		grid[i] = make([]int, size)
	}
	return &Puzzle{size: size, boxSize: boxSize, grid: grid}, nil
}

// Size returns N, the grid dimension.
func (p *Puzzle) Size() int { return p.size }

// BoxSize returns the square root of N, the dimension of one box.
func (p *Puzzle) BoxSize() int { return p.boxSize }

// Cell returns the value at (row, col).
func (p *Puzzle) Cell(row, col int) int {
	p.mustContain(row, col)
	return p.grid[row][col]
}

// Set writes value (1..N) at (row, col). Out-of-range indices or values are
// programming errors and panic; use IsValid for constraint checks.
func (p *Puzzle) Set(row, col, value int) {
	p.mustContain(row, col)
	if value < 1 || value > p.size {
		panic(fmt.Sprintf("sudoku: value %d out of range 1..%d", value, p.size))
	}
	p.grid[row][col] = value
}

// Clear empties the cell at (row, col).
func (p *Puzzle) Clear(row, col int) {
	p.mustContain(row, col)
	p.grid[row][col] = 0
}

// IsValid reports whether placing value (1..N) at (row, col) introduces no
// duplicate in that row, column, or containing box given the current grid
// contents. The target cell's own current value is ignored. Out-of-range
// coordinates or values return false rather than panicking.
func (p *Puzzle) IsValid(row, col, value int) bool {
	if row < 0 || row >= p.size || col < 0 || col >= p.size {
		return false
	}
	if value < 1 || value > p.size {
		return false
	}
	for i := 0; i < p.size; i++ {
		if i != col && p.grid[row][i] == value {
			return false
		}
		if i != row && p.grid[i][col] == value {
			return false
		}
	}
	boxRow := (row / p.boxSize) * p.boxSize
	boxCol := (col / p.boxSize) * p.boxSize
	for r := boxRow; r < boxRow+p.boxSize; r++ {
		for c := boxCol; c < boxCol+p.boxSize; c++ {
			if (r != row || c != col) && p.grid[r][c] == value {
				return false
			}
		}
	}
	return true
}

// FindFirstEmpty scans row-major, top-to-bottom, left-to-right and returns
// the first empty cell. The scan order determines the backtracking search
// order and must not change.
func (p *Puzzle) FindFirstEmpty() (row, col int, ok bool) {
	for r := 0; r < p.size; r++ {
		for c := 0; c < p.size; c++ {
			if p.grid[r][c] == 0 {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}

// IsComplete reports whether no cell is empty. Completeness does not imply
// validity.
func (p *Puzzle) IsComplete() bool {
	_, _, ok := p.FindFirstEmpty()
	return !ok
}

// Candidates returns every value 1..N that passes IsValid at (row, col), in
// ascending order. A filled or out-of-range cell has no candidates.
func (p *Puzzle) Candidates(row, col int) []int {
	if row < 0 || row >= p.size || col < 0 || col >= p.size {
		return nil
	}
	if p.grid[row][col] != 0 {
		return nil
	}
	var values []int
	for v := 1; v <= p.size; v++ {
		if p.IsValid(row, col, v) {
			values = append(values, v)
		}
	}
	return values
}

// Clone returns an independent deep copy; mutating the clone never affects
// the original.
func (p *Puzzle) Clone() *Puzzle {
	return &Puzzle{size: p.size, boxSize: p.boxSize, grid: p.grid.Clone()}
}

// GridCopy returns a snapshot of the grid sharing no storage with the
// puzzle.
func (p *Puzzle) GridCopy() Grid {
	return p.grid.Clone()
}

// FixedMask returns an N x N mask that is true wherever the grid currently
// holds a value. Solvers capture it once at construction to protect the
// original clues for the rest of the run.
func (p *Puzzle) FixedMask() [][]bool {
	mask := make([][]bool, p.size)
	for r := range mask {
		mask[r] = make([]bool, p.size)
		for c := 0; c < p.size; c++ {
			mask[r][c] = p.grid[r][c] != 0
		}
	}
	return mask
}

// CountEmpty returns the number of empty cells.
func (p *Puzzle) CountEmpty() int {
	count := 0
	for _, row := range p.grid {
		for _, v := range row {
			if v == 0 {
				count++
			}
		}
	}
	return count
}

// Conflicts measures constraint violations: for every row, column and box it
// adds the group size minus the number of distinct non-zero values present.
// Empty cells therefore count toward the total, and a complete grid has zero
// conflicts exactly when it is a valid solution.
func (p *Puzzle) Conflicts() int {
	total := 0
	for r := 0; r < p.size; r++ {
		total += p.size - distinctNonZero(p.row(r))
	}
	for c := 0; c < p.size; c++ {
		total += p.size - distinctNonZero(p.column(c))
	}
	for boxRow := 0; boxRow < p.size; boxRow += p.boxSize {
		for boxCol := 0; boxCol < p.size; boxCol += p.boxSize {
			total += p.size - distinctNonZero(p.box(boxRow, boxCol))
		}
	}
	return total
}

// IsSolved reports whether the grid is complete and free of conflicts.
func (p *Puzzle) IsSolved() bool {
	return p.IsComplete() && p.Conflicts() == 0
}

// String renders the grid for diagnostics with "." marking empty cells.
func (p *Puzzle) String() string {
	width := len(strconv.Itoa(p.size))
	var b strings.Builder
	for r, row := range p.grid {
		if r > 0 {
			b.WriteByte('\n')
		}
		for c, v := range row {
			if c > 0 {
				b.WriteByte(' ')
			}
			if v == 0 {
				b.WriteString(strings.Repeat(" ", width-1))
				b.WriteByte('.')
			} else {
				fmt.Fprintf(&b, "%*d", width, v)
			}
		}
	}
	return b.String()
}

func (p *Puzzle) mustContain(row, col int) {
	if row < 0 || row >= p.size || col < 0 || col >= p.size {
		panic(fmt.Sprintf("sudoku: cell (%d,%d) out of range for size %d", row, col, p.size))
	}
}

func (p *Puzzle) row(r int) []int {
	out := make([]int, p.size)
	copy(out, p.grid[r])
	return out
}

func (p *Puzzle) column(c int) []int {
	out := make([]int, p.size)
	for r := 0; r < p.size; r++ {
		out[r] = p.grid[r][c]
	}
	return out
}

func (p *Puzzle) box(boxRow, boxCol int) []int {
	out := make([]int, 0, p.size)
	for r := boxRow; r < boxRow+p.boxSize; r++ {
		for c := boxCol; c < boxCol+p.boxSize; c++ {
			out = append(out, p.grid[r][c])
		}
	}
	return out
}

func distinctNonZero(values []int) int {
	seen := make(map[int]bool, len(values))
	for _, v := range values {
		if v != 0 {
			seen[v] = true
		}
	}
	return len(seen)
}

func intSqrt(n int) int {
	if n < 0 {
		return 0
	}
	r := int(math.Sqrt(float64(n)))
	for r*r > n {
		r--
	}
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}
