package solver

import (
	"fmt"
	"time"

	"github.com/sudoku-xyz/go-sudoku/sudoku"
)

// Backtracking is an exact depth-first solver. It scans for the first empty
// cell in row-major order, tries candidates in ascending order, and unwinds
// on dead ends. Given the same puzzle it always visits the same cells in the
// same order, so counters and the solution are reproducible.
type Backtracking struct {
	puzzle     *sudoku.Puzzle
	fixed      [][]bool
	iterations int
	backtracks int
	status     Status
	duration   time.Duration
}

// NewBacktracking prepares a solver for p. The puzzle is cloned and the set
// of fixed cells is captured once, so the caller's instance never changes
// and the original clues cannot be overwritten mid-search.
func NewBacktracking(p *sudoku.Puzzle) *Backtracking {
	clone := p.Clone()
	return &Backtracking{
		puzzle: clone,
		fixed:  clone.FixedMask(),
	}
}

// Solve runs the search to completion, exhaustion, or cancellation. The
// observer, when non-nil, sees every attempt, reject, place, and backtrack
// synchronously and can stop the search by returning false.
//
// A true result means the grid is solved. A false result with
// StatusExhausted is a proof that no solution exists; with StatusCancelled
// it means only that the observer stopped early.
func (b *Backtracking) Solve(observer StepFunc) bool {
	b.reset()
	b.status = StatusRunning
	start := time.Now()
	solved, cancelled := b.search(observer)
	b.duration = time.Since(start)
	switch {
	case solved:
		b.status = StatusSolved
	case cancelled:
		b.status = StatusCancelled
	default:
		b.status = StatusExhausted
	}
	return solved
}

// reset restores the grid to its original clues and zeroes the counters, so
// repeated Solve calls start from the same state.
func (b *Backtracking) reset() {
	for row := 0; row < b.puzzle.Size(); row++ {
		for col := 0; col < b.puzzle.Size(); col++ {
			if !b.fixed[row][col] && b.puzzle.Cell(row, col) != 0 {
				b.puzzle.Clear(row, col)
			}
		}
	}
	b.iterations = 0
	b.backtracks = 0
}

func (b *Backtracking) search(observer StepFunc) (solved, cancelled bool) {
	row, col, ok := b.puzzle.FindFirstEmpty()
	if !ok {
		// Placements are validated incrementally, but the clues themselves
		// never were; a contradictory set of givens reaches this point with
		// a full grid that still fails the final check.
		return b.puzzle.IsSolved(), false
	}

	for value := 1; value <= b.puzzle.Size(); value++ {
		b.iterations++
		if !b.emit(observer, StepAttempt, row, col, value) {
			return false, true
		}
		if !b.puzzle.IsValid(row, col, value) {
			if !b.emit(observer, StepReject, row, col, value) {
				return false, true
			}
			continue
		}

		b.place(row, col, value)
		if !b.emit(observer, StepPlace, row, col, value) {
			return false, true
		}

		solved, cancelled = b.search(observer)
		if solved || cancelled {
			return solved, cancelled
		}

		b.puzzle.Clear(row, col)
		b.backtracks++
		if !b.emit(observer, StepBacktrack, row, col, 0) {
			return false, true
		}
	}
	return false, false
}

// place writes value at (row, col). Fixed cells hold the original clues and
// must never be touched; a write there is a bug in the search, not bad
// input, so it panics.
func (b *Backtracking) place(row, col, value int) {
	if b.fixed[row][col] {
		panic(fmt.Sprintf("solver: write to fixed cell (%d,%d)", row, col))
	}
	b.puzzle.Set(row, col, value)
}

func (b *Backtracking) emit(observer StepFunc, t StepType, row, col, value int) bool {
	if observer == nil {
		return true
	}
	return observer(Step{Type: t, Row: row, Col: col, Value: value, Grid: b.puzzle.GridCopy()})
}

// Solution returns a copy of the working grid: the full solution after a
// successful run, the partial state at the moment of cancellation, or the
// original clues after exhaustion unwound every placement.
func (b *Backtracking) Solution() sudoku.Grid {
	return b.puzzle.GridCopy()
}

// Metrics reports counters for the most recent run. Iterations counts every
// candidate tried, including rejected ones; Backtracks counts placements
// that were later removed.
func (b *Backtracking) Metrics() Metrics {
	return Metrics{
		Algorithm:  "backtracking",
		Status:     b.status,
		Iterations: b.iterations,
		Backtracks: b.backtracks,
		Duration:   b.duration,
	}
}
