// Package solver implements two complementary sudoku solving strategies: an
// exact backtracking search and a population-based cultural algorithm. Both
// report progress through synchronous observer callbacks and expose the same
// Metrics shape, so callers can swap strategies without changing their
// instrumentation. Runner adds pause/resume/stop lifecycle control on top of
// either engine.
package solver

import (
	"time"

	"github.com/sudoku-xyz/go-sudoku/sudoku"
)

// StepType identifies one backtracking search action.
type StepType string

const (
	// StepAttempt marks a candidate value about to be tested at a cell.
	StepAttempt StepType = "attempt"
	// StepReject marks a candidate that failed the validity check.
	StepReject StepType = "reject"
	// StepPlace marks a candidate written into the grid.
	StepPlace StepType = "place"
	// StepBacktrack marks a placed value removed after the subtree failed.
	StepBacktrack StepType = "backtrack"
)

// Step describes one backtracking action. Grid is a snapshot taken after the
// action applied; it shares no storage with the solver, so observers may
// keep or mutate it freely.
type Step struct {
	Type  StepType    `json:"type"`
	Row   int         `json:"row"`
	Col   int         `json:"col"`
	Value int         `json:"value"`
	Grid  sudoku.Grid `json:"grid"`
}

// StepFunc observes backtracking steps. It runs synchronously on the solver
// goroutine; return false to stop the search. A nil StepFunc disables
// observation.
type StepFunc func(Step) bool

// Generation describes the population state after one evolutionary
// generation. Index is 1-based. Best is a snapshot of the best grid seen so
// far across the whole run, not merely this generation.
type Generation struct {
	Index       int         `json:"index"`
	Best        sudoku.Grid `json:"best"`
	BestFitness int         `json:"best_fitness"`
}

// GenerationFunc observes evolutionary progress once per generation. Return
// false to cancel; the best individual found so far is retained.
type GenerationFunc func(Generation) bool

// Status tags how a solve run ended. String-typed so it serializes directly
// into results and run records.
type Status string

const (
	// StatusRunning is the transient state while Solve executes.
	StatusRunning Status = "running"
	// StatusSolved means a complete conflict-free grid was found.
	StatusSolved Status = "solved"
	// StatusExhausted means backtracking proved no solution exists.
	StatusExhausted Status = "exhausted"
	// StatusNoConvergence means the evolutionary budget ran out without a
	// perfect solution. Unlike StatusExhausted it proves nothing.
	StatusNoConvergence Status = "no_convergence"
	// StatusCancelled means an observer or Runner stopped the run early.
	StatusCancelled Status = "cancelled"
)

// Metrics summarizes one solve run. Iterations and Backtracks are meaningful
// for backtracking; Generations and BestFitness for the cultural solver.
// Unused counters stay zero rather than being omitted, so downstream
// consumers see a stable shape.
type Metrics struct {
	Algorithm   string        `json:"algorithm"`
	Status      Status        `json:"status"`
	Iterations  int           `json:"iterations"`
	Backtracks  int           `json:"backtracks"`
	Generations int           `json:"generations"`
	BestFitness int           `json:"best_fitness"`
	Duration    time.Duration `json:"duration_ns"`
}

// Engine is the read surface both solvers share. Solve signatures differ per
// strategy (StepFunc vs GenerationFunc), so starting a run stays
// strategy-specific; inspecting one does not.
type Engine interface {
	// Solution returns a copy of the engine's current best grid.
	Solution() sudoku.Grid
	// Metrics returns counters and status for the most recent run.
	Metrics() Metrics
}
