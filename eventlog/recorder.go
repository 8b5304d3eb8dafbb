package eventlog

import (
	"time"

	"github.com/sudoku-xyz/go-sudoku/solver"
)

// Recorder turns solver observer callbacks into log events. It assigns
// sequence numbers in delivery order, so a recorded run can be replayed
// faithfully even when timestamps collide. A Recorder serves one run; it is
// not safe for concurrent use, matching the solvers' synchronous observer
// contract.
type Recorder struct {
	log    *Log
	runID  string
	solver string
	seq    int
}

// NewRecorder creates a recorder appending to log under the given run ID.
func NewRecorder(log *Log, runID, solverName string) *Recorder {
	return &Recorder{log: log, runID: runID, solver: solverName}
}

// StepFunc returns an observer that records every backtracking step and then
// defers to inner. With a nil inner the search always continues.
func (r *Recorder) StepFunc(inner solver.StepFunc) solver.StepFunc {
	return func(s solver.Step) bool {
		r.seq++
		r.log.AddEvent(Event{
			RunID:     r.runID,
			Seq:       r.seq,
			Type:      string(s.Type),
			Solver:    r.solver,
			Row:       s.Row,
			Col:       s.Col,
			Value:     s.Value,
			Timestamp: time.Now(),
		})
		if inner != nil {
			return inner(s)
		}
		return true
	}
}

// GenerationFunc returns an observer that records every generation and then
// defers to inner. With a nil inner the run always continues.
func (r *Recorder) GenerationFunc(inner solver.GenerationFunc) solver.GenerationFunc {
	return func(g solver.Generation) bool {
		r.seq++
		r.log.AddEvent(Event{
			RunID:      r.runID,
			Seq:        r.seq,
			Type:       GenerationEvent,
			Solver:     r.solver,
			Generation: g.Index,
			Fitness:    g.BestFitness,
			Timestamp:  time.Now(),
		})
		if inner != nil {
			return inner(g)
		}
		return true
	}
}

// Seq returns the number of events recorded so far.
func (r *Recorder) Seq() int { return r.seq }
