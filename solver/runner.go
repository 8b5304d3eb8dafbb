package solver

import (
	"context"
	"errors"
	"sync"

	"github.com/sudoku-xyz/go-sudoku/sudoku"
)

// ErrAlreadyStarted is returned by Start when the runner's single run has
// already been launched.
var ErrAlreadyStarted = errors.New("solver: runner already started")

// Runner executes one solve in a background goroutine and adds lifecycle
// control on top of it: pause, resume, stop, and thread-safe progress
// snapshots. Both engines yield at their observer boundary (every step or
// generation), which is exactly where the runner suspends or cancels them,
// so a paused engine is guaranteed not to mutate anything until Resume.
//
// A Runner drives a single run; create a new one for each solve.
type Runner struct {
	mu     sync.RWMutex
	engine Engine
	run    func(checkpoint func() bool) bool

	started bool
	paused  chan struct{} // non-nil while paused; closed on resume
	cancel  context.CancelFunc
	done    chan struct{}

	solved  bool
	grid    sudoku.Grid
	metrics Metrics
}

// NewBacktrackingRunner wraps b. The optional observer still receives every
// step, before the runner applies pause or stop decisions.
func NewBacktrackingRunner(b *Backtracking, observer StepFunc) *Runner {
	r := &Runner{engine: b, done: make(chan struct{})}
	r.run = func(checkpoint func() bool) bool {
		return b.Solve(func(s Step) bool {
			r.capture(s.Grid, b.Metrics())
			if observer != nil && !observer(s) {
				return false
			}
			return checkpoint()
		})
	}
	return r
}

// NewCulturalRunner wraps c. The optional observer still receives every
// generation, before the runner applies pause or stop decisions.
func NewCulturalRunner(c *Cultural, observer GenerationFunc) *Runner {
	r := &Runner{engine: c, done: make(chan struct{})}
	r.run = func(checkpoint func() bool) bool {
		return c.Solve(func(g Generation) bool {
			r.capture(g.Best, c.Metrics())
			if observer != nil && !observer(g) {
				return false
			}
			return checkpoint()
		})
	}
	return r
}

// Start launches the solve on its own goroutine. Cancelling ctx is
// equivalent to calling Stop. Start returns immediately; use Done or Wait
// for completion.
func (r *Runner) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	r.started = true
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Unlock()

	go func() {
		defer cancel()
		solved := r.run(func() bool { return r.checkpoint(runCtx) })
		r.mu.Lock()
		r.solved = solved
		r.grid = r.engine.Solution()
		r.metrics = r.engine.Metrics()
		close(r.done)
		r.mu.Unlock()
	}()
	return nil
}

// checkpoint is called by the engine goroutine after each delivered event.
// It blocks while the runner is paused and reports false once the run
// context is cancelled, which the engine treats as observer cancellation.
func (r *Runner) checkpoint(ctx context.Context) bool {
	for {
		r.mu.RLock()
		paused := r.paused
		r.mu.RUnlock()

		if paused == nil {
			select {
			case <-ctx.Done():
				return false
			default:
				return true
			}
		}
		select {
		case <-paused:
			// Resumed (or stopped); re-read the state.
		case <-ctx.Done():
			return false
		}
	}
}

// capture records the engine's latest progress for Snapshot readers. Called
// on the engine goroutine only.
func (r *Runner) capture(grid sudoku.Grid, metrics Metrics) {
	snapshot := grid.Clone()
	r.mu.Lock()
	r.grid = snapshot
	r.metrics = metrics
	r.mu.Unlock()
}

// Pause suspends the engine at its next event boundary. No solver state
// changes between the last delivered event and Resume. Pausing an already
// paused runner is a no-op.
func (r *Runner) Pause() {
	r.mu.Lock()
	if r.paused == nil {
		r.paused = make(chan struct{})
	}
	r.mu.Unlock()
}

// Resume releases a paused runner. A no-op when not paused.
func (r *Runner) Resume() {
	r.mu.Lock()
	if r.paused != nil {
		close(r.paused)
		r.paused = nil
	}
	r.mu.Unlock()
}

// Stop cancels the run, releasing a paused engine so it can observe the
// cancellation. The engine finishes with StatusCancelled; best-so-far
// results stay available through Snapshot. Safe to call more than once.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	if r.paused != nil {
		close(r.paused)
		r.paused = nil
	}
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Done returns a channel closed when the run finishes for any reason.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run finishes and reports whether it solved the
// puzzle.
func (r *Runner) Wait() bool {
	<-r.done
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.solved
}

// Snapshot returns the most recent grid and metrics captured from the
// engine: the latest event's state while running, the final result once
// done, or nil and zero metrics before the first event.
func (r *Runner) Snapshot() (sudoku.Grid, Metrics) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.grid.Clone(), r.metrics
}
