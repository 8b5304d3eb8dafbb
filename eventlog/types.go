// Package eventlog records solver runs as flat event streams. Every
// attempt, reject, place, backtrack, and generation can be captured, written
// to JSONL or CSV, and read back for analysis, replay, or visualization.
package eventlog

import (
	"fmt"
	"sort"
	"time"
)

// GenerationEvent is the event type recorded for evolutionary progress.
// Step events reuse the solver's own type names (attempt, reject, place,
// backtrack).
const GenerationEvent = "generation"

// Event is one solver action inside a run. Step events carry Row, Col and
// Value; generation events carry Generation and Fitness. Unused fields stay
// zero so the stream keeps a single flat schema.
type Event struct {
	RunID      string    `json:"run_id"`
	Seq        int       `json:"seq"`
	Type       string    `json:"type"`
	Solver     string    `json:"solver,omitempty"`
	Row        int       `json:"row"`
	Col        int       `json:"col"`
	Value      int       `json:"value"`
	Generation int       `json:"generation"`
	Fitness    int       `json:"fitness"`
	Timestamp  time.Time `json:"timestamp"`
}

// Trace is the ordered event sequence of a single run.
type Trace struct {
	RunID  string
	Solver string
	Events []Event
}

// Log contains traces for any number of runs.
type Log struct {
	Runs map[string]*Trace
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{Runs: make(map[string]*Trace)}
}

// AddEvent appends an event to its run's trace, creating the trace if
// needed. The first event naming a solver fixes the trace's solver.
func (l *Log) AddEvent(e Event) {
	trace, exists := l.Runs[e.RunID]
	if !exists {
		trace = &Trace{RunID: e.RunID, Events: make([]Event, 0)}
		l.Runs[e.RunID] = trace
	}
	if trace.Solver == "" && e.Solver != "" {
		trace.Solver = e.Solver
	}
	trace.Events = append(trace.Events, e)
}

// SortTraces orders events within each trace by sequence number. The sort is
// stable, so events without sequence numbers keep their arrival order.
func (l *Log) SortTraces() {
	for _, trace := range l.Runs {
		sort.SliceStable(trace.Events, func(i, j int) bool {
			return trace.Events[i].Seq < trace.Events[j].Seq
		})
	}
}

// Traces returns all traces sorted by run ID.
func (l *Log) Traces() []*Trace {
	traces := make([]*Trace, 0, len(l.Runs))
	for _, trace := range l.Runs {
		traces = append(traces, trace)
	}
	sort.Slice(traces, func(i, j int) bool {
		return traces[i].RunID < traces[j].RunID
	})
	return traces
}

// NumRuns returns the number of recorded runs.
func (l *Log) NumRuns() int {
	return len(l.Runs)
}

// NumEvents returns the total number of events across all runs.
func (l *Log) NumEvents() int {
	total := 0
	for _, trace := range l.Runs {
		total += len(trace.Events)
	}
	return total
}

// Solvers returns the distinct solver names in the log, sorted.
func (l *Log) Solvers() []string {
	names := make(map[string]bool)
	for _, trace := range l.Runs {
		if trace.Solver != "" {
			names[trace.Solver] = true
		}
	}
	result := make([]string, 0, len(names))
	for name := range names {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Counts returns how many events of each type the trace holds.
func (trace *Trace) Counts() map[string]int {
	counts := make(map[string]int)
	for _, e := range trace.Events {
		counts[e.Type]++
	}
	return counts
}

// Duration returns the time from first to last event in the trace.
func (trace *Trace) Duration() time.Duration {
	if len(trace.Events) < 2 {
		return 0
	}
	return trace.Events[len(trace.Events)-1].Timestamp.Sub(trace.Events[0].Timestamp)
}

// StartTime returns the timestamp of the first event.
func (trace *Trace) StartTime() time.Time {
	if len(trace.Events) == 0 {
		return time.Time{}
	}
	return trace.Events[0].Timestamp
}

// EndTime returns the timestamp of the last event.
func (trace *Trace) EndTime() time.Time {
	if len(trace.Events) == 0 {
		return time.Time{}
	}
	return trace.Events[len(trace.Events)-1].Timestamp
}

// String returns a one-line description of the trace.
func (trace *Trace) String() string {
	return fmt.Sprintf("Run %s (%s): %d events (duration: %v)",
		trace.RunID, trace.Solver, len(trace.Events), trace.Duration())
}

// Summary provides basic statistics about an event log.
type Summary struct {
	NumRuns      int
	NumEvents    int
	NumSolvers   int
	Attempts     int
	Placements   int
	Backtracks   int
	Generations  int
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
	AvgRunLength float64
}

// Summarize computes summary statistics across all runs.
func (l *Log) Summarize() Summary {
	summary := Summary{
		NumRuns:    l.NumRuns(),
		NumEvents:  l.NumEvents(),
		NumSolvers: len(l.Solvers()),
	}
	if summary.NumRuns == 0 {
		return summary
	}

	var minTime, maxTime time.Time
	first := true
	for _, trace := range l.Runs {
		counts := trace.Counts()
		summary.Attempts += counts["attempt"]
		summary.Placements += counts["place"]
		summary.Backtracks += counts["backtrack"]
		summary.Generations += counts[GenerationEvent]

		if len(trace.Events) == 0 {
			continue
		}
		start, end := trace.StartTime(), trace.EndTime()
		if first {
			minTime, maxTime = start, end
			first = false
			continue
		}
		if start.Before(minTime) {
			minTime = start
		}
		if end.After(maxTime) {
			maxTime = end
		}
	}

	summary.StartTime = minTime
	summary.EndTime = maxTime
	summary.Duration = maxTime.Sub(minTime)
	summary.AvgRunLength = float64(summary.NumEvents) / float64(summary.NumRuns)
	return summary
}

// Print prints the summary to stdout.
func (summary Summary) Print() {
	fmt.Println("=== Event Log Summary ===")
	fmt.Printf("Runs: %d\n", summary.NumRuns)
	fmt.Printf("Events: %d\n", summary.NumEvents)
	fmt.Printf("Solvers: %d\n", summary.NumSolvers)
	fmt.Printf("Attempts: %d\n", summary.Attempts)
	fmt.Printf("Placements: %d\n", summary.Placements)
	fmt.Printf("Backtracks: %d\n", summary.Backtracks)
	fmt.Printf("Generations: %d\n", summary.Generations)
	fmt.Printf("Time range: %s to %s\n",
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"))
	fmt.Printf("Total duration: %v\n", summary.Duration)
	fmt.Printf("Avg events per run: %.1f\n", summary.AvgRunLength)
}
