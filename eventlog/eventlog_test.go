package eventlog

import (
	"testing"
	"time"

	"github.com/sudoku-xyz/go-sudoku/solver"
	"github.com/sudoku-xyz/go-sudoku/sudoku"
)

func puzzle4x4(t *testing.T) *sudoku.Puzzle {
	t.Helper()
	p, err := sudoku.New([][]int{
		{1, 0, 0, 4},
		{0, 0, 1, 0},
		{0, 1, 0, 0},
		{4, 0, 0, 1},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

func TestRecorderCapturesBacktrackingRun(t *testing.T) {
	log := NewLog()
	rec := NewRecorder(log, "run-1", "backtracking")

	engine := solver.NewBacktracking(puzzle4x4(t))
	if !engine.Solve(rec.StepFunc(nil)) {
		t.Fatal("Expected puzzle to be solved")
	}
	metrics := engine.Metrics()

	if log.NumRuns() != 1 {
		t.Fatalf("Expected 1 run, got %d", log.NumRuns())
	}
	trace, exists := log.Runs["run-1"]
	if !exists {
		t.Fatal("Run run-1 not found")
	}
	if trace.Solver != "backtracking" {
		t.Errorf("Expected solver 'backtracking', got '%s'", trace.Solver)
	}
	if rec.Seq() != log.NumEvents() {
		t.Errorf("Recorder seq %d != %d logged events", rec.Seq(), log.NumEvents())
	}

	counts := trace.Counts()
	if counts["attempt"] != metrics.Iterations {
		t.Errorf("Expected %d attempt events, got %d", metrics.Iterations, counts["attempt"])
	}
	if counts["backtrack"] != metrics.Backtracks {
		t.Errorf("Expected %d backtrack events, got %d", metrics.Backtracks, counts["backtrack"])
	}
	// Net placements fill exactly the ten blanks of the puzzle.
	if net := counts["place"] - counts["backtrack"]; net != 10 {
		t.Errorf("Expected 10 net placements, got %d", net)
	}

	if trace.Events[0].Type != "attempt" {
		t.Errorf("Expected first event 'attempt', got '%s'", trace.Events[0].Type)
	}
	for i, e := range trace.Events {
		if e.Seq != i+1 {
			t.Fatalf("Event %d has seq %d, want %d", i, e.Seq, i+1)
		}
		if e.Timestamp.IsZero() {
			t.Fatalf("Event %d has zero timestamp", i)
		}
	}
}

func TestRecorderCapturesCulturalRun(t *testing.T) {
	p, err := sudoku.New([][]int{
		{1, 0, 3, 4},
		{3, 4, 1, 2},
		{2, 1, 4, 3},
		{4, 3, 2, 1},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	log := NewLog()
	rec := NewRecorder(log, "run-c", "cultural")

	engine := solver.NewCultural(p, &solver.CulturalOptions{Seed: 1})
	if !engine.Solve(rec.GenerationFunc(nil)) {
		t.Fatal("Expected puzzle to be solved")
	}
	metrics := engine.Metrics()

	trace := log.Runs["run-c"]
	counts := trace.Counts()
	if counts[GenerationEvent] != metrics.Generations {
		t.Errorf("Expected %d generation events, got %d", metrics.Generations, counts[GenerationEvent])
	}

	last := trace.Events[len(trace.Events)-1]
	if last.Generation != metrics.Generations {
		t.Errorf("Expected last generation %d, got %d", metrics.Generations, last.Generation)
	}
	if last.Fitness != 0 {
		t.Errorf("Expected final fitness 0, got %d", last.Fitness)
	}
}

func TestRecorderDefersToInner(t *testing.T) {
	log := NewLog()
	rec := NewRecorder(log, "run-x", "backtracking")

	inner := func(s solver.Step) bool {
		return log.NumEvents() < 5
	}

	engine := solver.NewBacktracking(puzzle4x4(t))
	if engine.Solve(rec.StepFunc(inner)) {
		t.Fatal("Expected cancelled solve to report failure")
	}
	if engine.Metrics().Status != solver.StatusCancelled {
		t.Errorf("Expected status %q, got %q", solver.StatusCancelled, engine.Metrics().Status)
	}
	if rec.Seq() != 5 {
		t.Errorf("Expected 5 recorded events, got %d", rec.Seq())
	}
}

func TestAddEventBuildsTraces(t *testing.T) {
	log := NewLog()
	log.AddEvent(Event{RunID: "b", Seq: 2, Type: "place"})
	log.AddEvent(Event{RunID: "a", Seq: 1, Type: "attempt", Solver: "backtracking"})
	log.AddEvent(Event{RunID: "b", Seq: 1, Type: "attempt", Solver: "cultural"})

	traces := log.Traces()
	if len(traces) != 2 {
		t.Fatalf("Expected 2 traces, got %d", len(traces))
	}
	// Traces come back sorted by run ID, events by sequence.
	if traces[0].RunID != "a" || traces[1].RunID != "b" {
		t.Errorf("Unexpected trace order: %s, %s", traces[0].RunID, traces[1].RunID)
	}
	if traces[1].Events[0].Seq != 1 || traces[1].Events[1].Seq != 2 {
		t.Errorf("Events not sorted by seq: %+v", traces[1].Events)
	}
	// The first non-empty solver name labels the trace.
	if traces[1].Solver != "cultural" {
		t.Errorf("Expected solver 'cultural', got '%s'", traces[1].Solver)
	}
}

func TestTraceTimes(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	log := NewLog()
	log.AddEvent(Event{RunID: "r", Seq: 1, Type: "attempt", Timestamp: base})
	log.AddEvent(Event{RunID: "r", Seq: 2, Type: "place", Timestamp: base.Add(90 * time.Second)})

	trace := log.Runs["r"]
	if !trace.StartTime().Equal(base) {
		t.Errorf("Expected start %v, got %v", base, trace.StartTime())
	}
	if !trace.EndTime().Equal(base.Add(90 * time.Second)) {
		t.Errorf("Expected end %v, got %v", base.Add(90*time.Second), trace.EndTime())
	}
	if trace.Duration() != 90*time.Second {
		t.Errorf("Expected duration 90s, got %v", trace.Duration())
	}
}
