package eventlog

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestParseJSONLBasic(t *testing.T) {
	jsonl := `{"run_id": "run1", "type": "attempt", "seq": 1, "row": 0, "col": 1, "value": 2, "timestamp": "2024-01-01T10:00:00Z"}
{"run_id": "run1", "type": "place", "seq": 2, "row": 0, "col": 1, "value": 2, "timestamp": "2024-01-01T10:00:01Z"}
{"run_id": "run1", "type": "backtrack", "seq": 3, "row": 0, "col": 1, "value": 0, "timestamp": "2024-01-01T10:00:02Z"}
{"run_id": "run2", "type": "generation", "seq": 1, "generation": 1, "fitness": 7, "timestamp": "2024-01-01T10:15:00Z"}
{"run_id": "run2", "type": "generation", "seq": 2, "generation": 2, "fitness": 3, "timestamp": "2024-01-01T10:15:01Z"}`

	config := DefaultJSONLConfig()
	log, err := ParseJSONLReader(strings.NewReader(jsonl), config)
	if err != nil {
		t.Fatalf("ParseJSONLReader failed: %v", err)
	}

	if log.NumRuns() != 2 {
		t.Errorf("Expected 2 runs, got %d", log.NumRuns())
	}

	if log.NumEvents() != 5 {
		t.Errorf("Expected 5 events, got %d", log.NumEvents())
	}

	trace1 := log.Runs["run1"]
	if len(trace1.Events) != 3 {
		t.Errorf("Expected 3 events in run1, got %d", len(trace1.Events))
	}

	// Events are sorted by sequence number
	if trace1.Events[0].Type != "attempt" {
		t.Errorf("Expected first event type 'attempt', got '%s'", trace1.Events[0].Type)
	}
	if trace1.Events[0].Value != 2 {
		t.Errorf("Expected value 2, got %d", trace1.Events[0].Value)
	}

	trace2 := log.Runs["run2"]
	if trace2.Events[1].Fitness != 3 {
		t.Errorf("Expected fitness 3, got %d", trace2.Events[1].Fitness)
	}
}

func TestParseJSONLWithSolver(t *testing.T) {
	jsonl := `{"run_id": "r1", "type": "attempt", "seq": 1, "solver": "backtracking", "timestamp": "2024-01-01T10:00:00Z"}
{"run_id": "r2", "type": "generation", "seq": 1, "solver": "cultural", "timestamp": "2024-01-01T11:00:00Z"}`

	config := DefaultJSONLConfig()
	log, err := ParseJSONLReader(strings.NewReader(jsonl), config)
	if err != nil {
		t.Fatalf("ParseJSONLReader failed: %v", err)
	}

	solvers := log.Solvers()
	if len(solvers) != 2 {
		t.Errorf("Expected 2 solvers, got %d", len(solvers))
	}

	trace := log.Runs["r1"]
	if trace.Solver != "backtracking" {
		t.Errorf("Expected solver 'backtracking', got '%s'", trace.Solver)
	}
}

func TestParseJSONLUnixTimestamp(t *testing.T) {
	// Unix timestamp in seconds
	jsonl := `{"run_id": "r1", "type": "attempt", "seq": 1, "timestamp": 1704110400}`

	config := DefaultJSONLConfig()
	log, err := ParseJSONLReader(strings.NewReader(jsonl), config)
	if err != nil {
		t.Fatalf("ParseJSONLReader failed: %v", err)
	}

	event := log.Runs["r1"].Events[0]
	expected := time.Unix(1704110400, 0)
	if !event.Timestamp.Equal(expected) {
		t.Errorf("Expected timestamp %v, got %v", expected, event.Timestamp)
	}
}

func TestParseJSONLUnixMilliseconds(t *testing.T) {
	// Unix timestamp in milliseconds
	jsonl := `{"run_id": "r1", "type": "attempt", "seq": 1, "timestamp": 1704110400000}`

	config := DefaultJSONLConfig()
	log, err := ParseJSONLReader(strings.NewReader(jsonl), config)
	if err != nil {
		t.Fatalf("ParseJSONLReader failed: %v", err)
	}

	event := log.Runs["r1"].Events[0]
	expected := time.Unix(1704110400, 0)
	if !event.Timestamp.Equal(expected) {
		t.Errorf("Expected timestamp %v, got %v", expected, event.Timestamp)
	}
}

func TestParseJSONLCustomFields(t *testing.T) {
	jsonl := `{"job": "J001", "kind": "place", "seq": 1, "engine": "backtracking", "when": "2024-01-01T10:00:00Z"}`

	config := JSONLConfig{
		RunIDField:     "job",
		TypeField:      "kind",
		SolverField:    "engine",
		TimestampField: "when",
	}
	log, err := ParseJSONLReader(strings.NewReader(jsonl), config)
	if err != nil {
		t.Fatalf("ParseJSONLReader failed: %v", err)
	}

	trace, exists := log.Runs["J001"]
	if !exists {
		t.Fatal("Expected run 'J001' to exist")
	}
	if trace.Events[0].Type != "place" {
		t.Errorf("Expected type 'place', got '%s'", trace.Events[0].Type)
	}
	if trace.Solver != "backtracking" {
		t.Errorf("Expected solver 'backtracking', got '%s'", trace.Solver)
	}
}

func TestParseJSONLSkipEmptyLines(t *testing.T) {
	jsonl := `{"run_id": "r1", "type": "attempt", "seq": 1, "timestamp": "2024-01-01T10:00:00Z"}

{"run_id": "r1", "type": "place", "seq": 2, "timestamp": "2024-01-01T11:00:00Z"}
`

	config := DefaultJSONLConfig()
	log, err := ParseJSONLReader(strings.NewReader(jsonl), config)
	if err != nil {
		t.Fatalf("ParseJSONLReader failed: %v", err)
	}

	if log.NumEvents() != 2 {
		t.Errorf("Expected 2 events, got %d", log.NumEvents())
	}
}

func TestParseJSONLMissingRequiredField(t *testing.T) {
	// Missing type field
	jsonl := `{"run_id": "r1", "seq": 1, "timestamp": "2024-01-01T10:00:00Z"}`

	config := DefaultJSONLConfig()
	_, err := ParseJSONLReader(strings.NewReader(jsonl), config)
	if err == nil {
		t.Error("Expected error for missing required field")
	}
}

func TestParseJSONLInvalidJSON(t *testing.T) {
	jsonl := `{"run_id": "r1", "type": "attempt", "seq": 1}
{invalid json}`

	config := DefaultJSONLConfig()
	_, err := ParseJSONLReader(strings.NewReader(jsonl), config)
	if err == nil {
		t.Error("Expected error for invalid JSON")
	}
	if err != nil && !strings.Contains(err.Error(), "line 2") {
		t.Errorf("Expected error to name line 2, got: %v", err)
	}
}

func TestParseJSONLInvalidTimestamp(t *testing.T) {
	jsonl := `{"run_id": "r1", "type": "attempt", "seq": 1, "timestamp": "not-a-date"}`

	config := DefaultJSONLConfig()
	_, err := ParseJSONLReader(strings.NewReader(jsonl), config)
	if err == nil {
		t.Error("Expected error for invalid timestamp")
	}
}

func TestParseJSONLValidateConfig(t *testing.T) {
	jsonl := `{"run_id": "r1", "type": "attempt", "seq": 1}`

	// Missing RunIDField
	config := JSONLConfig{TypeField: "type"}
	_, err := ParseJSONLReader(strings.NewReader(jsonl), config)
	if err == nil {
		t.Error("Expected error for missing RunIDField")
	}

	// Missing TypeField
	config = JSONLConfig{RunIDField: "run_id"}
	_, err = ParseJSONLReader(strings.NewReader(jsonl), config)
	if err == nil {
		t.Error("Expected error for missing TypeField")
	}
}

func TestParseJSONLBytes(t *testing.T) {
	data := []byte(`{"run_id": "r1", "type": "attempt", "seq": 1, "timestamp": "2024-01-01T10:00:00Z"}
{"run_id": "r1", "type": "place", "seq": 2, "timestamp": "2024-01-01T11:00:00Z"}`)

	config := DefaultJSONLConfig()
	log, err := ParseJSONLBytes(data, config)
	if err != nil {
		t.Fatalf("ParseJSONLBytes failed: %v", err)
	}

	if log.NumEvents() != 2 {
		t.Errorf("Expected 2 events, got %d", log.NumEvents())
	}
}

func TestJSONLRoundTrip(t *testing.T) {
	log := NewLog()
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	log.AddEvent(Event{RunID: "r1", Seq: 1, Type: "attempt", Solver: "backtracking", Row: 0, Col: 1, Value: 2, Timestamp: base})
	log.AddEvent(Event{RunID: "r1", Seq: 2, Type: "place", Solver: "backtracking", Row: 0, Col: 1, Value: 2, Timestamp: base.Add(time.Millisecond)})
	log.AddEvent(Event{RunID: "r2", Seq: 1, Type: GenerationEvent, Solver: "cultural", Generation: 1, Fitness: 9, Timestamp: base.Add(time.Second)})

	var buf bytes.Buffer
	if err := WriteJSONLWriter(&buf, log); err != nil {
		t.Fatalf("WriteJSONLWriter failed: %v", err)
	}

	parsed, err := ParseJSONLReader(&buf, DefaultJSONLConfig())
	if err != nil {
		t.Fatalf("ParseJSONLReader failed: %v", err)
	}

	if parsed.NumRuns() != 2 {
		t.Errorf("Expected 2 runs after round trip, got %d", parsed.NumRuns())
	}
	if parsed.NumEvents() != 3 {
		t.Errorf("Expected 3 events after round trip, got %d", parsed.NumEvents())
	}

	got := parsed.Runs["r1"].Events[1]
	if got.Type != "place" || got.Row != 0 || got.Col != 1 || got.Value != 2 {
		t.Errorf("Round trip mangled event: %+v", got)
	}
	if !got.Timestamp.Equal(base.Add(time.Millisecond)) {
		t.Errorf("Expected timestamp %v, got %v", base.Add(time.Millisecond), got.Timestamp)
	}

	gen := parsed.Runs["r2"].Events[0]
	if gen.Generation != 1 || gen.Fitness != 9 {
		t.Errorf("Round trip mangled generation event: %+v", gen)
	}
}
