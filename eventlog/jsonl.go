package eventlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// JSONLConfig configures JSONL parsing behavior. Field names for the string
// fields are configurable so logs written by other tools can be ingested;
// the numeric fields (seq, row, col, value, generation, fitness) always use
// their canonical names.
type JSONLConfig struct {
	RunIDField       string   // JSON field for run ID (required)
	TypeField        string   // JSON field for event type (required)
	SolverField      string   // JSON field for solver name (optional)
	TimestampField   string   // JSON field for timestamp (optional)
	TimestampFormats []string // Date/time formats to try (optional)
}

// DefaultJSONLConfig returns a configuration matching WriteJSONL output.
func DefaultJSONLConfig() JSONLConfig {
	return JSONLConfig{
		RunIDField:     "run_id",
		TypeField:      "type",
		SolverField:    "solver",
		TimestampField: "timestamp",
		TimestampFormats: []string{
			time.RFC3339Nano,
			time.RFC3339,
			"2006-01-02 15:04:05",
			"2006-01-02T15:04:05",
			"2006-01-02",
		},
	}
}

// WriteJSONL writes the log to a JSONL file, one event per line, runs in
// sorted order.
func WriteJSONL(filename string, log *Log) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()
	return WriteJSONLWriter(f, log)
}

// WriteJSONLWriter writes the log to w, one JSON object per line.
func WriteJSONLWriter(w io.Writer, log *Log) error {
	bw := bufio.NewWriter(w)
	for _, trace := range log.Traces() {
		for _, e := range trace.Events {
			line, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("encoding event %s/%d: %w", e.RunID, e.Seq, err)
			}
			if _, err := bw.Write(line); err != nil {
				return err
			}
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// ParseJSONL parses an event log from a JSONL file. Each line must be a
// valid JSON object with event data.
func ParseJSONL(filename string, config JSONLConfig) (*Log, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()
	return ParseJSONLReader(f, config)
}

// ParseJSONLReader parses an event log from a JSONL stream.
func ParseJSONLReader(r io.Reader, config JSONLConfig) (*Log, error) {
	if config.RunIDField == "" {
		return nil, fmt.Errorf("RunIDField is required")
	}
	if config.TypeField == "" {
		return nil, fmt.Errorf("TypeField is required")
	}
	if len(config.TimestampFormats) == 0 {
		config.TimestampFormats = DefaultJSONLConfig().TimestampFormats
	}

	log := NewLog()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" {
			continue
		}

		var record map[string]interface{}
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("line %d: invalid JSON: %w", lineNum, err)
		}

		runID, err := extractString(record, config.RunIDField)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		eventType, err := extractString(record, config.TypeField)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		event := Event{
			RunID:      runID,
			Type:       eventType,
			Seq:        extractInt(record, "seq"),
			Row:        extractInt(record, "row"),
			Col:        extractInt(record, "col"),
			Value:      extractInt(record, "value"),
			Generation: extractInt(record, "generation"),
			Fitness:    extractInt(record, "fitness"),
		}
		if config.SolverField != "" {
			if solverName, err := extractString(record, config.SolverField); err == nil {
				event.Solver = solverName
			}
		}
		if config.TimestampField != "" {
			if raw, present := record[config.TimestampField]; present && raw != "" {
				ts, err := extractTimestamp(record, config.TimestampField, config.TimestampFormats)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNum, err)
				}
				event.Timestamp = ts
			}
		}

		log.AddEvent(event)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	log.SortTraces()
	return log, nil
}

// ParseJSONLBytes parses an event log from JSONL bytes.
func ParseJSONLBytes(data []byte, config JSONLConfig) (*Log, error) {
	return ParseJSONLReader(bytes.NewReader(data), config)
}

// extractString extracts a string value from a JSON record.
func extractString(record map[string]interface{}, field string) (string, error) {
	value, ok := record[field]
	if !ok {
		return "", fmt.Errorf("missing required field '%s'", field)
	}
	switch v := value.(type) {
	case string:
		if v == "" {
			return "", fmt.Errorf("empty value for field '%s'", field)
		}
		return v, nil
	case float64:
		return fmt.Sprintf("%.0f", v), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// extractInt extracts an integer, tolerating the float64 type JSON decoding
// produces. Missing or non-numeric fields come back as zero.
func extractInt(record map[string]interface{}, field string) int {
	value, ok := record[field]
	if !ok {
		return 0
	}
	switch v := value.(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// extractTimestamp extracts and parses a timestamp from a JSON record.
func extractTimestamp(record map[string]interface{}, field string, formats []string) (time.Time, error) {
	value, ok := record[field]
	if !ok {
		return time.Time{}, fmt.Errorf("missing field '%s'", field)
	}
	switch v := value.(type) {
	case string:
		return parseTimestamp(v, formats)
	case float64:
		// Unix timestamp, seconds or milliseconds.
		if v > 1e12 {
			return time.Unix(int64(v/1000), int64(v)%1000*1e6), nil
		}
		return time.Unix(int64(v), 0), nil
	default:
		return time.Time{}, fmt.Errorf("invalid timestamp type for field '%s': %T", field, value)
	}
}
