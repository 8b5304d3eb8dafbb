package eventlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// csvHeader is the canonical column order for CSV export.
var csvHeader = []string{
	"run_id", "seq", "type", "solver",
	"row", "col", "value", "generation", "fitness", "timestamp",
}

// CSVConfig configures CSV parsing behavior. Columns are located by name
// from the header row using the canonical names, so column order does not
// matter.
type CSVConfig struct {
	TimestampFormats []string // Date/time formats to try (optional)
	Delimiter        rune     // CSV delimiter (default: comma)
	SkipRows         int      // Number of rows to skip before the header
}

// DefaultCSVConfig returns a configuration matching WriteCSV output.
func DefaultCSVConfig() CSVConfig {
	return CSVConfig{
		TimestampFormats: []string{
			time.RFC3339Nano,
			time.RFC3339,
			"2006-01-02 15:04:05",
			"2006-01-02T15:04:05",
			"2006-01-02",
		},
		Delimiter: ',',
		SkipRows:  0,
	}
}

// WriteCSV writes the log to a CSV file with a header row.
func WriteCSV(filename string, log *Log) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()
	return WriteCSVWriter(f, log)
}

// WriteCSVWriter writes the log to w with the canonical header, runs in
// sorted order.
func WriteCSVWriter(w io.Writer, log *Log) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, trace := range log.Traces() {
		for _, e := range trace.Events {
			record := []string{
				e.RunID,
				strconv.Itoa(e.Seq),
				e.Type,
				e.Solver,
				strconv.Itoa(e.Row),
				strconv.Itoa(e.Col),
				strconv.Itoa(e.Value),
				strconv.Itoa(e.Generation),
				strconv.Itoa(e.Fitness),
				e.Timestamp.Format(time.RFC3339Nano),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// ParseCSV parses an event log from a CSV file.
func ParseCSV(filename string, config CSVConfig) (*Log, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()
	return ParseCSVReader(f, config)
}

// ParseCSVReader parses an event log from a CSV stream. The run_id and type
// columns are required; missing optional columns leave their fields zero.
func ParseCSVReader(r io.Reader, config CSVConfig) (*Log, error) {
	if len(config.TimestampFormats) == 0 {
		config.TimestampFormats = DefaultCSVConfig().TimestampFormats
	}

	reader := csv.NewReader(r)
	if config.Delimiter != 0 {
		reader.Comma = config.Delimiter
	}

	for i := 0; i < config.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, fmt.Errorf("skipping row %d: %w", i, err)
		}
	}

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	runIdx, ok := colIndex["run_id"]
	if !ok {
		return nil, fmt.Errorf("run_id column not found in header: %v", header)
	}
	typeIdx, ok := colIndex["type"]
	if !ok {
		return nil, fmt.Errorf("type column not found in header: %v", header)
	}

	log := NewLog()
	lineNum := config.SkipRows + 2 // +1 for header, +1 for 1-based line numbers

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", lineNum, err)
		}
		if len(record) <= runIdx || len(record) <= typeIdx {
			return nil, fmt.Errorf("line %d: insufficient columns", lineNum)
		}

		runID := strings.TrimSpace(record[runIdx])
		eventType := strings.TrimSpace(record[typeIdx])
		if runID == "" {
			return nil, fmt.Errorf("line %d: empty run ID", lineNum)
		}
		if eventType == "" {
			return nil, fmt.Errorf("line %d: empty event type", lineNum)
		}

		event := Event{
			RunID:      runID,
			Type:       eventType,
			Seq:        columnInt(record, colIndex, "seq"),
			Row:        columnInt(record, colIndex, "row"),
			Col:        columnInt(record, colIndex, "col"),
			Value:      columnInt(record, colIndex, "value"),
			Generation: columnInt(record, colIndex, "generation"),
			Fitness:    columnInt(record, colIndex, "fitness"),
		}
		if idx, ok := colIndex["solver"]; ok && idx < len(record) {
			event.Solver = strings.TrimSpace(record[idx])
		}
		if idx, ok := colIndex["timestamp"]; ok && idx < len(record) {
			value := strings.TrimSpace(record[idx])
			if value != "" {
				ts, err := parseTimestamp(value, config.TimestampFormats)
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid timestamp '%s': %w", lineNum, value, err)
				}
				event.Timestamp = ts
			}
		}

		log.AddEvent(event)
		lineNum++
	}

	log.SortTraces()
	return log, nil
}

// columnInt reads an integer column, treating absent columns and blank or
// malformed cells as zero.
func columnInt(record []string, colIndex map[string]int, name string) int {
	idx, ok := colIndex[name]
	if !ok || idx >= len(record) {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(record[idx]))
	if err != nil {
		return 0
	}
	return n
}

// parseTimestamp tries each configured format in order.
func parseTimestamp(s string, formats []string) (time.Time, error) {
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("could not parse timestamp with any of the configured formats")
}
