package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sudoku-xyz/go-sudoku/eventlog"
	"github.com/sudoku-xyz/go-sudoku/plotter"
)

func events(args []string) error {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	runID := fs.String("run", "", "Show the event timeline of one run")
	typeFilter := fs.String("type", "", "Filter timeline by event type")
	asCSV := fs.Bool("csv", false, "Force CSV parsing regardless of extension")
	plotFile := fs.String("plot", "", "Render the run's dynamics to this SVG file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sudoku events <log-file> [options]

Summarize a recorded event log, or show one run's timeline.

Log files come from 'sudoku solve -steps' (JSONL) or '-steps-csv' (CSV).

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Summarize all recorded runs
  sudoku events steps.jsonl

  # Show one run's timeline
  sudoku events steps.jsonl -run 4f8de21c

  # Only the backtracks
  sudoku events steps.jsonl -run 4f8de21c -type backtrack

  # Chart the search (fitness curve or backtrack sawtooth)
  sudoku events steps.jsonl -run 4f8de21c -plot search.svg
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("log file required")
	}
	logFile := fs.Arg(0)

	var log *eventlog.Log
	var err error
	if *asCSV || strings.HasSuffix(logFile, ".csv") {
		log, err = eventlog.ParseCSV(logFile, eventlog.DefaultCSVConfig())
	} else {
		log, err = eventlog.ParseJSONL(logFile, eventlog.DefaultJSONLConfig())
	}
	if err != nil {
		return fmt.Errorf("parse log: %w", err)
	}

	if log.NumEvents() == 0 {
		fmt.Println("No events recorded")
		return nil
	}

	if *plotFile != "" {
		return plotRun(log, *runID, *plotFile)
	}

	if *runID != "" {
		return printTimeline(log, *runID, *typeFilter)
	}

	log.Summarize().Print()

	fmt.Println("\nRuns:")
	for _, trace := range log.Traces() {
		fmt.Printf("  %s\n", trace)
	}

	return nil
}

// printTimeline lists one run's events in sequence order. The run may be
// named by any unique prefix of its ID.
func printTimeline(log *eventlog.Log, runID, typeFilter string) error {
	trace := findTrace(log, runID)
	if trace == nil {
		return fmt.Errorf("run not found: %s", runID)
	}

	display := trace.Events
	if typeFilter != "" {
		display = nil
		for _, e := range trace.Events {
			if e.Type == typeFilter {
				display = append(display, e)
			}
		}
		if len(display) == 0 {
			fmt.Printf("No events of type '%s' in run %s\n", typeFilter, trace.RunID)
			return nil
		}
	}

	fmt.Printf("=== Run %s (%s): %d events ===\n\n", trace.RunID, trace.Solver, len(display))

	start := trace.StartTime()
	for _, e := range display {
		elapsed := e.Timestamp.Sub(start).Seconds()
		fmt.Printf("%-6d  +%-9.3fs  %-12s  %s\n", e.Seq, elapsed, e.Type, eventDetail(e))
	}

	return nil
}

// plotRun renders one run's dynamics as an SVG chart. With a single
// recorded run the -run flag may be omitted.
func plotRun(log *eventlog.Log, runID, plotFile string) error {
	var trace *eventlog.Trace
	if runID != "" {
		trace = findTrace(log, runID)
		if trace == nil {
			return fmt.Errorf("run not found: %s", runID)
		}
	} else {
		if log.NumRuns() != 1 {
			return fmt.Errorf("log holds %d runs, use -run to pick one", log.NumRuns())
		}
		trace = log.Traces()[0]
	}

	svg, err := plotter.PlotTrace(trace, 800, 600)
	if err != nil {
		return err
	}
	if err := os.WriteFile(plotFile, []byte(svg), 0644); err != nil {
		return fmt.Errorf("write plot: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Plot: %s (run %s, %d events)\n", plotFile, trace.RunID, len(trace.Events))
	return nil
}

func findTrace(log *eventlog.Log, runID string) *eventlog.Trace {
	if trace, ok := log.Runs[runID]; ok {
		return trace
	}
	var match *eventlog.Trace
	for id, trace := range log.Runs {
		if strings.HasPrefix(id, runID) {
			if match != nil {
				return nil // ambiguous prefix
			}
			match = trace
		}
	}
	return match
}

func eventDetail(e eventlog.Event) string {
	if e.Type == eventlog.GenerationEvent {
		return fmt.Sprintf("generation %d, fitness %d", e.Generation, e.Fitness)
	}
	return fmt.Sprintf("(%d,%d) = %d", e.Row, e.Col, e.Value)
}
