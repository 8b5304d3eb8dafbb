package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/sudoku-xyz/go-sudoku/eventlog"
	"github.com/sudoku-xyz/go-sudoku/results"
	"github.com/sudoku-xyz/go-sudoku/solver"
	"github.com/sudoku-xyz/go-sudoku/storage"
	"github.com/sudoku-xyz/go-sudoku/sudoku"
)

func solve(args []string) error {
	fs := flag.NewFlagSet("solve", flag.ExitOnError)
	gf := addGridFlags(fs)
	algorithm := fs.String("algorithm", "backtracking", "Solver: backtracking (bt) or cultural")
	seed := fs.Int64("seed", 0, "Cultural random seed (0 = from clock)")
	population := fs.Int("population", 0, "Cultural population size (0 = default)")
	generations := fs.Int("generations", 0, "Cultural generation limit (0 = default)")
	mutation := fs.Float64("mutation", 0, "Cultural mutation rate (0 = default)")
	steps := fs.String("steps", "", "Write the event log to this JSONL file")
	stepsCSV := fs.String("steps-csv", "", "Write the event log to this CSV file")
	out := fs.String("out", "", "Write structured results JSON to this file")
	dbPath := fs.String("db", "", "Record the puzzle and run in this SQLite database")
	analyze := fs.Bool("analyze", true, "Include trace analysis in results output")
	quiet := fs.Bool("quiet", false, "Suppress grid printouts")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sudoku solve [options]

Solve a puzzle and report solver metrics.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Exact solver on the sample puzzle
  sudoku solve -sample

  # Cultural algorithm with a fixed seed and tuned population
  sudoku solve -file puzzle.json -algorithm cultural -seed 42 -population 100

  # Record every step for later analysis
  sudoku solve -sample -steps steps.jsonl -out results.json
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := gf.load()
	if err != nil {
		return err
	}

	name := *algorithm
	if name == "bt" {
		name = "backtracking"
	}

	// Record events when any requested output needs them.
	var elog *eventlog.Log
	var rec *eventlog.Recorder
	runID := uuid.NewString()
	if *steps != "" || *stepsCSV != "" || (*analyze && *out != "") {
		elog = eventlog.NewLog()
		rec = eventlog.NewRecorder(elog, runID, name)
	}

	if !*quiet {
		fmt.Printf("Puzzle %dx%d, %d givens:\n", p.Size(), p.Size(), p.Size()*p.Size()-p.CountEmpty())
		printPuzzle(p)
		fmt.Println()
	}

	builder := results.NewBuilder(name).WithPuzzle(p)

	var solved bool
	var metrics solver.Metrics
	var grid sudoku.Grid
	var usedSeed int64

	switch name {
	case "backtracking":
		engine := solver.NewBacktracking(p)
		var obs solver.StepFunc
		if rec != nil {
			obs = rec.StepFunc(nil)
		}
		solved = engine.Solve(obs)
		metrics = engine.Metrics()
		grid = engine.Solution()

	case "cultural":
		opts := solver.DefaultCulturalOptions()
		opts.Seed = *seed
		if *population > 0 {
			opts.PopulationSize = *population
		}
		if *generations > 0 {
			opts.MaxGenerations = *generations
		}
		if *mutation > 0 {
			opts.MutationRate = *mutation
		}
		engine := solver.NewCultural(p, opts)
		var obs solver.GenerationFunc
		if rec != nil {
			obs = rec.GenerationFunc(nil)
		}
		solved = engine.Solve(obs)
		metrics = engine.Metrics()
		grid = engine.Solution()
		usedSeed = engine.Seed()
		opts.Seed = usedSeed
		builder.WithSeed(usedSeed).WithCulturalOptions(opts)

	default:
		return fmt.Errorf("unknown algorithm: %s", *algorithm)
	}

	builder.WithMetrics(metrics).WithSolution(solved, grid)

	printOutcome(solved, metrics)
	if solved && !*quiet {
		fmt.Println()
		fmt.Print(formatGrid(grid, p.BoxSize()))
	}

	if *steps != "" {
		if err := eventlog.WriteJSONL(*steps, elog); err != nil {
			return fmt.Errorf("write steps: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Steps: %s (%d events)\n", *steps, elog.NumEvents())
	}
	if *stepsCSV != "" {
		if err := eventlog.WriteCSV(*stepsCSV, elog); err != nil {
			return fmt.Errorf("write steps CSV: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Steps: %s (%d events)\n", *stepsCSV, elog.NumEvents())
	}

	if *out != "" {
		if *analyze && elog != nil {
			if trace, ok := elog.Runs[runID]; ok {
				builder.WithAnalysis(results.NewAnalyzer(trace).ComputeAll())
			}
		}
		if err := results.WriteJSON(builder.Build(), *out); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Results: %s\n", *out)
	}

	if *dbPath != "" {
		if err := saveSolveRun(*dbPath, p, name, runID, solved, grid, metrics, usedSeed); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Recorded in %s\n", *dbPath)
	}

	return nil
}

func printOutcome(solved bool, m solver.Metrics) {
	switch {
	case solved:
		fmt.Printf("Solved in %s\n", m.Duration)
	case m.Status == solver.StatusExhausted:
		fmt.Printf("No solution exists (search exhausted in %s)\n", m.Duration)
	case m.Status == solver.StatusNoConvergence:
		fmt.Printf("No solution found after %d generations (best fitness %d)\n",
			m.Generations, m.BestFitness)
	default:
		fmt.Printf("Stopped: %s\n", m.Status)
	}
	if m.Iterations > 0 {
		fmt.Printf("  Iterations: %d\n", m.Iterations)
		fmt.Printf("  Backtracks: %d\n", m.Backtracks)
	}
	if m.Generations > 0 {
		fmt.Printf("  Generations: %d\n", m.Generations)
		fmt.Printf("  Best fitness: %d\n", m.BestFitness)
	}
}

// saveSolveRun records the puzzle and its run in a SQLite database.
func saveSolveRun(dbPath string, p *sudoku.Puzzle, solverName, runID string, solved bool, grid sudoku.Grid, m solver.Metrics, seed int64) error {
	store, err := storage.New(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	puzzleID := uuid.NewString()
	err = store.SavePuzzle(&storage.PuzzleRecord{
		ID:      puzzleID,
		Size:    p.Size(),
		BoxSize: p.BoxSize(),
		Givens:  p.Size()*p.Size() - p.CountEmpty(),
		Grid:    p.GridCopy(),
	})
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	record := &storage.RunRecord{
		ID:          runID,
		PuzzleID:    puzzleID,
		Solver:      solverName,
		Status:      string(m.Status),
		Seed:        seed,
		Iterations:  m.Iterations,
		Backtracks:  m.Backtracks,
		Generations: m.Generations,
		BestFitness: m.BestFitness,
		ComputeTime: m.Duration.Seconds(),
		StartedAt:   now.Add(-m.Duration),
		FinishedAt:  &now,
	}
	if solved {
		record.Solution = grid
	}
	return store.SaveRun(record)
}
