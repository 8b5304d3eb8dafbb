package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/sudoku-xyz/go-sudoku/generator"
	"github.com/sudoku-xyz/go-sudoku/results"
	"github.com/sudoku-xyz/go-sudoku/solver"
	"github.com/sudoku-xyz/go-sudoku/sudoku"
)

func bench(args []string) error {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	gf := addGridFlags(fs)
	size := fs.Int("size", 9, "Generated puzzle size when no grid is given")
	empty := fs.Int("empty", 0, "Empty cells for the generated puzzle (0 = use difficulty)")
	difficulty := fs.String("difficulty", "medium", "Generated puzzle difficulty")
	algorithms := fs.String("algorithm", "backtracking,cultural", "Comma-separated solvers to run")
	count := fs.Int("count", 10, "Runs per solver; run i uses seed+i")
	seed := fs.Int64("seed", 1, "Base seed for generation and cultural runs")
	objective := fs.String("objective", "fastest", "Ranking objective")
	parallel := fs.Int("parallel", 4, "Concurrent solves")
	top := fs.Int("top", 10, "Rows to show in the ranking table")
	out := fs.String("out", "", "Write sweep results JSON to this file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sudoku bench [options]

Run repeated solves of one puzzle and rank the runs.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Objectives:
  fastest             Lowest wall-clock time among solved runs
  fewest_iterations   Lowest iteration count among solved runs
  fewest_generations  Lowest generation count among solved runs
  best_fitness        Lowest final fitness (0 when solved)

Examples:
  # Compare both solvers on a generated puzzle
  sudoku bench -size 9 -difficulty hard -count 10

  # Stress the cultural solver across 50 seeds
  sudoku bench -sample -algorithm cultural -count 50 -objective best_fitness

  # Keep the full ranking for later
  sudoku bench -file puzzle.json -out sweep.json
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, ok := results.Objectives[*objective]; !ok {
		return fmt.Errorf("unknown objective: %s", *objective)
	}

	solvers, err := parseSolverList(*algorithms)
	if err != nil {
		return err
	}

	p, err := benchPuzzle(gf, *size, *empty, *difficulty, *seed)
	if err != nil {
		return err
	}

	type job struct {
		solverName string
		seed       int64
	}
	jobs := make([]job, 0, len(solvers)**count)
	for _, name := range solvers {
		for i := 0; i < *count; i++ {
			jobs = append(jobs, job{name, *seed + int64(i)})
		}
	}

	fmt.Fprintf(os.Stderr, "Benchmark: %dx%d puzzle (%d givens), %d runs of %s\n",
		p.Size(), p.Size(), p.Size()*p.Size()-p.CountEmpty(), len(jobs), strings.Join(solvers, ", "))
	fmt.Fprintf(os.Stderr, "Objective: %s\n", *objective)

	jobChan := make(chan job, len(jobs))
	resChan := make(chan *results.Results, len(jobs))

	var wg sync.WaitGroup
	for w := 0; w < *parallel; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobChan {
				resChan <- benchRun(p, j.solverName, j.seed)
			}
		}()
	}
	for _, j := range jobs {
		jobChan <- j
	}
	close(jobChan)

	go func() {
		wg.Wait()
		close(resChan)
	}()

	runs := make([]*results.Results, 0, len(jobs))
	for r := range resChan {
		runs = append(runs, r)
		fmt.Fprintf(os.Stderr, "\rCompleted: %d/%d", len(runs), len(jobs))
	}
	fmt.Fprintln(os.Stderr)

	sweep, err := results.BuildSweep(*objective, runs)
	if err != nil {
		return err
	}

	printSweep(sweep, *top)

	if *out != "" {
		if err := writeSweepJSON(sweep, *out); err != nil {
			return fmt.Errorf("write sweep: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Sweep results: %s\n", *out)
	}

	return nil
}

// benchPuzzle returns the puzzle under test, from the input flags or
// freshly generated.
func benchPuzzle(gf *gridFlags, size, empty int, difficulty string, seed int64) (*sudoku.Puzzle, error) {
	if *gf.sample || *gf.grid != "" || *gf.file != "" {
		return gf.load()
	}
	gen := generator.New(seed)
	if empty > 0 {
		return gen.Generate(size, empty)
	}
	return gen.GenerateDifficulty(size, generator.Difficulty(difficulty))
}

func parseSolverList(spec string) ([]string, error) {
	var solvers []string
	for _, raw := range strings.Split(spec, ",") {
		name := strings.TrimSpace(raw)
		if name == "bt" {
			name = "backtracking"
		}
		switch name {
		case "backtracking", "cultural":
			solvers = append(solvers, name)
		case "":
		default:
			return nil, fmt.Errorf("unknown solver: %s", name)
		}
	}
	if len(solvers) == 0 {
		return nil, fmt.Errorf("no solvers given")
	}
	return solvers, nil
}

// benchRun executes one solve and packages it as a results document.
// Engines clone the puzzle, so concurrent runs never share state.
func benchRun(p *sudoku.Puzzle, solverName string, seed int64) *results.Results {
	builder := results.NewBuilder(solverName).WithPuzzle(p)

	switch solverName {
	case "backtracking":
		engine := solver.NewBacktracking(p)
		solved := engine.Solve(nil)
		builder.WithMetrics(engine.Metrics()).WithSolution(solved, engine.Solution())

	case "cultural":
		opts := solver.DefaultCulturalOptions()
		opts.Seed = seed
		engine := solver.NewCultural(p, opts)
		solved := engine.Solve(nil)
		builder.WithSeed(seed).
			WithCulturalOptions(opts).
			WithMetrics(engine.Metrics()).
			WithSolution(solved, engine.Solution())
	}

	return builder.Build()
}

func printSweep(sweep *results.SweepResults, top int) {
	fmt.Printf("\n=== Sweep results (%d runs) ===\n\n", sweep.Summary.TotalVariants)

	fmt.Printf("%-5s %-14s %-10s %-6s %-11s %-12s %-8s %s\n",
		"Rank", "Solver", "Seed", "Found", "Iterations", "Generations", "Fitness", "Time")
	shown := sweep.Variants
	if len(shown) > top {
		shown = shown[:top]
	}
	for _, v := range shown {
		seedStr := "-"
		if v.Seed != 0 {
			seedStr = strconv.FormatInt(v.Seed, 10)
		}
		found := "no"
		if v.Metrics.Found {
			found = "yes"
		}
		fmt.Printf("%-5d %-14s %-10s %-6s %-11d %-12d %-8d %.3fs\n",
			v.Rank, v.Solver, seedStr, found,
			v.Metrics.Iterations, v.Metrics.Generations, v.Metrics.BestFitness,
			v.Metrics.ComputeTime)
	}
	if len(sweep.Variants) > top {
		fmt.Printf("... and %d more\n", len(sweep.Variants)-top)
	}

	fmt.Printf("\nSolved %d/%d runs\n", sweep.Summary.SuccessCount, sweep.Summary.TotalVariants)

	names := make([]string, 0, len(sweep.BySolver))
	for name := range sweep.BySolver {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nBy solver:")
	for _, name := range names {
		agg := sweep.BySolver[name]
		fmt.Printf("  %-14s %d/%d solved (%.0f%%), avg %.3fs, best %.3fs\n",
			name, agg.Solved, agg.Runs, agg.SolveRate*100, agg.AvgTime, agg.BestTime)
	}
}

func writeSweepJSON(sweep *results.SweepResults, filename string) error {
	data, err := json.MarshalIndent(sweep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sweep results: %w", err)
	}
	return os.WriteFile(filename, data, 0644)
}
