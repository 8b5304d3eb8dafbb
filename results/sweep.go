package results

import (
	"fmt"
	"math"
	"sort"
)

// SweepResults contains results from a benchmark sweep, many runs of the
// same puzzle under different solvers or seeds.
type SweepResults struct {
	Version   string                     `json:"version"`
	Puzzle    Puzzle                     `json:"puzzle"`
	Objective string                     `json:"objective"`
	Variants  []VariantResult            `json:"variants"`
	Best      *VariantResult             `json:"best"`
	Worst     *VariantResult             `json:"worst"`
	Summary   SweepSummary               `json:"summary"`
	BySolver  map[string]SolverAggregate `json:"bySolver,omitempty"`
}

// VariantResult contains results for one run configuration
type VariantResult struct {
	ID          int     `json:"id"`
	Solver      string  `json:"solver"`
	Seed        int64   `json:"seed,omitempty"`
	Metrics     Metrics `json:"metrics"`
	Score       float64 `json:"score"`
	Rank        int     `json:"rank"`
	ResultsFile string  `json:"resultsFile,omitempty"`
}

// Metrics contains key numbers extracted from one run
type Metrics struct {
	Found       bool    `json:"found"`
	Iterations  int     `json:"iterations"`
	Backtracks  int     `json:"backtracks"`
	Generations int     `json:"generations,omitempty"`
	BestFitness int     `json:"bestFitness,omitempty"`
	ComputeTime float64 `json:"computeTime"`
}

// SweepSummary provides overview of sweep
type SweepSummary struct {
	TotalVariants int     `json:"totalVariants"`
	SuccessCount  int     `json:"successCount"`
	FailureCount  int     `json:"failureCount"`
	BestScore     float64 `json:"bestScore"`
	WorstScore    float64 `json:"worstScore"`
	ScoreRange    float64 `json:"scoreRange"`
}

// SolverAggregate summarizes all runs of one solver within a sweep
type SolverAggregate struct {
	Runs           int     `json:"runs"`
	Solved         int     `json:"solved"`
	SolveRate      float64 `json:"solveRate"`
	AvgTime        float64 `json:"avgTime"`
	AvgIterations  float64 `json:"avgIterations,omitempty"`
	AvgGenerations float64 `json:"avgGenerations,omitempty"`
	BestTime       float64 `json:"bestTime"`
}

// ObjectiveFunc evaluates how good a run is (lower is better)
type ObjectiveFunc func(*Results) (float64, error)

// Objectives maps objective names to evaluation functions
var Objectives = map[string]ObjectiveFunc{
	"fastest": func(r *Results) (float64, error) {
		if !r.Solution.Found {
			return 0, fmt.Errorf("run did not solve the puzzle")
		}
		return r.Metadata.ComputeTime, nil
	},

	"fewest_iterations": func(r *Results) (float64, error) {
		if !r.Solution.Found {
			return 0, fmt.Errorf("run did not solve the puzzle")
		}
		return float64(r.Solution.Iterations), nil
	},

	"fewest_generations": func(r *Results) (float64, error) {
		if !r.Solution.Found {
			return 0, fmt.Errorf("run did not solve the puzzle")
		}
		return float64(r.Solution.Generations), nil
	},

	// best_fitness ranks evolutionary runs by how close they got, so
	// unsolved runs still compare meaningfully. Solved runs score zero.
	"best_fitness": func(r *Results) (float64, error) {
		if r.Solution.Found {
			return 0, nil
		}
		return float64(r.Solution.BestFitness), nil
	},
}

// ExtractMetrics extracts key metrics from run results
func ExtractMetrics(r *Results) Metrics {
	return Metrics{
		Found:       r.Solution.Found,
		Iterations:  r.Solution.Iterations,
		Backtracks:  r.Solution.Backtracks,
		Generations: r.Solution.Generations,
		BestFitness: r.Solution.BestFitness,
		ComputeTime: r.Metadata.ComputeTime,
	}
}

// BuildSweep assembles sweep results from individual runs. Runs the
// objective cannot score count as failures and rank last.
func BuildSweep(objective string, runs []*Results) (*SweepResults, error) {
	fn, ok := Objectives[objective]
	if !ok {
		return nil, fmt.Errorf("unknown objective %q", objective)
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no runs to sweep")
	}

	sweep := &SweepResults{
		Version:   SchemaVersion,
		Puzzle:    runs[0].Puzzle,
		Objective: objective,
		Variants:  make([]VariantResult, 0, len(runs)),
	}

	success := 0
	for i, r := range runs {
		variant := VariantResult{
			ID:      i,
			Solver:  r.Metadata.Solver,
			Seed:    r.Run.Seed,
			Metrics: ExtractMetrics(r),
		}
		score, err := fn(r)
		if err != nil {
			variant.Score = math.MaxFloat64
		} else {
			variant.Score = score
			success++
		}
		sweep.Variants = append(sweep.Variants, variant)
	}

	RankVariants(sweep.Variants)
	sweep.Best = &sweep.Variants[0]
	sweep.Worst = &sweep.Variants[len(sweep.Variants)-1]

	sweep.Summary = SweepSummary{
		TotalVariants: len(sweep.Variants),
		SuccessCount:  success,
		FailureCount:  len(sweep.Variants) - success,
		BestScore:     sweep.Best.Score,
		WorstScore:    sweep.Worst.Score,
		ScoreRange:    sweep.Worst.Score - sweep.Best.Score,
	}
	sweep.BySolver = Aggregate(sweep.Variants)

	return sweep, nil
}

// RankVariants sorts variants by score and assigns ranks
func RankVariants(variants []VariantResult) {
	// Sort by score (ascending - lower is better)
	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i].Score < variants[j].Score
	})

	// Assign ranks
	for i := range variants {
		variants[i].Rank = i + 1
	}
}

// Aggregate groups variants by solver and averages their metrics
func Aggregate(variants []VariantResult) map[string]SolverAggregate {
	agg := make(map[string]SolverAggregate)

	for _, v := range variants {
		a := agg[v.Solver]
		a.Runs++
		if v.Metrics.Found {
			a.Solved++
		}
		a.AvgTime += v.Metrics.ComputeTime
		a.AvgIterations += float64(v.Metrics.Iterations)
		a.AvgGenerations += float64(v.Metrics.Generations)
		if a.Runs == 1 || v.Metrics.ComputeTime < a.BestTime {
			a.BestTime = v.Metrics.ComputeTime
		}
		agg[v.Solver] = a
	}

	for solver, a := range agg {
		n := float64(a.Runs)
		a.SolveRate = float64(a.Solved) / n
		a.AvgTime /= n
		a.AvgIterations /= n
		a.AvgGenerations /= n
		agg[solver] = a
	}

	return agg
}
