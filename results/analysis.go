package results

import (
	"math"
	"sort"

	"github.com/sudoku-xyz/go-sudoku/eventlog"
)

// Analyzer computes insights from a recorded solver run
type Analyzer struct {
	trace *eventlog.Trace
}

// NewAnalyzer creates an analyzer for a recorded trace
func NewAnalyzer(trace *eventlog.Trace) *Analyzer {
	return &Analyzer{trace: trace}
}

// ComputeAll runs all analysis functions
func (a *Analyzer) ComputeAll() *Analysis {
	analysis := &Analysis{}

	counts := a.trace.Counts()
	attempts := counts["attempt"]
	places := counts["place"]
	rejects := counts["reject"]

	if places > 0 {
		analysis.BranchFactor = float64(attempts) / float64(places)
	}
	if attempts > 0 {
		analysis.RejectRate = float64(rejects) / float64(attempts)
	}

	analysis.MaxDepth = a.maxDepth()
	analysis.HardestCells = a.hardestCells(10)
	analysis.FitnessCurve = a.fitnessCurve()

	if len(analysis.FitnessCurve) > 0 {
		data := make([]float64, len(analysis.FitnessCurve))
		for i, f := range analysis.FitnessCurve {
			data[i] = float64(f)
		}
		stat := a.computeStats(data)
		analysis.Fitness = &stat
	}

	return analysis
}

// maxDepth tracks the deepest placement stack the search reached
func (a *Analyzer) maxDepth() int {
	depth := 0
	max := 0

	for _, e := range a.trace.Events {
		switch e.Type {
		case "place":
			depth++
			if depth > max {
				max = depth
			}
		case "backtrack":
			depth--
		}
	}

	return max
}

// hardestCells ranks cells by how often the search retreated from them
func (a *Analyzer) hardestCells(limit int) []CellStat {
	type cell struct{ row, col int }
	counts := make(map[cell]int)

	for _, e := range a.trace.Events {
		if e.Type == "backtrack" {
			counts[cell{e.Row, e.Col}]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	cells := make([]CellStat, 0, len(counts))
	for c, n := range counts {
		cells = append(cells, CellStat{Row: c.row, Col: c.col, Backtracks: n})
	}

	// Most backtracked first, ties broken by position
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Backtracks != cells[j].Backtracks {
			return cells[i].Backtracks > cells[j].Backtracks
		}
		if cells[i].Row != cells[j].Row {
			return cells[i].Row < cells[j].Row
		}
		return cells[i].Col < cells[j].Col
	})

	if len(cells) > limit {
		cells = cells[:limit]
	}
	return cells
}

// fitnessCurve collects best fitness per generation in run order
func (a *Analyzer) fitnessCurve() []int {
	var curve []int
	for _, e := range a.trace.Events {
		if e.Type == eventlog.GenerationEvent {
			curve = append(curve, e.Fitness)
		}
	}
	return curve
}

// computeStats calculates statistical summary
func (a *Analyzer) computeStats(data []float64) Stat {
	if len(data) == 0 {
		return Stat{}
	}

	// Min and max
	min := data[0]
	max := data[0]
	sum := 0.0

	for _, v := range data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}

	mean := sum / float64(len(data))

	// Standard deviation
	sumSq := 0.0
	for _, v := range data {
		diff := v - mean
		sumSq += diff * diff
	}
	std := math.Sqrt(sumSq / float64(len(data)))

	// Median
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	var median float64
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		median = sorted[mid]
	}

	return Stat{
		Min:    min,
		Max:    max,
		Mean:   mean,
		Median: median,
		Std:    std,
	}
}
