// Package results defines the structured output format for solver runs
package results

import (
	"time"

	"github.com/sudoku-xyz/go-sudoku/sudoku"
)

const SchemaVersion = "1.0.0"

// Results contains complete solver run output
type Results struct {
	Version  string    `json:"version"`
	Metadata Metadata  `json:"metadata"`
	Puzzle   Puzzle    `json:"puzzle"`
	Run      Run       `json:"run"`
	Solution Solution  `json:"solution"`
	Analysis *Analysis `json:"analysis,omitempty"`
}

// Metadata contains run execution information
type Metadata struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Solver      string    `json:"solver"`
	Status      string    `json:"status"` // solved, exhausted, no_convergence, cancelled, error
	Error       string    `json:"error,omitempty"`
	ComputeTime float64   `json:"computeTime"` // seconds
}

// Puzzle summarizes the input grid
type Puzzle struct {
	Size    int         `json:"size"`
	BoxSize int         `json:"boxSize"`
	Givens  int         `json:"givens"`
	Grid    sudoku.Grid `json:"grid"`
}

// Run contains the solver parameters used
type Run struct {
	Seed           int64   `json:"seed,omitempty"`
	PopulationSize int     `json:"populationSize,omitempty"`
	MaxGenerations int     `json:"maxGenerations,omitempty"`
	MutationRate   float64 `json:"mutationRate,omitempty"`
}

// Solution contains the solver output. Grid holds the solved grid when Found,
// otherwise the best candidate the solver reached.
type Solution struct {
	Found       bool        `json:"found"`
	Grid        sudoku.Grid `json:"grid,omitempty"`
	Iterations  int         `json:"iterations"`
	Backtracks  int         `json:"backtracks"`
	Generations int         `json:"generations,omitempty"`
	BestFitness int         `json:"bestFitness,omitempty"`
}

// Analysis contains automatically computed insights from a recorded run
type Analysis struct {
	BranchFactor float64    `json:"branchFactor,omitempty"` // attempts per placement
	RejectRate   float64    `json:"rejectRate,omitempty"`   // rejected share of attempts
	MaxDepth     int        `json:"maxDepth,omitempty"`     // deepest placement stack
	HardestCells []CellStat `json:"hardestCells,omitempty"`
	Fitness      *Stat      `json:"fitness,omitempty"`
	FitnessCurve []int      `json:"fitnessCurve,omitempty"` // best fitness per generation
}

// CellStat counts how often the search retreated from a cell
type CellStat struct {
	Row        int `json:"row"`
	Col        int `json:"col"`
	Backtracks int `json:"backtracks"`
}

// Stat contains statistical summary
type Stat struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
}
