package results

import (
	"time"

	"github.com/google/uuid"

	"github.com/sudoku-xyz/go-sudoku/solver"
	"github.com/sudoku-xyz/go-sudoku/sudoku"
)

// Builder helps construct Results from solver output
type Builder struct {
	results Results
}

// NewBuilder creates a new results builder for the named solver
func NewBuilder(solverName string) *Builder {
	return &Builder{
		results: Results{
			Version: SchemaVersion,
			Metadata: Metadata{
				ID:        uuid.NewString(),
				Timestamp: time.Now(),
				Solver:    solverName,
			},
		},
	}
}

// WithPuzzle sets puzzle information
func (b *Builder) WithPuzzle(p *sudoku.Puzzle) *Builder {
	size := p.Size()
	b.results.Puzzle = Puzzle{
		Size:    size,
		BoxSize: p.BoxSize(),
		Givens:  size*size - p.CountEmpty(),
		Grid:    p.GridCopy(),
	}
	return b
}

// WithSeed records the RNG seed the run used
func (b *Builder) WithSeed(seed int64) *Builder {
	b.results.Run.Seed = seed
	return b
}

// WithCulturalOptions records evolutionary parameters
func (b *Builder) WithCulturalOptions(opts *solver.CulturalOptions) *Builder {
	if opts == nil {
		return b
	}
	b.results.Run.PopulationSize = opts.PopulationSize
	b.results.Run.MaxGenerations = opts.MaxGenerations
	b.results.Run.MutationRate = opts.MutationRate
	return b
}

// WithMetrics copies run counters and final status from solver metrics
func (b *Builder) WithMetrics(m solver.Metrics) *Builder {
	b.results.Metadata.Status = string(m.Status)
	b.results.Metadata.ComputeTime = m.Duration.Seconds()
	b.results.Solution.Iterations = m.Iterations
	b.results.Solution.Backtracks = m.Backtracks
	b.results.Solution.Generations = m.Generations
	b.results.Solution.BestFitness = m.BestFitness
	return b
}

// WithSolution records the output grid. For unsolved runs grid may hold the
// best candidate reached; pass nil to omit it.
func (b *Builder) WithSolution(found bool, grid sudoku.Grid) *Builder {
	b.results.Solution.Found = found
	if grid != nil {
		b.results.Solution.Grid = grid.Clone()
	}
	return b
}

// WithAnalysis attaches computed insights
func (b *Builder) WithAnalysis(a *Analysis) *Builder {
	b.results.Analysis = a
	return b
}

// WithError sets error status
func (b *Builder) WithError(err error) *Builder {
	b.results.Metadata.Status = "error"
	b.results.Metadata.Error = err.Error()
	return b
}

// Build returns the constructed Results
func (b *Builder) Build() *Results {
	return &b.results
}
