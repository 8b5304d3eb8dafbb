package solver

// CulturalOptions contains evolutionary solver configuration parameters.
type CulturalOptions struct {
	PopulationSize   int     // Number of candidate grids per generation
	MaxGenerations   int     // Generation budget before giving up
	MutationRate     float64 // Per-row probability of swapping two open cells
	TournamentSize   int     // Candidates sampled per tournament pick
	EliteFrac        float64 // Fraction of the population folded into the belief space
	SurvivorFrac     float64 // Fraction carried unchanged into the next generation
	StagnationWindow int     // Generations without improvement before a partial restart
	Seed             int64   // RNG seed; 0 seeds from the wall clock
}

// DefaultCulturalOptions returns balanced settings suitable for standard
// 9x9 puzzles with a moderate number of givens.
func DefaultCulturalOptions() *CulturalOptions {
	return &CulturalOptions{
		PopulationSize:   50,
		MaxGenerations:   1000,
		MutationRate:     0.15,
		TournamentSize:   3,
		EliteFrac:        0.20,
		SurvivorFrac:     0.10,
		StagnationWindow: 200,
	}
}

// FastCulturalOptions returns settings optimized for responsiveness over
// solution quality. Use these for interactive demos or when a good-enough
// grid beats waiting for a perfect one.
func FastCulturalOptions() *CulturalOptions {
	return &CulturalOptions{
		PopulationSize:   20,
		MaxGenerations:   200,
		MutationRate:     0.25,
		TournamentSize:   2,
		EliteFrac:        0.20,
		SurvivorFrac:     0.10,
		StagnationWindow: 50,
	}
}

// ThoroughCulturalOptions returns settings for hard, sparse puzzles.
// Use these when the default budget keeps stalling short of a solution;
// expect runs an order of magnitude longer.
func ThoroughCulturalOptions() *CulturalOptions {
	return &CulturalOptions{
		PopulationSize:   200,
		MaxGenerations:   5000,
		MutationRate:     0.15,
		TournamentSize:   3,
		EliteFrac:        0.20,
		SurvivorFrac:     0.10,
		StagnationWindow: 400,
	}
}

// withDefaults fills zero-valued fields from DefaultCulturalOptions so
// callers can set only what they care about. Seed 0 is kept as-is and
// resolved at construction time.
func (o *CulturalOptions) withDefaults() CulturalOptions {
	def := DefaultCulturalOptions()
	out := *def
	if o == nil {
		return out
	}
	out.Seed = o.Seed
	if o.PopulationSize > 0 {
		out.PopulationSize = o.PopulationSize
	}
	if o.MaxGenerations > 0 {
		out.MaxGenerations = o.MaxGenerations
	}
	if o.MutationRate > 0 {
		out.MutationRate = o.MutationRate
	}
	if o.TournamentSize > 0 {
		out.TournamentSize = o.TournamentSize
	}
	if o.EliteFrac > 0 {
		out.EliteFrac = o.EliteFrac
	}
	if o.SurvivorFrac > 0 {
		out.SurvivorFrac = o.SurvivorFrac
	}
	if o.StagnationWindow > 0 {
		out.StagnationWindow = o.StagnationWindow
	}
	return out
}
