package solver

import (
	"math/rand"
	"sort"
	"time"

	"github.com/sudoku-xyz/go-sudoku/sudoku"
)

// BeliefSpace is the cultural algorithm's shared knowledge store. It counts,
// per open cell, how often each value appeared in elite individuals. Counts
// only ever grow: knowledge from earlier generations is kept even when the
// population is partially restarted. The counts bias value placement during
// individual construction but never forbid a value outright.
type BeliefSpace struct {
	size   int
	counts [][]map[int]int
}

// newBeliefSpace seeds knowledge from the puzzle itself: each open cell
// starts with the values consistent with the fixed clues alone. A cell whose
// clue neighborhood rules out everything falls back to the full value range
// so construction never dead-ends.
func newBeliefSpace(p *sudoku.Puzzle, fixed [][]bool) *BeliefSpace {
	size := p.Size()
	counts := make([][]map[int]int, size)
	for row := 0; row < size; row++ {
		counts[row] = make([]map[int]int, size)
		for col := 0; col < size; col++ {
			counts[row][col] = make(map[int]int)
			if fixed[row][col] {
				continue
			}
			candidates := p.Candidates(row, col)
			if len(candidates) == 0 {
				for v := 1; v <= size; v++ {
					counts[row][col][v] = 1
				}
				continue
			}
			for _, v := range candidates {
				counts[row][col][v] = 1
			}
		}
	}
	return &BeliefSpace{size: size, counts: counts}
}

// Observe records that value appeared at (row, col) in an elite individual.
func (bs *BeliefSpace) Observe(row, col, value int) {
	bs.counts[row][col][value]++
}

// Weight returns the sampling weight of value at (row, col). Unobserved
// values keep weight 1 so no candidate is ever starved out entirely.
func (bs *BeliefSpace) Weight(row, col, value int) int {
	if n := bs.counts[row][col][value]; n > 0 {
		return n
	}
	return 1
}

// Values returns the values with recorded counts at (row, col), ascending.
func (bs *BeliefSpace) Values(row, col int) []int {
	values := make([]int, 0, len(bs.counts[row][col]))
	for v := range bs.counts[row][col] {
		values = append(values, v)
	}
	sort.Ints(values)
	return values
}

// candidate pairs an individual with its cached conflict count.
type candidate struct {
	puzzle  *sudoku.Puzzle
	fitness int
}

// Cultural solves by evolving a population of complete candidate grids. Each
// individual keeps every row a permutation of that row's missing values, so
// selection pressure only has to fight column and box conflicts. A belief
// space accumulates which values elite individuals place where and steers
// the construction of fresh individuals.
//
// The search is stochastic: a false result means the generation budget ran
// out or the observer cancelled, never that the puzzle is unsolvable.
type Cultural struct {
	original *sudoku.Puzzle
	fixed    [][]bool
	openCols [][]int // per row: non-fixed columns, ascending
	missing  [][]int // per row: values absent from the row's clues, ascending

	opts CulturalOptions
	seed int64
	rng  *rand.Rand

	beliefs    *BeliefSpace
	population []candidate

	best        sudoku.Grid
	bestFitness int
	generations int
	status      Status
	duration    time.Duration
}

// NewCultural prepares a solver for p. Zero-valued option fields fall back
// to DefaultCulturalOptions; a zero Seed is resolved from the clock so every
// run is reproducible once its seed is recorded. The caller's puzzle is
// cloned and never modified.
func NewCultural(p *sudoku.Puzzle, opts *CulturalOptions) *Cultural {
	resolved := opts.withDefaults()
	seed := resolved.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	original := p.Clone()
	fixed := original.FixedMask()
	c := &Cultural{
		original: original,
		fixed:    fixed,
		opts:     resolved,
		seed:     seed,
		rng:      rand.New(rand.NewSource(seed)),
		beliefs:  newBeliefSpace(original, fixed),
	}
	c.openCols, c.missing = rowLayout(original, fixed)
	return c
}

// rowLayout precomputes, per row, the open column indexes and the values not
// claimed by that row's clues. Duplicate clues leave more missing values
// than open columns; the surplus simply goes unused.
func rowLayout(p *sudoku.Puzzle, fixed [][]bool) (openCols, missing [][]int) {
	size := p.Size()
	openCols = make([][]int, size)
	missing = make([][]int, size)
	for row := 0; row < size; row++ {
		present := make([]bool, size+1)
		for col := 0; col < size; col++ {
			if fixed[row][col] {
				present[p.Cell(row, col)] = true
			} else {
				openCols[row] = append(openCols[row], col)
			}
		}
		for v := 1; v <= size; v++ {
			if !present[v] {
				missing[row] = append(missing[row], v)
			}
		}
	}
	return openCols, missing
}

// Solve evolves the population for up to MaxGenerations. The observer, when
// non-nil, runs once per generation with the best-so-far grid and may cancel
// by returning false; the best individual is retained either way. Returns
// true iff a zero-conflict grid was found.
func (c *Cultural) Solve(observer GenerationFunc) bool {
	start := time.Now()
	c.status = StatusRunning
	c.generations = 0
	c.best = nil
	c.bestFitness = 0
	c.initPopulation()

	cancelled := false
	sinceImprovement := 0

	for gen := 1; gen <= c.opts.MaxGenerations; gen++ {
		c.generations = gen
		c.sortPopulation()

		if sinceImprovement >= c.opts.StagnationWindow {
			c.restartWorseHalf()
			c.sortPopulation()
			sinceImprovement = 0
		}

		leader := c.population[0]
		if c.best == nil || leader.fitness < c.bestFitness {
			c.best = leader.puzzle.GridCopy()
			c.bestFitness = leader.fitness
			sinceImprovement = 0
		} else {
			sinceImprovement++
		}

		if observer != nil && !observer(Generation{Index: gen, Best: c.best.Clone(), BestFitness: c.bestFitness}) {
			cancelled = true
			break
		}
		if c.bestFitness == 0 {
			break
		}

		c.updateBeliefs()
		c.breed()
	}

	c.duration = time.Since(start)
	switch {
	case c.best != nil && c.bestFitness == 0:
		c.status = StatusSolved
	case cancelled:
		c.status = StatusCancelled
	default:
		c.status = StatusNoConvergence
	}
	return c.best != nil && c.bestFitness == 0
}

func (c *Cultural) initPopulation() {
	c.population = make([]candidate, c.opts.PopulationSize)
	for i := range c.population {
		p := c.newIndividual()
		c.population[i] = candidate{puzzle: p, fitness: p.Conflicts()}
	}
}

// newIndividual builds a complete grid around the clues: every row gets its
// missing values assigned to its open columns, so rows are conflict-free by
// construction. Placement within the row is weighted by the belief space.
func (c *Cultural) newIndividual() *sudoku.Puzzle {
	p := c.original.Clone()
	for row := 0; row < p.Size(); row++ {
		remaining := append([]int(nil), c.missing[row]...)
		for _, col := range c.openCols[row] {
			v := c.pickValue(row, col, remaining)
			p.Set(row, col, v)
			remaining = removeValue(remaining, v)
		}
	}
	return p
}

// pickValue samples one of values for (row, col), weighted by accumulated
// beliefs. With no accumulated knowledge all weights are equal and the row
// fill degenerates to a uniform random permutation.
func (c *Cultural) pickValue(row, col int, values []int) int {
	if len(values) == 1 {
		return values[0]
	}
	total := 0
	for _, v := range values {
		total += c.beliefs.Weight(row, col, v)
	}
	n := c.rng.Intn(total)
	for _, v := range values {
		n -= c.beliefs.Weight(row, col, v)
		if n < 0 {
			return v
		}
	}
	return values[len(values)-1]
}

func removeValue(values []int, v int) []int {
	for i, x := range values {
		if x == v {
			return append(values[:i], values[i+1:]...)
		}
	}
	return values
}

// sortPopulation orders by fitness, best first. The sort is stable so equal
// fitness preserves insertion order and runs stay reproducible.
func (c *Cultural) sortPopulation() {
	sort.SliceStable(c.population, func(i, j int) bool {
		return c.population[i].fitness < c.population[j].fitness
	})
}

// restartWorseHalf replaces the worse half of the sorted population with
// fresh individuals. The belief space is left intact, so the newcomers are
// already steered by everything learned before the stall.
func (c *Cultural) restartWorseHalf() {
	for i := len(c.population) / 2; i < len(c.population); i++ {
		p := c.newIndividual()
		c.population[i] = candidate{puzzle: p, fitness: p.Conflicts()}
	}
}

// updateBeliefs folds the elite slice of the sorted population into the
// belief space.
func (c *Cultural) updateBeliefs() {
	elite := int(float64(len(c.population)) * c.opts.EliteFrac)
	if elite < 1 {
		elite = 1
	}
	if elite > len(c.population) {
		elite = len(c.population)
	}
	for _, cand := range c.population[:elite] {
		for row := 0; row < c.original.Size(); row++ {
			for _, col := range c.openCols[row] {
				c.beliefs.Observe(row, col, cand.puzzle.Cell(row, col))
			}
		}
	}
}

// breed builds the next generation: the top SurvivorFrac carry over
// unchanged, and the rest are offspring of tournament-selected parents via
// row-wise crossover and swap mutation. Survivors are shared, not copied;
// they are never mutated in place.
func (c *Cultural) breed() {
	survivors := int(float64(len(c.population)) * c.opts.SurvivorFrac)
	if survivors < 2 {
		survivors = 2
	}
	if survivors > len(c.population) {
		survivors = len(c.population)
	}
	next := make([]candidate, 0, len(c.population))
	next = append(next, c.population[:survivors]...)

	for len(next) < len(c.population) {
		a := c.tournament()
		b := c.tournament()
		child := c.crossover(a.puzzle, b.puzzle)
		c.mutate(child)
		next = append(next, candidate{puzzle: child, fitness: child.Conflicts()})
	}
	c.population = next
}

// tournament samples TournamentSize distinct individuals and returns the
// fittest, ties going to the earliest sampled.
func (c *Cultural) tournament() candidate {
	k := c.opts.TournamentSize
	if k < 1 {
		k = 1
	}
	if k > len(c.population) {
		k = len(c.population)
	}
	picks := c.rng.Perm(len(c.population))[:k]
	best := c.population[picks[0]]
	for _, i := range picks[1:] {
		if c.population[i].fitness < best.fitness {
			best = c.population[i]
		}
	}
	return best
}

// crossover copies each row wholesale from one parent or the other. Rows
// stay internally conflict-free because both parents keep the row invariant.
func (c *Cultural) crossover(a, b *sudoku.Puzzle) *sudoku.Puzzle {
	child := c.original.Clone()
	for row := 0; row < child.Size(); row++ {
		parent := a
		if c.rng.Float64() < 0.5 {
			parent = b
		}
		for _, col := range c.openCols[row] {
			child.Set(row, col, parent.Cell(row, col))
		}
	}
	return child
}

// mutate swaps two open cells within a row, per row with MutationRate
// probability. Swapping inside the row preserves the permutation invariant.
func (c *Cultural) mutate(p *sudoku.Puzzle) {
	for row := 0; row < p.Size(); row++ {
		open := c.openCols[row]
		if len(open) < 2 {
			continue
		}
		if c.rng.Float64() >= c.opts.MutationRate {
			continue
		}
		i := c.rng.Intn(len(open))
		j := c.rng.Intn(len(open) - 1)
		if j >= i {
			j++
		}
		vi, vj := p.Cell(row, open[i]), p.Cell(row, open[j])
		p.Set(row, open[i], vj)
		p.Set(row, open[j], vi)
	}
}

// Solution returns the best grid seen across the whole run, or the original
// clues if Solve has not produced a generation yet.
func (c *Cultural) Solution() sudoku.Grid {
	if c.best == nil {
		return c.original.GridCopy()
	}
	return c.best.Clone()
}

// Metrics reports the most recent run. BestFitness 0 together with
// StatusSolved means a perfect grid; any other status leaves BestFitness as
// the distance from one.
func (c *Cultural) Metrics() Metrics {
	return Metrics{
		Algorithm:   "cultural",
		Status:      c.status,
		Generations: c.generations,
		BestFitness: c.bestFitness,
		Duration:    c.duration,
	}
}

// Seed returns the RNG seed in effect for this solver, resolved from the
// clock when the options left it zero. Recording it makes the run
// repeatable.
func (c *Cultural) Seed() int64 { return c.seed }

// Beliefs exposes the belief space for inspection and visualization.
func (c *Cultural) Beliefs() *BeliefSpace { return c.beliefs }
