// Package cache memoizes solve results keyed by a fingerprint of the
// starting grid. Repeated solves of the same position, common in server
// sessions and benchmark sweeps, short-circuit to the stored result.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"github.com/holiman/uint256"

	"github.com/sudoku-xyz/go-sudoku/solver"
	"github.com/sudoku-xyz/go-sudoku/sudoku"
)

// Fingerprint condenses a grid into a 256-bit value: the SHA-256 of the
// size-prefixed cell stream. The size prefix keeps an empty 4x4 from
// colliding with the corner of an empty 9x9.
func Fingerprint(g sudoku.Grid) *uint256.Int {
	h := sha256.New()
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(len(g)))
	h.Write(buf)
	for _, row := range g {
		for _, v := range row {
			binary.BigEndian.PutUint64(buf, uint64(v))
			h.Write(buf)
		}
	}
	return new(uint256.Int).SetBytes(h.Sum(nil))
}

// Entry pairs a result grid with the metrics of the run that produced it.
// Exhausted results are worth caching too: unsolvability is deterministic
// for the exact solver. Cancelled runs should not be stored.
type Entry struct {
	Solution sudoku.Grid
	Metrics  solver.Metrics
}

// SolutionCache is a thread-safe fingerprint-to-result map with optional
// FIFO eviction.
type SolutionCache struct {
	mu        sync.Mutex
	entries   map[string]Entry
	order     []string
	maxSize   int
	hits      int64
	misses    int64
	evictions int64
}

// NewSolutionCache creates a cache holding at most maxSize entries; the
// oldest entry is evicted when the cache is full. maxSize 0 means unlimited.
func NewSolutionCache(maxSize int) *SolutionCache {
	return &SolutionCache{
		entries: make(map[string]Entry),
		maxSize: maxSize,
	}
}

// Get returns the stored entry for grid g. The returned solution is a copy;
// mutating it cannot corrupt the cache.
func (c *SolutionCache) Get(g sudoku.Grid) (Entry, bool) {
	key := Fingerprint(g).Hex()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return Entry{}, false
	}
	c.hits++
	e.Solution = e.Solution.Clone()
	return e, true
}

// Put stores e for grid g, cloning the solution so later caller mutations
// stay outside the cache. Storing an existing key refreshes the entry
// without extending its eviction order.
func (c *SolutionCache) Put(g sudoku.Grid, e Entry) {
	key := Fingerprint(g).Hex()
	e.Solution = e.Solution.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		if c.maxSize > 0 && len(c.entries) >= c.maxSize {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
			c.evictions++
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = e
}

// GetOrCompute returns the cached entry for g, or runs compute and stores
// its result. compute runs outside the cache lock; concurrent callers may
// both compute, with the later Put winning.
func (c *SolutionCache) GetOrCompute(g sudoku.Grid, compute func() Entry) Entry {
	if e, ok := c.Get(g); ok {
		return e
	}
	e := compute()
	c.Put(g, e)
	return e
}

// Clear removes all entries. Counters are kept.
func (c *SolutionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
	c.order = nil
}

// Size returns the current number of cached entries.
func (c *SolutionCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats describes cache effectiveness.
type Stats struct {
	Size      int     `json:"size"`
	MaxSize   int     `json:"max_size"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
}

// Stats returns a snapshot of the cache counters.
func (c *SolutionCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return Stats{
		Size:      len(c.entries),
		MaxSize:   c.maxSize,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		HitRate:   hitRate,
	}
}
