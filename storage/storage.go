// Package storage provides SQLite-based persistence for puzzles and solver runs.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sudoku-xyz/go-sudoku/sudoku"
)

// Store handles SQLite database operations for puzzle and run records.
type Store struct {
	db *sql.DB
}

// PuzzleRecord represents a stored puzzle.
type PuzzleRecord struct {
	ID         string      `json:"id"`
	Size       int         `json:"size"`
	BoxSize    int         `json:"box_size"`
	Givens     int         `json:"givens"`
	Difficulty string      `json:"difficulty,omitempty"`
	Grid       sudoku.Grid `json:"grid"`
	CreatedAt  time.Time   `json:"created_at"`
}

// RunRecord represents a completed solver run.
type RunRecord struct {
	ID          string      `json:"id"`
	PuzzleID    string      `json:"puzzle_id"`
	Solver      string      `json:"solver"`
	Status      string      `json:"status"`
	Seed        int64       `json:"seed,omitempty"`
	Iterations  int         `json:"iterations"`
	Backtracks  int         `json:"backtracks"`
	Generations int         `json:"generations"`
	BestFitness int         `json:"best_fitness"`
	ComputeTime float64     `json:"compute_time"` // seconds
	Solution    sudoku.Grid `json:"solution,omitempty"`
	StartedAt   time.Time   `json:"started_at"`
	FinishedAt  *time.Time  `json:"finished_at,omitempty"`
}

// SolverStats aggregates run outcomes per solver.
type SolverStats struct {
	Solver         string  `json:"solver"`
	Runs           int     `json:"runs"`
	Solved         int     `json:"solved"`
	SolveRate      float64 `json:"solve_rate"`
	AvgIterations  float64 `json:"avg_iterations"`
	AvgGenerations float64 `json:"avg_generations"`
	AvgComputeTime float64 `json:"avg_compute_time"` // seconds
}

// New creates a new Store with the given database path.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS puzzles (
		id TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		box_size INTEGER NOT NULL,
		givens INTEGER NOT NULL,
		difficulty TEXT,
		grid TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		puzzle_id TEXT NOT NULL,
		solver TEXT NOT NULL,
		status TEXT NOT NULL,
		seed INTEGER DEFAULT 0,
		iterations INTEGER DEFAULT 0,
		backtracks INTEGER DEFAULT 0,
		generations INTEGER DEFAULT 0,
		best_fitness INTEGER DEFAULT 0,
		compute_time REAL DEFAULT 0,
		solution TEXT,
		started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		finished_at DATETIME,
		FOREIGN KEY (puzzle_id) REFERENCES puzzles(id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_puzzle ON runs(puzzle_id);
	CREATE INDEX IF NOT EXISTS idx_runs_solver ON runs(solver);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_puzzles_size ON puzzles(size);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for custom queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SavePuzzle stores a puzzle record. The grid is serialized as JSON.
func (s *Store) SavePuzzle(p *PuzzleRecord) error {
	grid, err := json.Marshal(p.Grid)
	if err != nil {
		return fmt.Errorf("marshal grid: %w", err)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err = s.db.Exec(
		`INSERT INTO puzzles (id, size, box_size, givens, difficulty, grid, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Size, p.BoxSize, p.Givens, p.Difficulty, string(grid), p.CreatedAt,
	)
	return err
}

// GetPuzzle retrieves a puzzle by ID.
func (s *Store) GetPuzzle(id string) (*PuzzleRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, size, box_size, givens, difficulty, grid, created_at
		 FROM puzzles WHERE id = ?`, id,
	)
	return scanPuzzle(row.Scan)
}

// ListPuzzles returns the most recently created puzzles.
func (s *Store) ListPuzzles(limit int) ([]*PuzzleRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, size, box_size, givens, difficulty, grid, created_at
		 FROM puzzles ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var puzzles []*PuzzleRecord
	for rows.Next() {
		p, err := scanPuzzle(rows.Scan)
		if err != nil {
			return nil, err
		}
		puzzles = append(puzzles, p)
	}
	return puzzles, rows.Err()
}

// SaveRun stores a completed run record. The solution grid, when present,
// is serialized as JSON.
func (s *Store) SaveRun(r *RunRecord) error {
	var solution sql.NullString
	if r.Solution != nil {
		data, err := json.Marshal(r.Solution)
		if err != nil {
			return fmt.Errorf("marshal solution: %w", err)
		}
		solution = sql.NullString{String: string(data), Valid: true}
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}
	var finished sql.NullTime
	if r.FinishedAt != nil {
		finished = sql.NullTime{Time: *r.FinishedAt, Valid: true}
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (id, puzzle_id, solver, status, seed, iterations,
		 backtracks, generations, best_fitness, compute_time, solution,
		 started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.PuzzleID, r.Solver, r.Status, r.Seed, r.Iterations,
		r.Backtracks, r.Generations, r.BestFitness, r.ComputeTime, solution,
		r.StartedAt, finished,
	)
	return err
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(id string) (*RunRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, puzzle_id, solver, status, seed, iterations, backtracks,
		 generations, best_fitness, compute_time, solution, started_at, finished_at
		 FROM runs WHERE id = ?`, id,
	)
	return scanRun(row.Scan)
}

// ListRuns retrieves all runs for a puzzle in start order.
func (s *Store) ListRuns(puzzleID string) ([]*RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, puzzle_id, solver, status, seed, iterations, backtracks,
		 generations, best_fitness, compute_time, solution, started_at, finished_at
		 FROM runs WHERE puzzle_id = ? ORDER BY started_at`, puzzleID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRuns(rows)
}

// RecentRuns returns the most recently started runs across all puzzles.
func (s *Store) RecentRuns(limit int) ([]*RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, puzzle_id, solver, status, seed, iterations, backtracks,
		 generations, best_fitness, compute_time, solution, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRuns(rows)
}

// Stats returns aggregated outcomes per solver.
func (s *Store) Stats() ([]*SolverStats, error) {
	rows, err := s.db.Query(
		`SELECT solver,
		 COUNT(*) as runs,
		 SUM(CASE WHEN status = 'solved' THEN 1 ELSE 0 END) as solved,
		 AVG(iterations) as avg_iterations,
		 AVG(generations) as avg_generations,
		 AVG(compute_time) as avg_compute_time
		 FROM runs GROUP BY solver ORDER BY solver`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []*SolverStats
	for rows.Next() {
		var st SolverStats
		err := rows.Scan(&st.Solver, &st.Runs, &st.Solved,
			&st.AvgIterations, &st.AvgGenerations, &st.AvgComputeTime)
		if err != nil {
			return nil, err
		}
		if st.Runs > 0 {
			st.SolveRate = float64(st.Solved) / float64(st.Runs)
		}
		stats = append(stats, &st)
	}
	return stats, rows.Err()
}

// ExportPuzzleJSON exports a puzzle and its runs as JSON.
func (s *Store) ExportPuzzleJSON(puzzleID string) ([]byte, error) {
	puzzle, err := s.GetPuzzle(puzzleID)
	if err != nil {
		return nil, err
	}

	runs, err := s.ListRuns(puzzleID)
	if err != nil {
		return nil, err
	}

	export := map[string]any{
		"puzzle": puzzle,
		"runs":   runs,
	}

	return json.MarshalIndent(export, "", "  ")
}

// scanPuzzle reads one puzzle row via the given scan function.
func scanPuzzle(scan func(...any) error) (*PuzzleRecord, error) {
	var p PuzzleRecord
	var difficulty sql.NullString
	var grid string
	err := scan(&p.ID, &p.Size, &p.BoxSize, &p.Givens, &difficulty, &grid, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if difficulty.Valid {
		p.Difficulty = difficulty.String
	}
	if err := json.Unmarshal([]byte(grid), &p.Grid); err != nil {
		return nil, fmt.Errorf("unmarshal grid: %w", err)
	}
	return &p, nil
}

// scanRun reads one run row via the given scan function.
func scanRun(scan func(...any) error) (*RunRecord, error) {
	var r RunRecord
	var solution sql.NullString
	var finished sql.NullTime
	err := scan(&r.ID, &r.PuzzleID, &r.Solver, &r.Status, &r.Seed,
		&r.Iterations, &r.Backtracks, &r.Generations, &r.BestFitness,
		&r.ComputeTime, &solution, &r.StartedAt, &finished)
	if err != nil {
		return nil, err
	}
	if solution.Valid {
		if err := json.Unmarshal([]byte(solution.String), &r.Solution); err != nil {
			return nil, fmt.Errorf("unmarshal solution: %w", err)
		}
	}
	if finished.Valid {
		r.FinishedAt = &finished.Time
	}
	return &r, nil
}

func collectRuns(rows *sql.Rows) ([]*RunRecord, error) {
	var runs []*RunRecord
	for rows.Next() {
		r, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
