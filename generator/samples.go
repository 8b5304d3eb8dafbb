package generator

import "github.com/sudoku-xyz/go-sudoku/sudoku"

// Sample4x4 returns a small demonstration puzzle. Each call builds a fresh
// instance, so callers may solve or mutate it freely.
func Sample4x4() *sudoku.Puzzle {
	return mustPuzzle(sudoku.Grid{
		{1, 0, 0, 2},
		{0, 2, 1, 0},
		{0, 1, 2, 0},
		{2, 0, 0, 1},
	})
}

// Sample9x9 returns the classic introductory puzzle used throughout the
// documentation and the CLI demos.
func Sample9x9() *sudoku.Puzzle {
	return mustPuzzle(sudoku.Grid{
		{5, 3, 0, 0, 7, 0, 0, 0, 0},
		{6, 0, 0, 1, 9, 5, 0, 0, 0},
		{0, 9, 8, 0, 0, 0, 0, 6, 0},
		{8, 0, 0, 0, 6, 0, 0, 0, 3},
		{4, 0, 0, 8, 0, 3, 0, 0, 1},
		{7, 0, 0, 0, 2, 0, 0, 0, 6},
		{0, 6, 0, 0, 0, 0, 2, 8, 0},
		{0, 0, 0, 4, 1, 9, 0, 0, 5},
		{0, 0, 0, 0, 8, 0, 0, 7, 9},
	})
}

func mustPuzzle(g sudoku.Grid) *sudoku.Puzzle {
	p, err := sudoku.New(g)
	if err != nil {
		panic(err)
	}
	return p
}
