package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sudoku-xyz/go-sudoku/sudoku"
)

// samplePuzzle is a 4x4 grid with a unique solution, handy for demos.
var samplePuzzle = [][]int{
	{1, 0, 0, 4},
	{0, 0, 1, 0},
	{0, 1, 0, 0},
	{4, 0, 0, 1},
}

// gridFlags holds the standard puzzle input flags shared by subcommands.
type gridFlags struct {
	grid   *string
	file   *string
	sample *bool
}

func addGridFlags(fs *flag.FlagSet) *gridFlags {
	return &gridFlags{
		grid:   fs.String("grid", "", "Puzzle as JSON rows, e.g. '[[1,0],[0,2]]'"),
		file:   fs.String("file", "", "File containing the puzzle as JSON rows"),
		sample: fs.Bool("sample", false, "Use the built-in 4x4 sample puzzle"),
	}
}

// load builds the puzzle the flags describe.
func (g *gridFlags) load() (*sudoku.Puzzle, error) {
	switch {
	case *g.sample:
		return sudoku.New(samplePuzzle)
	case *g.grid != "":
		return parseGrid([]byte(*g.grid))
	case *g.file != "":
		data, err := os.ReadFile(*g.file)
		if err != nil {
			return nil, fmt.Errorf("read puzzle: %w", err)
		}
		return parseGrid(data)
	default:
		return nil, fmt.Errorf("no puzzle given (use -grid, -file or -sample)")
	}
}

func parseGrid(data []byte) (*sudoku.Puzzle, error) {
	var rows [][]int
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse grid JSON: %w", err)
	}
	return sudoku.New(rows)
}

// parseGridJSON decodes a bare grid without puzzle validation, for
// solution inputs.
func parseGridJSON(data []byte) (sudoku.Grid, error) {
	var rows [][]int
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse grid JSON: %w", err)
	}
	return sudoku.Grid(rows), nil
}

// formatGrid renders a grid with rules between boxes. Zeroes print as dots.
func formatGrid(g sudoku.Grid, boxSize int) string {
	size := len(g)
	width := len(strconv.Itoa(size))

	var sb strings.Builder
	for row := 0; row < size; row++ {
		if row > 0 && row%boxSize == 0 {
			for col := 0; col < size; col++ {
				if col > 0 && col%boxSize == 0 {
					sb.WriteString("┼─")
				}
				sb.WriteString(strings.Repeat("─", width))
				if col < size-1 {
					sb.WriteString("─")
				}
			}
			sb.WriteString("\n")
		}
		for col := 0; col < size; col++ {
			if col > 0 && col%boxSize == 0 {
				sb.WriteString("│ ")
			}
			if v := g[row][col]; v == 0 {
				sb.WriteString(fmt.Sprintf("%*s", width, "."))
			} else {
				sb.WriteString(fmt.Sprintf("%*d", width, v))
			}
			if col < size-1 {
				sb.WriteString(" ")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func printPuzzle(p *sudoku.Puzzle) {
	fmt.Print(formatGrid(p.GridCopy(), p.BoxSize()))
}

// writeGridJSON writes a grid as indented JSON rows.
func writeGridJSON(g sudoku.Grid, filename string) error {
	data, err := json.MarshalIndent(g, "", " ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(filename, data, 0644)
}
