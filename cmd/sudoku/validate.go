package main

import (
	"flag"
	"fmt"
	"os"
)

func validate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	gf := addGridFlags(fs)
	quiet := fs.Bool("quiet", false, "Suppress grid printout")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sudoku validate [options]

Check a grid for structural errors, rule conflicts and completeness.
Exits nonzero when the grid is malformed or conflicted.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  sudoku validate -file puzzle.json
  sudoku validate -grid '[[1,2],[2,1]]'
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := gf.load()
	if err != nil {
		return err
	}

	if !*quiet {
		printPuzzle(p)
		fmt.Println()
	}

	givens := p.Size()*p.Size() - p.CountEmpty()
	fmt.Printf("Grid: %dx%d (boxes %dx%d), %d givens, %d empty\n",
		p.Size(), p.Size(), p.BoxSize(), p.BoxSize(), givens, p.CountEmpty())

	conflicts := p.Conflicts()
	switch {
	case p.IsSolved():
		fmt.Println("Status: solved (complete and conflict-free)")
	case p.IsValid():
		fmt.Println("Status: valid (no conflicts, cells still empty)")
	default:
		fmt.Printf("Status: invalid (%d conflicts)\n", conflicts)
	}

	if conflicts > 0 {
		return fmt.Errorf("grid has %d conflicts", conflicts)
	}
	return nil
}
