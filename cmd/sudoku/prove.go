package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sudoku-xyz/go-sudoku/prover"
	"github.com/sudoku-xyz/go-sudoku/solver"
	"github.com/sudoku-xyz/go-sudoku/sudoku"
)

func prove(args []string) error {
	fs := flag.NewFlagSet("prove", flag.ExitOnError)
	gf := addGridFlags(fs)
	solutionFile := fs.String("solution", "", "JSON file holding the solution grid")
	solve := fs.Bool("solve", false, "Solve the puzzle first and prove that solution")
	curveName := fs.String("curve", "bn254", "Proving curve (bn254, bls12-377, bls12-381)")
	keysDir := fs.String("keys", "", "Directory for cached proving/verifying keys")
	out := fs.String("out", "", "Write the proof JSON to this file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sudoku prove [options]

Produce a Groth16 proof that the puzzle has a valid solution, without
revealing the solution. The puzzle's givens are the public inputs; the
solution stays private.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Solve and prove in one step
  sudoku prove -file puzzle.json -solve -out proof.json

  # Prove a known solution
  sudoku prove -file puzzle.json -solution solution.json

  # Reuse keys across invocations (setup for 9x9 takes a while)
  sudoku prove -sample -solve -keys ./keys
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := gf.load()
	if err != nil {
		return err
	}

	solution, err := proofSolution(p, *solutionFile, *solve)
	if err != nil {
		return err
	}

	curve, err := prover.ParseCurve(*curveName)
	if err != nil {
		return err
	}
	pr := prover.NewProverOn(curve)

	size := p.Size()
	if *keysDir != "" {
		dir := filepath.Join(*keysDir, fmt.Sprintf("%dx%d-%s", size, size, prover.CurveName(curve)))
		if cc, err := prover.LoadFrom(dir, curve); err == nil {
			pr.AddCircuit(size, cc)
			fmt.Fprintf(os.Stderr, "Loaded keys from %s\n", dir)
		} else {
			fmt.Fprintf(os.Stderr, "Compiling circuit and generating keys (cached to %s)\n", dir)
			start := time.Now()
			cc, err := pr.EnsureCircuit(size)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Setup: %d constraints in %s\n", cc.Constraints, time.Since(start).Round(time.Millisecond))
			if err := cc.SaveTo(dir); err != nil {
				return fmt.Errorf("save keys: %w", err)
			}
		}
	} else {
		fmt.Fprintf(os.Stderr, "Compiling circuit (use -keys to cache the setup)\n")
		start := time.Now()
		cc, err := pr.EnsureCircuit(size)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Setup: %d constraints in %s\n", cc.Constraints, time.Since(start).Round(time.Millisecond))
	}

	res, err := pr.Prove(p, solution)
	if err != nil {
		return fmt.Errorf("prove: %w", err)
	}

	fmt.Printf("Proof generated (%s, %d constraints, %.3fs)\n", res.Curve, res.Constraints, res.ProveTime)
	fmt.Printf("Public inputs: %d givens\n", len(res.PublicInputs))

	if err := pr.Verify(res, p); err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	fmt.Println("Proof verified against the public puzzle")

	if *out != "" {
		if err := prover.WriteProof(res, *out); err != nil {
			return fmt.Errorf("write proof: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Proof: %s\n", *out)
	}

	return nil
}

// proofSolution obtains the private witness, either from a file or by
// solving the puzzle.
func proofSolution(p *sudoku.Puzzle, solutionFile string, solve bool) (sudoku.Grid, error) {
	switch {
	case solutionFile != "" && solve:
		return nil, fmt.Errorf("use either -solution or -solve, not both")

	case solutionFile != "":
		data, err := os.ReadFile(solutionFile)
		if err != nil {
			return nil, fmt.Errorf("read solution: %w", err)
		}
		return parseGridJSON(data)

	case solve:
		engine := solver.NewBacktracking(p)
		if !engine.Solve(nil) {
			return nil, fmt.Errorf("puzzle has no solution, nothing to prove")
		}
		m := engine.Metrics()
		fmt.Fprintf(os.Stderr, "Solved in %s (%d iterations)\n", m.Duration.Round(time.Microsecond), m.Iterations)
		return engine.Solution(), nil

	default:
		return nil, fmt.Errorf("no solution given (use -solution or -solve)")
	}
}
