package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "solve":
		if err := solve(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "generate":
		if err := generate(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "validate":
		if err := validate(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "bench":
		if err := bench(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "serve":
		if err := serve(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "prove":
		if err := prove(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "events":
		if err := events(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Println("sudoku version 0.1.0")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sudoku - puzzle solving, generation and proving tool

Usage:
  sudoku <command> [options]

Commands:
  solve      Solve a puzzle with backtracking or a cultural algorithm
  generate   Generate a puzzle with a guaranteed solution
  validate   Check a grid for structural errors and conflicts
  bench      Benchmark solvers over repeated runs
  serve      Run the WebSocket/REST solve server
  prove      Produce a zero-knowledge proof that a solution exists
  events     Summarize a recorded event log
  help       Show this help message
  version    Show version information

Examples:
  # Solve the built-in sample puzzle, streaming steps to a log
  sudoku solve -sample -steps steps.jsonl

  # Generate a hard 9x9 puzzle and save it
  sudoku generate -difficulty hard -out puzzle.json

  # Solve a puzzle file with the cultural algorithm
  sudoku solve -file puzzle.json -algorithm cultural -seed 42

  # Compare solvers on a generated puzzle
  sudoku bench -size 9 -count 10 -algorithm backtracking,cultural

  # Start the solve server with persistence
  sudoku serve -addr :8080 -db sudoku.db

  # Prove a solution exists without revealing it
  sudoku prove -file puzzle.json -solve -out proof.json

For command-specific help, run:
  sudoku <command> --help`)
}
