package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/sudoku-xyz/go-sudoku/cache"
	"github.com/sudoku-xyz/go-sudoku/server"
	"github.com/sudoku-xyz/go-sudoku/storage"
)

func serve(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":8080", "Listen address")
	dbPath := fs.String("db", "", "SQLite database path (default: sudoku.db in current dir)")
	noDb := fs.Bool("no-db", false, "Disable SQLite persistence")
	cacheSize := fs.Int("cache-size", 1024, "Solution cache capacity")
	stepInterval := fs.Int("step-interval", server.DefaultStepInterval, "Send every Nth solver step over WebSocket")
	verbose := fs.Bool("v", false, "Verbose request logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: sudoku serve [options]

Start the HTTP/WebSocket solve server.

Endpoints:
  /ws            WebSocket solve sessions with live step streaming
  /health        Liveness and session counts
  /api/solve     Synchronous solve (POST)
  /api/generate  Puzzle generation (POST)
  /api/puzzles   Stored puzzles (requires persistence)
  /api/runs      Stored solve runs (requires persistence)
  /api/stats     Cache and solver statistics

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  sudoku serve
  sudoku serve -addr :9090 -db runs.db -step-interval 10
  sudoku serve -no-db -v
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	srv := server.NewServer()
	srv.SetVerbose(*verbose)
	srv.SetStepInterval(*stepInterval)
	srv.SetCache(cache.NewSolutionCache(*cacheSize))

	if !*noDb {
		dbFile := *dbPath
		if dbFile == "" {
			dbFile = "sudoku.db"
		}
		if !filepath.IsAbs(dbFile) {
			if absPath, err := filepath.Abs(dbFile); err == nil {
				dbFile = absPath
			}
		}

		store, err := storage.New(dbFile)
		if err != nil {
			log.Printf("Warning: failed to initialize SQLite storage: %v", err)
			log.Printf("Persistence disabled. Use -no-db to suppress this warning.")
		} else {
			srv.SetStore(store)
			log.Printf("Persisting puzzles and runs to: %s", dbFile)
			defer store.Close()
		}
	}

	log.Printf("Sudoku server listening on %s", *addr)
	log.Printf("WebSocket endpoint: ws://localhost%s/ws", *addr)
	return http.ListenAndServe(*addr, srv)
}
