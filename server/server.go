// Package server provides an HTTP/WebSocket solve server
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sudoku-xyz/go-sudoku/cache"
	"github.com/sudoku-xyz/go-sudoku/generator"
	"github.com/sudoku-xyz/go-sudoku/results"
	"github.com/sudoku-xyz/go-sudoku/solver"
	"github.com/sudoku-xyz/go-sudoku/storage"
	"github.com/sudoku-xyz/go-sudoku/sudoku"
)

// DefaultStepInterval is how many backtracking steps pass between streamed
// snapshots when the client does not ask for a rate.
const DefaultStepInterval = 100

// Server handles HTTP and WebSocket connections
type Server struct {
	mu sync.RWMutex

	// Active solve sessions
	sessions map[string]*SolveSession

	// All connected clients
	clients map[*Client]bool

	// WebSocket upgrader
	upgrader websocket.Upgrader

	// Memoized solve results
	cache *cache.SolutionCache

	// SQLite storage for puzzles and runs (optional)
	store *storage.Store

	// Steps between streamed snapshots
	stepInterval int

	// Verbose run lifecycle logging
	verbose bool
}

// SolveSession represents an active solver run
type SolveSession struct {
	ID        string
	PuzzleID  string
	Solver    string
	Seed      int64
	Puzzle    *sudoku.Puzzle
	Runner    *solver.Runner
	Client    *Client
	CreatedAt time.Time
}

// Client represents a connected websocket peer
type Client struct {
	ID       string
	Conn     *websocket.Conn
	Session  *SolveSession
	sendChan chan []byte
	done     chan struct{}
}

// Message types
type MessageType string

const (
	MsgTypeSolve    MessageType = "solve"
	MsgTypeGenerate MessageType = "generate"
	MsgTypePause    MessageType = "pause"
	MsgTypeResume   MessageType = "resume"
	MsgTypeStop     MessageType = "stop"
	MsgTypePing     MessageType = "ping"
	MsgTypeLeave    MessageType = "leave"

	MsgTypePuzzle     MessageType = "puzzle"
	MsgTypeStep       MessageType = "step"
	MsgTypeGeneration MessageType = "generation"
	MsgTypeDone       MessageType = "done"
	MsgTypeError      MessageType = "error"
	MsgTypePong       MessageType = "pong"
)

// Message envelope
type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// SolvePayload starts a solver run. Either Grid or PuzzleID identifies the
// puzzle; PuzzleID needs storage enabled.
type SolvePayload struct {
	Grid         [][]int `json:"grid,omitempty"`
	PuzzleID     string  `json:"puzzle_id,omitempty"`
	Solver       string  `json:"solver,omitempty"` // "backtracking" (default) or "cultural"
	Seed         int64   `json:"seed,omitempty"`
	StepInterval int     `json:"step_interval,omitempty"`
}

// GeneratePayload requests a fresh puzzle
type GeneratePayload struct {
	Size       int    `json:"size,omitempty"` // default 9
	Difficulty string `json:"difficulty,omitempty"`
	EmptyCells int    `json:"empty_cells,omitempty"`
	Seed       int64  `json:"seed,omitempty"`
}

// ErrorPayload for errors
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PuzzlePayload describes a puzzle sent to the client
type PuzzlePayload struct {
	ID      string      `json:"id,omitempty"`
	Size    int         `json:"size"`
	BoxSize int         `json:"box_size"`
	Givens  int         `json:"givens"`
	Grid    sudoku.Grid `json:"grid"`
}

// DonePayload reports a finished run
type DonePayload struct {
	Solved  bool           `json:"solved"`
	Cached  bool           `json:"cached,omitempty"`
	Grid    sudoku.Grid    `json:"grid,omitempty"`
	Metrics solver.Metrics `json:"metrics"`
}

// NewServer creates a new solve server
func NewServer() *Server {
	return &Server{
		sessions: make(map[string]*SolveSession),
		clients:  make(map[*Client]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		cache:        cache.NewSolutionCache(1024),
		stepInterval: DefaultStepInterval,
	}
}

// SetStore sets the SQLite storage for puzzle and run persistence
func (s *Server) SetStore(store *storage.Store) {
	s.store = store
	if store != nil {
		log.Println("SQLite persistence enabled")
	}
}

// SetCache replaces the default solution cache
func (s *Server) SetCache(c *cache.SolutionCache) {
	s.cache = c
}

// SetVerbose enables run lifecycle logging
func (s *Server) SetVerbose(verbose bool) {
	s.verbose = verbose
}

// SetStepInterval sets the default streaming rate for backtracking runs
func (s *Server) SetStepInterval(n int) {
	if n > 0 {
		s.stepInterval = n
	}
}

// GetStore returns the storage instance
func (s *Server) GetStore() *storage.Store {
	return s.store
}

// ServeHTTP handles HTTP requests
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/ws":
		s.handleWebSocket(w, r)
	case "/health":
		s.handleHealth(w, r)
	case "/api/solve":
		s.handleAPISolve(w, r)
	case "/api/generate":
		s.handleAPIGenerate(w, r)
	case "/api/puzzles":
		s.handleAPIPuzzles(w, r)
	case "/api/runs":
		s.handleAPIRuns(w, r)
	case "/api/stats":
		s.handleAPIStats(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	sessions := len(s.sessions)
	clients := len(s.clients)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": sessions,
		"clients":  clients,
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		ID:       uuid.NewString(),
		Conn:     conn,
		sendChan: make(chan []byte, 256),
		done:     make(chan struct{}),
	}

	s.mu.Lock()
	s.clients[client] = true
	s.mu.Unlock()

	log.Printf("Client %s connected", client.ID)

	// Start send goroutine
	go client.writePump()

	// Handle messages
	s.handleClient(client)
}

func (s *Server) handleClient(client *Client) {
	defer func() {
		s.removeClient(client)
		client.Conn.Close()
		close(client.done)
	}()

	client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, msgBytes, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Client %s read error: %v", client.ID, err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(msgBytes, &msg); err != nil {
			s.sendError(client, "invalid_message", "Could not parse message")
			continue
		}

		s.handleMessage(client, &msg)
	}
}

func (s *Server) handleMessage(client *Client, msg *Message) {
	switch msg.Type {
	case MsgTypeSolve:
		s.handleSolve(client, msg.Payload)

	case MsgTypeGenerate:
		s.handleGenerate(client, msg.Payload)

	case MsgTypePause:
		s.handlePause(client)

	case MsgTypeResume:
		s.handleResume(client)

	case MsgTypeStop:
		s.handleStop(client)

	case MsgTypePing:
		s.sendMessage(client, MsgTypePong, nil)

	case MsgTypeLeave:
		s.handleLeave(client)

	default:
		s.sendError(client, "unknown_type", fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (s *Server) handleSolve(client *Client, payload json.RawMessage) {
	var req SolvePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(client, "invalid_payload", fmt.Sprintf("Invalid solve payload: %v", err))
		return
	}

	p, err := s.resolvePuzzle(&req)
	if err != nil {
		s.sendError(client, "invalid_grid", err.Error())
		return
	}

	solverName := req.Solver
	if solverName == "" {
		solverName = "backtracking"
	}

	// Runs of the exact solver are deterministic, so a cached result
	// answers the same position immediately.
	if solverName == "backtracking" {
		if e, ok := s.cache.Get(p.GridCopy()); ok {
			s.sendMessage(client, MsgTypeDone, DonePayload{
				Solved:  e.Metrics.Status == solver.StatusSolved,
				Cached:  true,
				Grid:    e.Solution,
				Metrics: e.Metrics,
			})
			return
		}
	}

	// A new solve replaces any run in flight for this client.
	if client.Session != nil {
		s.dropSession(client.Session)
		client.Session = nil
	}

	session := &SolveSession{
		ID:        uuid.NewString(),
		PuzzleID:  req.PuzzleID,
		Solver:    solverName,
		Seed:      req.Seed,
		Puzzle:    p,
		Client:    client,
		CreatedAt: time.Now(),
	}

	interval := req.StepInterval
	if interval <= 0 {
		interval = s.stepInterval
	}

	switch solverName {
	case "backtracking":
		engine := solver.NewBacktracking(p)
		steps := 0
		observer := func(st solver.Step) bool {
			steps++
			if steps%interval == 0 {
				s.sendMessage(client, MsgTypeStep, st)
			}
			return true
		}
		session.Runner = solver.NewBacktrackingRunner(engine, observer)

	case "cultural":
		opts := &solver.CulturalOptions{Seed: req.Seed}
		engine := solver.NewCultural(p, opts)
		session.Seed = engine.Seed()
		observer := func(g solver.Generation) bool {
			s.sendMessage(client, MsgTypeGeneration, g)
			return true
		}
		session.Runner = solver.NewCulturalRunner(engine, observer)

	default:
		s.sendError(client, "unknown_solver", fmt.Sprintf("Unknown solver: %s", solverName))
		return
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	client.Session = session

	if err := session.Runner.Start(context.Background()); err != nil {
		s.dropSession(session)
		client.Session = nil
		s.sendError(client, "start_failed", err.Error())
		return
	}

	if s.verbose {
		log.Printf("Session %s: %s solve started (%dx%d)", session.ID[:8], solverName, p.Size(), p.Size())
	}

	go s.watchRun(client, session, p.GridCopy())
}

// resolvePuzzle builds the puzzle a solve request names, from its inline
// grid or from storage.
func (s *Server) resolvePuzzle(req *SolvePayload) (*sudoku.Puzzle, error) {
	if req.PuzzleID != "" {
		if s.store == nil {
			return nil, fmt.Errorf("puzzle lookup requires storage")
		}
		record, err := s.store.GetPuzzle(req.PuzzleID)
		if err != nil {
			return nil, fmt.Errorf("puzzle %s: %w", req.PuzzleID, err)
		}
		return sudoku.New(record.Grid)
	}
	return sudoku.New(req.Grid)
}

// watchRun waits for a run to finish, reports the outcome and persists it.
func (s *Server) watchRun(client *Client, session *SolveSession, given sudoku.Grid) {
	solved := session.Runner.Wait()
	grid, metrics := session.Runner.Snapshot()

	// Exhausted runs are cacheable: the exact solver proved the position
	// unsolvable. Cancelled runs prove nothing.
	if session.Solver == "backtracking" &&
		(metrics.Status == solver.StatusSolved || metrics.Status == solver.StatusExhausted) {
		s.cache.Put(given, cache.Entry{Solution: grid, Metrics: metrics})
	}

	// Persist and cache before reporting, so a client reacting to done
	// sees consistent state.
	s.saveRun(session, solved, grid, metrics)
	s.dropSession(session)

	s.sendMessage(client, MsgTypeDone, DonePayload{
		Solved:  solved,
		Grid:    grid,
		Metrics: metrics,
	})

	if s.verbose {
		log.Printf("Session %s: finished status=%s in %s", session.ID[:8], metrics.Status, metrics.Duration)
	}
}

func (s *Server) handleGenerate(client *Client, payload json.RawMessage) {
	var req GeneratePayload
	if payload != nil {
		if err := json.Unmarshal(payload, &req); err != nil {
			s.sendError(client, "invalid_payload", fmt.Sprintf("Invalid generate payload: %v", err))
			return
		}
	}

	record, err := s.generatePuzzle(&req)
	if err != nil {
		s.sendError(client, "generate_failed", err.Error())
		return
	}

	s.sendMessage(client, MsgTypePuzzle, PuzzlePayload{
		ID:      record.ID,
		Size:    record.Size,
		BoxSize: record.BoxSize,
		Givens:  record.Givens,
		Grid:    record.Grid,
	})
}

// generatePuzzle builds a puzzle per request, persisting it when storage
// is enabled.
func (s *Server) generatePuzzle(req *GeneratePayload) (*storage.PuzzleRecord, error) {
	size := req.Size
	if size == 0 {
		size = 9
	}
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = string(generator.Medium)
	}

	gen := generator.New(req.Seed)
	var p *sudoku.Puzzle
	var err error
	if req.EmptyCells > 0 {
		p, err = gen.Generate(size, req.EmptyCells)
	} else {
		p, err = gen.GenerateDifficulty(size, generator.Difficulty(difficulty))
	}
	if err != nil {
		return nil, err
	}

	record := &storage.PuzzleRecord{
		ID:         uuid.NewString(),
		Size:       p.Size(),
		BoxSize:    p.BoxSize(),
		Givens:     p.Size()*p.Size() - p.CountEmpty(),
		Difficulty: difficulty,
		Grid:       p.GridCopy(),
		CreatedAt:  time.Now().UTC(),
	}
	if req.EmptyCells > 0 {
		record.Difficulty = ""
	}

	if s.store != nil {
		if err := s.store.SavePuzzle(record); err != nil {
			log.Printf("Failed to save puzzle: %v", err)
		}
	}
	return record, nil
}

func (s *Server) handlePause(client *Client) {
	if client.Session == nil {
		s.sendError(client, "no_session", "Not in a solve session")
		return
	}
	client.Session.Runner.Pause()
}

func (s *Server) handleResume(client *Client) {
	if client.Session == nil {
		s.sendError(client, "no_session", "Not in a solve session")
		return
	}
	client.Session.Runner.Resume()
}

func (s *Server) handleStop(client *Client) {
	if client.Session == nil {
		s.sendError(client, "no_session", "Not in a solve session")
		return
	}
	// The watch goroutine observes the cancellation and reports it.
	client.Session.Runner.Stop()
}

func (s *Server) handleLeave(client *Client) {
	if client.Session != nil {
		client.Session.Runner.Stop()
		s.dropSession(client.Session)
		client.Session = nil
	}
}

func (s *Server) dropSession(session *SolveSession) {
	s.mu.Lock()
	delete(s.sessions, session.ID)
	s.mu.Unlock()
}

func (s *Server) removeClient(client *Client) {
	s.handleLeave(client)

	s.mu.Lock()
	delete(s.clients, client)
	s.mu.Unlock()

	log.Printf("Client %s disconnected", client.ID)
}

// saveRun persists a finished run when storage is enabled.
func (s *Server) saveRun(session *SolveSession, solved bool, grid sudoku.Grid, metrics solver.Metrics) {
	if s.store == nil {
		return
	}

	now := time.Now().UTC()
	record := &storage.RunRecord{
		ID:          session.ID,
		PuzzleID:    session.PuzzleID,
		Solver:      session.Solver,
		Status:      string(metrics.Status),
		Seed:        session.Seed,
		Iterations:  metrics.Iterations,
		Backtracks:  metrics.Backtracks,
		Generations: metrics.Generations,
		BestFitness: metrics.BestFitness,
		ComputeTime: metrics.Duration.Seconds(),
		StartedAt:   session.CreatedAt.UTC(),
		FinishedAt:  &now,
	}
	if solved {
		record.Solution = grid
	}

	if err := s.store.SaveRun(record); err != nil {
		log.Printf("Failed to save run: %v", err)
	}
}

// handleAPISolve runs a solver synchronously and returns structured results.
func (s *Server) handleAPISolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SolvePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}

	p, err := s.resolvePuzzle(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	solverName := req.Solver
	if solverName == "" {
		solverName = "backtracking"
	}

	res, err := s.solveSync(p, solverName, req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// solveSync runs one solve to completion on the request goroutine.
func (s *Server) solveSync(p *sudoku.Puzzle, solverName string, req SolvePayload) (*results.Results, error) {
	builder := results.NewBuilder(solverName).WithPuzzle(p)

	switch solverName {
	case "backtracking":
		if e, ok := s.cache.Get(p.GridCopy()); ok {
			return builder.
				WithMetrics(e.Metrics).
				WithSolution(e.Metrics.Status == solver.StatusSolved, e.Solution).
				Build(), nil
		}

		engine := solver.NewBacktracking(p)
		solved := engine.Solve(nil)
		metrics := engine.Metrics()
		grid := engine.Solution()

		s.cache.Put(p.GridCopy(), cache.Entry{Solution: grid, Metrics: metrics})
		res := builder.WithMetrics(metrics).WithSolution(solved, grid).Build()
		s.saveSyncRun(res, req.PuzzleID, solved, grid, metrics, 0)
		return res, nil

	case "cultural":
		opts := solver.DefaultCulturalOptions()
		opts.Seed = req.Seed
		engine := solver.NewCultural(p, opts)
		solved := engine.Solve(nil)
		metrics := engine.Metrics()
		grid := engine.Solution()

		res := builder.
			WithSeed(engine.Seed()).
			WithCulturalOptions(opts).
			WithMetrics(metrics).
			WithSolution(solved, grid).
			Build()
		s.saveSyncRun(res, req.PuzzleID, solved, grid, metrics, engine.Seed())
		return res, nil

	default:
		return nil, fmt.Errorf("unknown solver: %s", solverName)
	}
}

// saveSyncRun persists a synchronous API run under its results ID.
func (s *Server) saveSyncRun(res *results.Results, puzzleID string, solved bool, grid sudoku.Grid, metrics solver.Metrics, seed int64) {
	if s.store == nil {
		return
	}

	now := time.Now().UTC()
	record := &storage.RunRecord{
		ID:          res.Metadata.ID,
		PuzzleID:    puzzleID,
		Solver:      res.Metadata.Solver,
		Status:      string(metrics.Status),
		Seed:        seed,
		Iterations:  metrics.Iterations,
		Backtracks:  metrics.Backtracks,
		Generations: metrics.Generations,
		BestFitness: metrics.BestFitness,
		ComputeTime: metrics.Duration.Seconds(),
		StartedAt:   res.Metadata.Timestamp.UTC(),
		FinishedAt:  &now,
	}
	if solved {
		record.Solution = grid
	}

	if err := s.store.SaveRun(record); err != nil {
		log.Printf("Failed to save run: %v", err)
	}
}

func (s *Server) handleAPIGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req GeneratePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}

	record, err := s.generatePuzzle(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, PuzzlePayload{
		ID:      record.ID,
		Size:    record.Size,
		BoxSize: record.BoxSize,
		Givens:  record.Givens,
		Grid:    record.Grid,
	})
}

func (s *Server) handleAPIPuzzles(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "storage disabled", http.StatusServiceUnavailable)
		return
	}

	puzzles, err := s.store.ListPuzzles(queryLimit(r, 20))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, puzzles)
}

func (s *Server) handleAPIRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "storage disabled", http.StatusServiceUnavailable)
		return
	}

	var runs []*storage.RunRecord
	var err error
	if puzzleID := r.URL.Query().Get("puzzle_id"); puzzleID != "" {
		runs, err = s.store.ListRuns(puzzleID)
	} else {
		runs, err = s.store.RecentRuns(queryLimit(r, 20))
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleAPIStats(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"cache": s.cache.Stats(),
	}
	if s.store != nil {
		stats, err := s.store.Stats()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		payload["solvers"] = stats
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) sendMessage(client *Client, msgType MessageType, payload any) {
	var payloadBytes json.RawMessage
	if payload != nil {
		var err error
		payloadBytes, err = json.Marshal(payload)
		if err != nil {
			log.Printf("Error marshaling payload: %v", err)
			return
		}
	}

	msg := Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}

	msgBytes, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	select {
	case <-client.done:
	case client.sendChan <- msgBytes:
	default:
		log.Printf("Client %s send buffer full", client.ID)
	}
}

func (s *Server) sendError(client *Client, code, message string) {
	s.sendMessage(client, MsgTypeError, ErrorPayload{
		Code:    code,
		Message: message,
	})
}

func (client *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-client.done:
			return

		case message := <-client.sendChan:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Client %s write error: %v", client.ID, err)
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func queryLimit(r *http.Request, def int) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return def
}
