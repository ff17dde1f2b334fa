package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/BrendanBurkhart/RoboTiles/game/board"
	"github.com/BrendanBurkhart/RoboTiles/game/service"
	"github.com/BrendanBurkhart/RoboTiles/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server
func NewServer(gameService service.GameService, hub *websocket.Hub) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Run management
	api.HandleFunc("/runs", s.handleCreateRun).Methods("POST")
	api.HandleFunc("/runs", s.handleListRuns).Methods("GET")
	api.HandleFunc("/runs/{id}", s.handleGetRun).Methods("GET")
	api.HandleFunc("/runs/{id}", s.handleDeleteRun).Methods("DELETE")

	// Simulation operations
	api.HandleFunc("/runs/{id}/state", s.handleGetBoardState).Methods("GET")
	api.HandleFunc("/runs/{id}/step", s.handleStep).Methods("POST")
	api.HandleFunc("/runs/{id}/steps", s.handleStepMany).Methods("POST")
	api.HandleFunc("/runs/{id}/command", s.handleCommand).Methods("POST")
	api.HandleFunc("/runs/{id}/reset", s.handleReset).Methods("POST")

	// Robot program
	api.HandleFunc("/runs/{id}/program", s.handleSetProgram).Methods("PUT")
	api.HandleFunc("/runs/{id}/program/reload", s.handleReloadProgram).Methods("POST")

	// Obstacle editing
	api.HandleFunc("/runs/{id}/obstacles", s.handleSetObstacle).Methods("PUT")
	api.HandleFunc("/runs/{id}/obstacles", s.handleClearObstacle).Methods("DELETE")

	// Board library
	api.HandleFunc("/boards", s.handleListBoards).Methods("GET")
	api.HandleFunc("/boards/{name}", s.handleGetBoard).Methods("GET")
	api.HandleFunc("/boards/{name}", s.handleSaveBoard).Methods("PUT")

	// Health
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// errorStatus translates domain errors into HTTP status codes.
func errorStatus(err error) int {
	var protected *board.ProtectedCellError
	switch {
	case errors.As(err, &protected):
		return http.StatusConflict
	case errors.Is(err, board.ErrOutOfBounds):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Run Handlers

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Board   string `json:"board,omitempty"`
		Program string `json:"program,omitempty"`
	}

	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	run, err := s.service.CreateRun(r.Context(), req.Board, req.Program)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.ListRuns(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Parse query parameters
	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of runs to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(runs, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = runs[i].CreatedAt, runs[j].CreatedAt
		} else { // "accessed"
			ti, tj = runs[i].LastAccessedAt, runs[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj) // desc
	})

	limit := len(runs)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(runs) {
			limit = l
		}
	}
	runs = runs[:limit]

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(runs),
		"runs":  runs,
		"sort":  sortBy,
		"order": order,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	run, err := s.service.GetRun(r.Context(), runID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	if err := s.service.DeleteRun(r.Context(), runID); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Run %s deleted", runID),
	})
}

// Simulation Handlers

func (s *Server) handleGetBoardState(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	state, err := s.service.GetBoardState(r.Context(), runID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	result, err := s.service.Step(r.Context(), runID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	s.broadcast(runID, result.State)

	// Compact server log for observability
	status := "OK"
	if result.ProgramError != "" {
		status = "FAIL"
	} else if !result.Moved {
		status = "BLOCKED"
	}
	fmt.Printf("[STEP] run=%s %s (%d,%d)->(%d,%d) status=%s\n",
		runID, result.Move, result.From.X, result.From.Y, result.To.X, result.To.Y, status)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleStepMany(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	var req struct {
		Count int `json:"count"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.StepMany(r.Context(), runID, req.Count)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	s.broadcast(runID, result.State)

	// Compact server log for observability
	fmt.Printf("[STEPS] run=%s exec=%d/%d stop=%s robot=(%d,%d)\n",
		runID, result.Executed, result.Requested, result.StoppedReason,
		result.State.Robot.X, result.State.Robot.Y)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	var req struct {
		Direction string `json:"direction"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Command(r.Context(), runID, req.Direction)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.broadcast(runID, result.State)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	state, err := s.service.ResetRun(r.Context(), runID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	s.broadcast(runID, state)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Run reset successfully",
		"state":   state,
	})
}

// Program Handlers

func (s *Server) handleSetProgram(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	var req struct {
		Program string `json:"program"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.service.SetProgram(r.Context(), runID, req.Program); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Program updated",
		"program": req.Program,
	})
}

func (s *Server) handleReloadProgram(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	if err := s.service.ReloadProgram(r.Context(), runID); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Program reloaded",
	})
}

// Obstacle Handlers

func (s *Server) handleSetObstacle(w http.ResponseWriter, r *http.Request) {
	s.handleObstacle(w, r, true)
}

func (s *Server) handleClearObstacle(w http.ResponseWriter, r *http.Request) {
	s.handleObstacle(w, r, false)
}

func (s *Server) handleObstacle(w http.ResponseWriter, r *http.Request, set bool) {
	runID := mux.Vars(r)["id"]

	var req struct {
		X int `json:"x"`
		Y int `json:"y"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var state *service.BoardState
	var err error
	if set {
		state, err = s.service.SetObstacle(r.Context(), runID, req.X, req.Y)
	} else {
		state, err = s.service.ClearObstacle(r.Context(), runID, req.X, req.Y)
	}
	if err != nil {
		respondError(w, errorStatus(err), err.Error())
		return
	}

	s.broadcast(runID, state)

	respondJSON(w, http.StatusOK, state)
}

// Board Library Handlers

func (s *Server) handleListBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := s.service.ListBoards(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, boards)
}

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	source, err := s.service.GetBoardSource(r.Context(), name)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"name":   name,
		"source": source,
	})
}

func (s *Server) handleSaveBoard(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req struct {
		Source string `json:"source"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.service.SaveBoard(r.Context(), name, req.Source); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"message": "Board saved successfully",
		"name":    name,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run")
	if runID == "" {
		http.Error(w, "run parameter required", http.StatusBadRequest)
		return
	}

	// Verify run exists
	if _, err := s.service.GetRun(context.Background(), runID); err != nil {
		http.Error(w, "Invalid run", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, runID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// broadcast pushes a state update to WebSocket watchers, if any.
func (s *Server) broadcast(runID string, state *service.BoardState) {
	if s.hub != nil && state != nil {
		s.hub.BroadcastToRun(runID, state)
	}
}
