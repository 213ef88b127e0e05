package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/wricardo/blockpush/game/engine"
	"github.com/wricardo/blockpush/game/level"
	"github.com/wricardo/blockpush/game/results"
	"github.com/wricardo/blockpush/game/service"
	"github.com/wricardo/blockpush/game/session"
	"github.com/wricardo/blockpush/identity"
	"github.com/wricardo/blockpush/transport/websocket"
)

// Identity is the account side of the API
type Identity interface {
	Register(ctx context.Context, username, password string) (*identity.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*identity.Claims, error)
	Profile(ctx context.Context, userID string) (*identity.Profile, error)
	UpdateProfile(ctx context.Context, userID string, update identity.ProfileUpdate) (*identity.User, error)
}

// Server represents the REST API server
type Server struct {
	service service.GameService
	users   Identity
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil when no WebSocket
// endpoint is wanted.
func NewServer(gameService service.GameService, users Identity, hub *websocket.Hub) *Server {
	s := &Server{
		service: gameService,
		users:   users,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.authenticate)

	// Accounts
	api.HandleFunc("/auth/register", s.handleRegister).Methods("POST")
	api.HandleFunc("/auth/login", s.handleLogin).Methods("POST")
	api.HandleFunc("/auth/logout", s.requireUser(s.handleLogout)).Methods("POST")
	api.HandleFunc("/users/profile", s.requireUser(s.handleGetProfile)).Methods("GET")
	api.HandleFunc("/users/profile", s.requireUser(s.handleUpdateProfile)).Methods("PUT")

	// Levels
	api.HandleFunc("/fields", s.handleGetField).Methods("GET")
	api.HandleFunc("/levels", s.handleListLevels).Methods("GET")
	api.HandleFunc("/levels", s.handleSaveLevel).Methods("POST")
	api.HandleFunc("/levels/{id}", s.handleGetLevel).Methods("GET")

	// Results
	api.HandleFunc("/results", s.handleGetResults).Methods("GET")
	api.HandleFunc("/results", s.requireUser(s.handlePostResult)).Methods("POST")
	api.HandleFunc("/rankings", s.handleGetRankings).Methods("GET")

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Game operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/move", s.handleMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/bulk-move", s.handleBulkMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")

	// WebSocket
	s.router.Handle("/ws", s.authenticate(http.HandlerFunc(s.handleWebSocket)))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handle mounts an extra handler, such as the MCP endpoint
func (s *Server) Handle(path string, handler http.Handler) {
	s.router.Handle(path, handler)
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

// respondErr maps domain errors to status codes
func respondErr(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, level.ErrLevelNotFound),
		errors.Is(err, identity.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, identity.ErrUsernameTaken),
		errors.Is(err, session.ErrSessionAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, identity.ErrInvalidCredentials),
		errors.Is(err, identity.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, identity.ErrInvalidUsername),
		errors.Is(err, identity.ErrInvalidNickname),
		errors.Is(err, identity.ErrWeakPassword),
		errors.Is(err, engine.ErrInvalidDirection),
		errors.Is(err, engine.ErrEmptyGrid),
		errors.Is(err, engine.ErrUnknownCell),
		errors.Is(err, level.ErrInvalidLevel),
		errors.Is(err, results.ErrInvalidResult),
		errors.Is(err, session.ErrInvalidSessionID):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrSessionClosed):
		return http.StatusGone
	}
	return http.StatusInternalServerError
}

func decode(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.New("missing request body")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%s parameter required", name)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s parameter %q", name, raw)
	}
	return n, nil
}

// Account Handlers

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.users.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Logout(r.Context(), bearerToken(r)); err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	player, _ := service.PlayerFromContext(r.Context())

	profile, err := s.users.Profile(r.Context(), player.UserID)
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	player, _ := service.PlayerFromContext(r.Context())

	var req identity.ProfileUpdate
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.users.UpdateProfile(r.Context(), player.UserID, req)
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// Level Handlers

// handleGetField serves the level payload {"level":N,"objects":[...]}. The
// level may be selected by id or by difficulty.
func (s *Server) handleGetField(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "level")
	if err != nil {
		difficulty := r.URL.Query().Get("difficulty")
		if difficulty == "" {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		id = level.ParseDifficulty(difficulty).LevelID()
	}

	lvl, err := s.service.LoadLevel(r.Context(), id)
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"level":   lvl.ID,
		"objects": lvl.Objects,
	})
}

func (s *Server) handleListLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := s.service.ListLevels(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, levels)
}

func (s *Server) handleGetLevel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(strings.TrimSuffix(mux.Vars(r)["id"], ".json"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid level id")
		return
	}

	lvl, err := s.service.LoadLevel(r.Context(), id)
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, lvl)
}

func (s *Server) handleSaveLevel(w http.ResponseWriter, r *http.Request) {
	var lvl level.Level
	if err := decode(r, &lvl); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if lvl.ID <= 0 {
		respondError(w, http.StatusBadRequest, "level id is required")
		return
	}

	if err := s.service.SaveLevel(r.Context(), &lvl); err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Level saved successfully",
		"level":   lvl.ID,
	})
}

// Result Handlers

func (s *Server) handleGetResults(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "level")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := s.service.Results(r.Context(), id)
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handlePostResult(w http.ResponseWriter, r *http.Request) {
	player, _ := service.PlayerFromContext(r.Context())

	var req struct {
		Level int `json:"level"`
		Time  int `json:"time"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.RecordResult(r.Context(), player, req.Level, req.Time)
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

func (s *Server) handleGetRankings(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "level")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := results.DefaultRankingSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if l, err := strconv.Atoi(raw); err == nil {
			limit = l
		}
	}

	entries, err := s.service.Rankings(r.Context(), id, limit)
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req service.CreateSessionRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	info, err := s.service.CreateSession(r.Context(), req)
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}

	// Parse query parameters
	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Game Operation Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetGameState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Direction string `json:"direction"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Move(r.Context(), sessionID, req.Direction)
	if err != nil {
		respondErr(w, err)
		return
	}

	// Compact server log for observability
	m := result.Move
	status := "OK"
	if !result.Success {
		status = "FAIL"
	}
	log.Debugf("[MOVE] session=%s %s (%d,%d)->(%d,%d) kind=%s status=%s",
		sessionID, m.Direction, m.From.X, m.From.Y, m.To.X, m.To.Y, m.Kind, status)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleBulkMove(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Moves []string `json:"moves"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.BulkMove(r.Context(), sessionID, req.Moves)
	if err != nil {
		respondErr(w, err)
		return
	}

	stop := result.StopReasonCode
	if stop == "" {
		stop = "none"
	}
	log.Debugf("[BULK] session=%s exec=%d/%d stop=%s end=(%d,%d)",
		sessionID, result.MovesExecuted, result.RequestedMoves, stop, result.EndPos.X, result.EndPos.Y)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.Reset(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Game reset successfully",
		"session": info,
		"state":   info.GameState,
	})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}
	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetMoveHistory(r.Context(), mux.Vars(r)["id"], opts)
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "websocket not available", http.StatusNotFound)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	state, err := s.service.GetGameState(r.Context(), sessionID)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	s.hub.ServeWS(w, r, sessionID, state)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
