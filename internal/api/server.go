package api

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MJE43/tokentrek-go/internal/history"
	"github.com/MJE43/tokentrek-go/internal/scan"
	"github.com/MJE43/tokentrek-go/internal/world"
)

// Server exposes one game session over HTTP. The session handles its own
// locking; the server never touches game state outside session methods.
type Server struct {
	session      *world.Session
	scanner      *scan.Scanner
	historyStore *history.Store
	sessionID    uuid.UUID
	hub          *Hub
	errorHandler *ErrorHandler
	logger       *log.Logger
	startTime    time.Time
}

// NewServer creates a new API server. historyStore may be nil when event
// recording is disabled.
func NewServer(session *world.Session, historyStore *history.Store, sessionID uuid.UUID) *Server {
	logger := log.New(os.Stdout, "[API] ", log.LstdFlags|log.Lshortfile)

	server := &Server{
		session:      session,
		scanner:      scan.NewScanner(),
		historyStore: historyStore,
		sessionID:    sessionID,
		hub:          NewHub(logger),
		errorHandler: NewErrorHandler(logger),
		logger:       logger,
		startTime:    time.Now(),
	}

	// Push the active set to websocket subscribers on every move.
	session.OnUpdate(server.hub.Broadcast)

	return server
}

// Routes sets up the HTTP routes with proper middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.errorHandler.RecoveryHandler)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health and monitoring endpoints
	r.Get("/health", s.handleHealthCheck)
	r.Get("/health/ready", s.handleReadiness)
	r.Get("/health/live", s.handleLiveness)
	r.Get("/metrics", s.handleMetrics)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/position", s.handlePosition)
		r.Get("/caches", s.handleListCaches)
		r.Post("/caches/{i}/{j}/collect", s.handleCollect)
		r.Post("/caches/{i}/{j}/deposit", s.handleDeposit)
		r.Get("/player", s.handlePlayer)
		r.Post("/survey", s.handleSurvey)
		r.Get("/events", s.handleListEvents)
		r.Post("/script", s.handleScript)
	})

	// WebSocket stream of active-set updates
	r.Get("/ws", s.handleWebSocket)

	return r
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// If encoding fails, try to write a simple error response
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// writeError writes a structured error response
func (s *Server) writeError(w http.ResponseWriter, status int, errType, message string, context map[string]interface{}) {
	errorResponse := EngineError{
		Type:    errType,
		Message: message,
		Context: context,
	}
	s.writeJSON(w, status, errorResponse)
}
