package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MJE43/tokentrek-go/internal/cache"
	"github.com/MJE43/tokentrek-go/internal/grid"
	"github.com/MJE43/tokentrek-go/internal/history"
	"github.com/MJE43/tokentrek-go/internal/scan"
	"github.com/MJE43/tokentrek-go/internal/scripting"
	"github.com/MJE43/tokentrek-go/internal/world"
)

// handlePosition moves the player and returns the resulting active set.
func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	var req PositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON")
		return
	}
	if math.IsNaN(req.Lat) || math.IsInf(req.Lat, 0) || math.IsNaN(req.Lng) || math.IsInf(req.Lng, 0) {
		s.errorHandler.HandleValidationError(w, r, "lat/lng", "coordinates must be finite")
		return
	}

	caches := s.session.MoveTo(req.Lat, req.Lng)
	s.writeJSON(w, http.StatusOK, PositionResponse{
		Player: s.session.Player(),
		Caches: caches,
	})
}

// handleListCaches returns the current active set without moving.
func (s *Server) handleListCaches(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.ActiveCaches())
}

// handlePlayer returns the player state.
func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.Player())
}

// tileParam parses the {i}/{j} route parameters.
func (s *Server) tileParam(w http.ResponseWriter, r *http.Request) (grid.Tile, bool) {
	i, errI := strconv.Atoi(chi.URLParam(r, "i"))
	j, errJ := strconv.Atoi(chi.URLParam(r, "j"))
	if errI != nil || errJ != nil {
		s.errorHandler.HandleValidationError(w, r, "i/j", "tile indices must be integers")
		return grid.Tile{}, false
	}
	return grid.Tile{I: i, J: j}, true
}

// handleCollect pops the top token from an active cache. An empty cache is
// a 200 with collected=false, matching the engine's absent-not-error rule.
func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	tile, ok := s.tileParam(w, r)
	if !ok {
		return
	}

	tok, collected, err := s.session.Collect(tile)
	if err != nil {
		if errors.Is(err, world.ErrInactiveTile) {
			s.writeError(w, http.StatusNotFound, ErrTypeInactiveTile, err.Error(),
				map[string]interface{}{"tile": tile.Key()})
			return
		}
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}

	count, _ := s.session.CacheCount(tile)
	s.writeJSON(w, http.StatusOK, CollectResponse{
		Token:     string(tok),
		Collected: collected,
		Count:     count,
		Balance:   s.session.Balance(),
	})
}

// handleDeposit pushes a token into an active cache.
func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	tile, ok := s.tileParam(w, r)
	if !ok {
		return
	}

	var req DepositRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON")
			return
		}
	}

	count, err := s.session.Deposit(tile, cache.Token(req.Token))
	if err != nil {
		if errors.Is(err, world.ErrInactiveTile) {
			s.writeError(w, http.StatusNotFound, ErrTypeInactiveTile, err.Error(),
				map[string]interface{}{"tile": tile.Key()})
			return
		}
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, DepositResponse{
		Count:   count,
		Balance: s.session.Balance(),
	})
}

// handleSurvey runs a region scan. The request carries its own seed and
// probability so tooling can survey hypothetical worlds, but both default
// to the live session's configuration.
func (s *Server) handleSurvey(w http.ResponseWriter, r *http.Request) {
	var req scan.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON")
		return
	}

	cfg := s.session.Config()
	if req.Seed == "" {
		req.Seed = cfg.Seed
	}
	if req.SpawnProbability == 0 {
		req.SpawnProbability = cfg.SpawnProbability
	}

	result, err := s.scanner.Scan(r.Context(), req)
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusBadRequest)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// handleListEvents returns the session's recorded event log.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if s.historyStore == nil {
		s.writeError(w, http.StatusServiceUnavailable, ErrTypeInternal,
			"event recording is disabled", nil)
		return
	}

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	kind := q.Get("kind")

	events, err := s.historyStore.ListEvents(r.Context(), s.sessionID, kind, limit, offset)
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []history.Event{}
	}
	s.writeJSON(w, http.StatusOK, events)
}

// handleScript runs an autoplay script against the live session and
// returns its statistics and logs. The run is synchronous and bounded by
// the step budget and the request context.
func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	var req ScriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON")
		return
	}
	if req.Source == "" {
		s.errorHandler.HandleValidationError(w, r, "source", "script source is required")
		return
	}

	engine := scripting.NewEngine(s.session, req.MaxSteps)
	result, err := engine.Run(r.Context(), req.Source)
	if err != nil {
		// The result still carries logs and partial stats; return it with
		// the error type so clients can show both.
		s.writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}
