package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// HealthStatus represents the overall health status
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheckResponse represents a comprehensive health check response
type HealthCheckResponse struct {
	Status        HealthStatus           `json:"status"`
	Timestamp     string                 `json:"timestamp"`
	EngineVersion string                 `json:"engine_version"`
	Uptime        string                 `json:"uptime"`
	Checks        map[string]HealthCheck `json:"checks"`
	System        SystemInfo             `json:"system"`
	RequestID     string                 `json:"request_id,omitempty"`
}

// HealthCheck represents an individual health check
type HealthCheck struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// SystemInfo contains system information
type SystemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	NumCPU        int    `json:"num_cpu"`
	MemoryAlloc   uint64 `json:"memory_alloc_bytes"`
	MemorySys     uint64 `json:"memory_sys_bytes"`
	GCCycles      uint32 `json:"gc_cycles"`
}

// GameInfo reports the live session's dimensions for the metrics endpoint.
type GameInfo struct {
	ActiveCaches   int `json:"active_caches"`
	Snapshots      int `json:"snapshots"`
	Balance        int `json:"balance"`
	TrailPositions int `json:"trail_positions"`
	WSSubscribers  int `json:"ws_subscribers"`
}

// MetricsResponse represents basic performance metrics
type MetricsResponse struct {
	Timestamp     string     `json:"timestamp"`
	EngineVersion string     `json:"engine_version"`
	Uptime        string     `json:"uptime"`
	System        SystemInfo `json:"system"`
	Game          GameInfo   `json:"game"`
}

func systemInfo() SystemInfo {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return SystemInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		MemoryAlloc:   mem.Alloc,
		MemorySys:     mem.Sys,
		GCCycles:      mem.NumGC,
	}
}

// handleHealthCheck reports overall service health.
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]HealthCheck{
		"session": {Status: HealthStatusHealthy},
	}
	if s.historyStore == nil {
		checks["history"] = HealthCheck{Status: HealthStatusHealthy, Message: "recording disabled"}
	} else {
		checks["history"] = HealthCheck{Status: HealthStatusHealthy}
	}

	status := HealthStatusHealthy
	for _, c := range checks {
		if c.Status != HealthStatusHealthy {
			status = HealthStatusUnhealthy
		}
	}

	httpStatus := http.StatusOK
	if status != HealthStatusHealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	s.writeJSON(w, httpStatus, HealthCheckResponse{
		Status:        status,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		EngineVersion: EngineVersion,
		Uptime:        time.Since(s.startTime).String(),
		Checks:        checks,
		System:        systemInfo(),
		RequestID:     middleware.GetReqID(r.Context()),
	})
}

// handleReadiness reports whether the server can take traffic.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLiveness is a minimal liveness probe.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleMetrics reports process and game gauges.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	player := s.session.Player()

	s.writeJSON(w, http.StatusOK, MetricsResponse{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		EngineVersion: EngineVersion,
		Uptime:        time.Since(s.startTime).String(),
		System:        systemInfo(),
		Game: GameInfo{
			ActiveCaches:   len(s.session.ActiveCaches()),
			Snapshots:      s.session.SnapshotCount(),
			Balance:        player.Balance,
			TrailPositions: len(player.Trail),
			WSSubscribers:  s.hub.Subscribers(),
		},
	})
}
