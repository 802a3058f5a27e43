package api

import (
	"github.com/MJE43/tokentrek-go/internal/world"
)

// EngineError represents a structured error response with context
type EngineError struct {
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e EngineError) Error() string {
	return e.Message
}

// Error types with proper categorization
const (
	// Input validation errors
	ErrTypeInvalidPosition = "invalid_position"
	ErrTypeInvalidTile     = "invalid_tile"
	ErrTypeValidation      = "validation_error"

	// Game-related errors
	ErrTypeInactiveTile = "inactive_tile"
	ErrTypeScript       = "script_error"

	// System errors
	ErrTypeTimeout  = "timeout"
	ErrTypeInternal = "internal_error"
)

// ErrorCategory represents error categories for monitoring
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryGame       ErrorCategory = "game"
	CategorySystem     ErrorCategory = "system"
	CategoryTimeout    ErrorCategory = "timeout"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeInvalidPosition, ErrTypeInvalidTile, ErrTypeValidation:
		return CategoryValidation
	case ErrTypeInactiveTile, ErrTypeScript:
		return CategoryGame
	case ErrTypeTimeout:
		return CategoryTimeout
	default:
		return CategorySystem
	}
}

// PositionRequest is the body of POST /position.
type PositionRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PositionResponse returns the player and the resulting active set.
type PositionResponse struct {
	Player world.PlayerView  `json:"player"`
	Caches []world.CacheView `json:"caches"`
}

// CollectResponse is returned by POST /caches/{i}/{j}/collect. Collected is
// false when the cache was empty; that is a normal outcome, not an error.
type CollectResponse struct {
	Token     string `json:"token,omitempty"`
	Collected bool   `json:"collected"`
	Count     int    `json:"count"`
	Balance   int    `json:"balance"`
}

// DepositRequest is the body of POST /caches/{i}/{j}/deposit. Token may be
// empty to deposit the player's most recently collected token.
type DepositRequest struct {
	Token string `json:"token"`
}

// DepositResponse is returned by POST /caches/{i}/{j}/deposit.
type DepositResponse struct {
	Count   int `json:"count"`
	Balance int `json:"balance"`
}

// ScriptRequest is the body of POST /script.
type ScriptRequest struct {
	Source   string `json:"source"`
	MaxSteps int    `json:"max_steps,omitempty"`
}
