package world

import (
	"fmt"

	"github.com/MJE43/tokentrek-go/internal/grid"
)

// Config holds the game constants consumed at session construction. All
// values are injectable so the engine is testable with small grids.
type Config struct {
	// Seed keys every deterministic decision: spawn, initial counts.
	Seed string

	// TileSize is the grid cell size in degrees.
	TileSize float64

	// Origin anchors tile (0,0).
	Origin grid.Point

	// NeighborhoodSize is the admission half-width in tiles: the bounding
	// scan covers (2n+1)^2 tiles around the player.
	NeighborhoodSize int

	// SpawnProbability is the per-tile chance a cache exists, in [0, 1].
	SpawnProbability float64

	// VisibilityRadius is the eviction/admission radius in degrees; it is
	// compared in meters after conversion at the fixed equatorial factor.
	VisibilityRadius float64

	// StartPosition is where the player begins.
	StartPosition grid.Point
}

// DefaultConfig returns the reference game constants.
func DefaultConfig() Config {
	return Config{
		Seed:             "tokentrek",
		TileSize:         1e-4,
		NeighborhoodSize: 8,
		SpawnProbability: 0.1,
		VisibilityRadius: 1e-3,
		StartPosition:    grid.Point{Lat: 36.9895, Lng: -122.0628},
	}
}

// Validate rejects malformed configuration. This is the engine's only
// validated failure path; every runtime operation is total.
func (c Config) Validate() error {
	if c.Seed == "" {
		return fmt.Errorf("seed must not be empty")
	}
	if c.TileSize <= 0 {
		return fmt.Errorf("tile size must be positive, got %v", c.TileSize)
	}
	if c.SpawnProbability < 0 || c.SpawnProbability > 1 {
		return fmt.Errorf("spawn probability must be in [0, 1], got %v", c.SpawnProbability)
	}
	if c.NeighborhoodSize < 0 {
		return fmt.Errorf("neighborhood size must not be negative, got %d", c.NeighborhoodSize)
	}
	if c.VisibilityRadius <= 0 {
		return fmt.Errorf("visibility radius must be positive, got %v", c.VisibilityRadius)
	}
	return nil
}
