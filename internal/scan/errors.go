package scan

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRange       = errors.New("invalid tile range")
	ErrInvalidProbability = errors.New("spawn probability must be in [0, 1]")
	ErrMissingSeed        = errors.New("seed must not be empty")
)

// maxRegionTiles caps a single survey so a malformed request cannot spin
// the worker pool for minutes.
const maxRegionTiles = 100_000_000

func validate(req Request) error {
	if req.Seed == "" {
		return ErrMissingSeed
	}
	if req.SpawnProbability < 0 || req.SpawnProbability > 1 {
		return ErrInvalidProbability
	}
	if req.IEnd < req.IStart || req.JEnd < req.JStart {
		return ErrInvalidRange
	}
	rows := int64(req.IEnd-req.IStart) + 1
	cols := int64(req.JEnd-req.JStart) + 1
	if rows*cols > maxRegionTiles {
		return fmt.Errorf("%w: region of %d tiles exceeds maximum %d", ErrInvalidRange, rows*cols, maxRegionTiles)
	}
	return nil
}
