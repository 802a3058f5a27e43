// Package cache implements the per-tile token cache: deterministic spawn
// and initial inventory, LIFO collect/deposit, and snapshot/restore so a
// cache can leave and re-enter the visibility window without losing
// mutations.
package cache

import (
	"fmt"
	"math"

	"github.com/MJE43/tokentrek-go/internal/engine"
	"github.com/MJE43/tokentrek-go/internal/grid"
)

// Token is an opaque identifier. Collected tokens encode their origin tile
// and serial ("i:j#serial"); deposited tokens may be any string.
type Token string

// maxInitialTokens bounds the initial inventory: counts land in [0, 99].
const maxInitialTokens = 100

// Exists reports whether a cache spawns at the tile. It is a pure function
// of (seed, tile, probability) and is safe to call unboundedly.
func Exists(seed string, tile grid.Tile, probability float64) bool {
	return engine.Hash01(seed, tile.Key()) < probability
}

// InitialCount returns the deterministic starting token count for a tile,
// in [0, maxInitialTokens).
func InitialCount(seed string, tile grid.Tile) int {
	return int(math.Floor(engine.Hash01(seed, tile.Key()+":initialValue") * maxInitialTokens))
}

// Cache is the token inventory for one tile. The token stack is LIFO: the
// most recently deposited token is the next one collected. Count always
// equals the stack length and never goes negative.
type Cache struct {
	tile   grid.Tile
	tokens []Token
}

// New creates a freshly initialized cache for the tile. The initial count
// and token identifiers depend only on (seed, tile), so a never-snapshotted
// cache at a given tile is reproducible bit-for-bit.
func New(seed string, tile grid.Tile) *Cache {
	count := InitialCount(seed, tile)
	tokens := make([]Token, 0, count)
	for serial := 0; serial < count; serial++ {
		tokens = append(tokens, Token(fmt.Sprintf("%d:%d#%d", tile.I, tile.J, serial)))
	}
	return &Cache{tile: tile, tokens: tokens}
}

// FromSnapshot reconstructs a cache from a previously captured snapshot.
func FromSnapshot(snap Snapshot) *Cache {
	c := &Cache{tile: snap.tile}
	c.Restore(snap)
	return c
}

// Tile returns the cache's tile coordinate. It never changes after
// construction.
func (c *Cache) Tile() grid.Tile {
	return c.tile
}

// Count returns the number of tokens currently held.
func (c *Cache) Count() int {
	return len(c.tokens)
}

// Collect removes and returns the top-of-stack token. Collecting from an
// empty cache is a valid no-op: it returns ok=false, never an error.
func (c *Cache) Collect() (Token, bool) {
	if len(c.tokens) == 0 {
		return "", false
	}
	top := c.tokens[len(c.tokens)-1]
	c.tokens = c.tokens[:len(c.tokens)-1]
	return top, true
}

// Deposit pushes a token onto the stack. Any string is accepted; token
// provenance is intentionally not validated.
func (c *Cache) Deposit(tok Token) {
	c.tokens = append(c.tokens, tok)
}

// Snapshot captures an immutable copy of the cache's state. Later mutation
// of the cache never alters a snapshot already taken.
func (c *Cache) Snapshot() Snapshot {
	tokens := make([]Token, len(c.tokens))
	copy(tokens, c.tokens)
	return Snapshot{tile: c.tile, tokens: tokens}
}

// Restore overwrites the token stack from the snapshot. The tile coordinate
// is assumed consistent; restoring never changes a cache's identity.
func (c *Cache) Restore(snap Snapshot) {
	c.tokens = make([]Token, len(snap.tokens))
	copy(c.tokens, snap.tokens)
}
