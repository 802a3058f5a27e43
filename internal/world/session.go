// Package world owns the visibility window: the set of caches instantiated
// around the player, the player's balance and trail, and the snapshot
// round-trip that preserves cache mutations across window exits.
package world

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/MJE43/tokentrek-go/internal/cache"
	"github.com/MJE43/tokentrek-go/internal/grid"
)

// ErrInactiveTile is returned when a collect or deposit targets a tile with
// no active cache. Empty-cache collects are not errors; targeting a tile
// outside the visibility window is.
var ErrInactiveTile = errors.New("no active cache at tile")

// CacheView is the collaborator-facing projection of one active cache.
type CacheView struct {
	Tile   grid.Tile   `json:"tile"`
	Bounds grid.Bounds `json:"bounds"`
	Count  int         `json:"count"`
}

// PlayerView is the collaborator-facing projection of player state.
type PlayerView struct {
	Position grid.Point   `json:"position"`
	Tile     grid.Tile    `json:"tile"`
	Balance  int          `json:"balance"`
	Held     int          `json:"held_tokens"`
	Trail    []grid.Point `json:"trail"`
}

// Recorder receives game events as they happen. Implementations must not
// call back into the session.
type Recorder interface {
	RecordMove(pos grid.Point, activeCaches int)
	RecordCollect(tile grid.Tile, tok cache.Token, cacheCount, balance int)
	RecordDeposit(tile grid.Tile, tok cache.Token, cacheCount, balance int)
}

// Session is a single game session: one player, one snapshot store, one
// active-cache set. All public methods take the session mutex, so an
// eviction-then-admission pass is observed atomically by readers.
type Session struct {
	mu sync.Mutex

	cfg     Config
	mapper  *grid.Mapper
	store   *cache.SnapshotStore
	active  map[grid.Tile]*cache.Cache
	radiusM float64

	position  grid.Point
	balance   int
	inventory []cache.Token
	trail     []grid.Point

	recorder Recorder
	onUpdate func([]CacheView)
}

// NewSession validates the configuration, constructs the session, and runs
// the initial visibility update at the start position.
func NewSession(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	mapper, err := grid.NewMapper(cfg.TileSize, cfg.Origin)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Session{
		cfg:     cfg,
		mapper:  mapper,
		store:   cache.NewSnapshotStore(),
		active:  make(map[grid.Tile]*cache.Cache),
		radiusM: grid.DegreesToMeters(cfg.VisibilityRadius),
	}
	s.MoveTo(cfg.StartPosition.Lat, cfg.StartPosition.Lng)
	return s, nil
}

// SetRecorder attaches an event recorder. Pass nil to detach.
func (s *Session) SetRecorder(r Recorder) {
	s.mu.Lock()
	s.recorder = r
	s.mu.Unlock()
}

// OnUpdate registers a callback invoked with the active set after every
// position change, for push transports. The callback runs outside the
// session mutex.
func (s *Session) OnUpdate(fn func([]CacheView)) {
	s.mu.Lock()
	s.onUpdate = fn
	s.mu.Unlock()
}

// Config returns the session's configuration.
func (s *Session) Config() Config {
	return s.cfg
}

// MoveTo updates the player position and recomputes the visibility window:
// out-of-radius caches are snapshotted and retired before any new tile is
// admitted, so a tile straddling the boundary is never rendered twice.
// It returns the resulting active set.
func (s *Session) MoveTo(lat, lng float64) []CacheView {
	s.mu.Lock()

	pos := grid.Point{Lat: lat, Lng: lng}
	s.position = pos
	s.trail = append(s.trail, pos)

	// Eviction pass.
	for tile, c := range s.active {
		center := s.mapper.TileCenter(tile)
		if grid.DistanceMeters(pos, center) > s.radiusM {
			s.store.Save(tile, c.Snapshot())
			delete(s.active, tile)
		}
	}

	// Admission pass: row-major over the bounding index range. Scan order
	// is deterministic but does not affect the admitted set.
	playerTile := s.mapper.ToTile(lat, lng)
	n := s.cfg.NeighborhoodSize
	for di := -n; di <= n; di++ {
		for dj := -n; dj <= n; dj++ {
			tile := grid.Tile{I: playerTile.I + di, J: playerTile.J + dj}
			if _, ok := s.active[tile]; ok {
				continue
			}
			if !cache.Exists(s.cfg.Seed, tile, s.cfg.SpawnProbability) {
				continue
			}
			center := s.mapper.TileCenter(tile)
			if grid.DistanceMeters(pos, center) > s.radiusM {
				continue
			}
			if snap, ok := s.store.Load(tile); ok {
				s.active[tile] = cache.FromSnapshot(snap)
			} else {
				s.active[tile] = cache.New(s.cfg.Seed, tile)
			}
		}
	}

	views := s.viewsLocked()
	recorder := s.recorder
	onUpdate := s.onUpdate
	activeCount := len(s.active)
	s.mu.Unlock()

	if recorder != nil {
		recorder.RecordMove(pos, activeCount)
	}
	if onUpdate != nil {
		onUpdate(views)
	}
	return views
}

// Collect removes the top token from the cache at tile and credits the
// player. ok=false with a nil error means the cache is empty, a normal
// outcome. ErrInactiveTile means the tile has no active cache.
func (s *Session) Collect(tile grid.Tile) (cache.Token, bool, error) {
	s.mu.Lock()

	c, ok := s.active[tile]
	if !ok {
		s.mu.Unlock()
		return "", false, ErrInactiveTile
	}

	tok, ok := c.Collect()
	if !ok {
		s.mu.Unlock()
		return "", false, nil
	}

	s.inventory = append(s.inventory, tok)
	s.balance++
	s.store.Save(tile, c.Snapshot())

	count := c.Count()
	balance := s.balance
	recorder := s.recorder
	s.mu.Unlock()

	if recorder != nil {
		recorder.RecordCollect(tile, tok, count, balance)
	}
	return tok, true, nil
}

// Deposit pushes a token into the cache at tile. An empty tok means
// "deposit what the player holds": the most recently collected token, or a
// timestamped marker when the inventory is empty. Any non-empty string is
// accepted as-is; provenance is intentionally not validated. The player's
// balance decrements but never goes below zero. Returns the cache's new
// token count.
func (s *Session) Deposit(tile grid.Tile, tok cache.Token) (int, error) {
	s.mu.Lock()

	c, ok := s.active[tile]
	if !ok {
		s.mu.Unlock()
		return 0, ErrInactiveTile
	}

	if tok == "" {
		if n := len(s.inventory); n > 0 {
			tok = s.inventory[n-1]
			s.inventory = s.inventory[:n-1]
		} else {
			tok = cache.Token(fmt.Sprintf("deposit@%d", time.Now().UnixNano()))
		}
	}

	c.Deposit(tok)
	if s.balance > 0 {
		s.balance--
	}
	s.store.Save(tile, c.Snapshot())

	count := c.Count()
	balance := s.balance
	recorder := s.recorder
	s.mu.Unlock()

	if recorder != nil {
		recorder.RecordDeposit(tile, tok, count, balance)
	}
	return count, nil
}

// ActiveCaches returns the active set in row-major tile order.
func (s *Session) ActiveCaches() []CacheView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewsLocked()
}

// CacheCount returns the token count at an active tile.
func (s *Session) CacheCount(tile grid.Tile) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.active[tile]
	if !ok {
		return 0, ErrInactiveTile
	}
	return c.Count(), nil
}

// Player returns the player's current state.
func (s *Session) Player() PlayerView {
	s.mu.Lock()
	defer s.mu.Unlock()

	trail := make([]grid.Point, len(s.trail))
	copy(trail, s.trail)

	return PlayerView{
		Position: s.position,
		Tile:     s.mapper.ToTile(s.position.Lat, s.position.Lng),
		Balance:  s.balance,
		Held:     len(s.inventory),
		Trail:    trail,
	}
}

// Balance returns the player's token balance.
func (s *Session) Balance() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

// SnapshotCount returns the number of tiles with a stored snapshot,
// exposed for diagnostics.
func (s *Session) SnapshotCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Len()
}

func (s *Session) viewsLocked() []CacheView {
	views := make([]CacheView, 0, len(s.active))
	for tile, c := range s.active {
		views = append(views, CacheView{
			Tile:   tile,
			Bounds: s.mapper.TileBounds(tile),
			Count:  c.Count(),
		})
	}
	sort.Slice(views, func(a, b int) bool {
		if views[a].Tile.I != views[b].Tile.I {
			return views[a].Tile.I < views[b].Tile.I
		}
		return views[a].Tile.J < views[b].Tile.J
	})
	return views
}
