package cache

import "github.com/MJE43/tokentrek-go/internal/grid"

// Snapshot is an immutable copy of a cache's tile, count, and token stack
// at the moment of capture. Snapshots are owned by the SnapshotStore; a
// cache never holds a reference to its own past snapshots.
type Snapshot struct {
	tile   grid.Tile
	tokens []Token
}

// Tile returns the snapshot's tile coordinate.
func (s Snapshot) Tile() grid.Tile {
	return s.tile
}

// Count returns the number of tokens captured.
func (s Snapshot) Count() int {
	return len(s.tokens)
}

// Tokens returns a copy of the captured token stack, bottom first.
func (s Snapshot) Tokens() []Token {
	out := make([]Token, len(s.tokens))
	copy(out, s.tokens)
	return out
}

// SnapshotStore maps tiles to their latest snapshot for the lifetime of a
// session. Entries are overwritten on every save and never removed;
// unbounded growth over a single play session is accepted.
type SnapshotStore struct {
	snapshots map[grid.Tile]Snapshot
}

// NewSnapshotStore creates an empty store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snapshots: make(map[grid.Tile]Snapshot)}
}

// Save upserts the snapshot for the tile, unconditionally overwriting any
// prior entry.
func (ss *SnapshotStore) Save(tile grid.Tile, snap Snapshot) {
	ss.snapshots[tile] = snap
}

// Load returns the most recently saved snapshot for the tile, or ok=false
// if the tile was never saved.
func (ss *SnapshotStore) Load(tile grid.Tile) (Snapshot, bool) {
	snap, ok := ss.snapshots[tile]
	return snap, ok
}

// Len returns the number of tiles with a stored snapshot.
func (ss *SnapshotStore) Len() int {
	return len(ss.snapshots)
}
