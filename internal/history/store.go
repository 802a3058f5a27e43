// Package history records game events for the running session in SQLite.
// It is an append-only activity log (moves, collects, deposits), not a
// save file: cache state itself lives in the in-memory snapshot store and
// is not reconstructed from here.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/MJE43/tokentrek-go/internal/cache"
	"github.com/MJE43/tokentrek-go/internal/grid"
)

// Event kinds.
const (
	KindMove    = "move"
	KindCollect = "collect"
	KindDeposit = "deposit"
)

// SessionInfo is the stored metadata for one game session.
type SessionInfo struct {
	ID        uuid.UUID `json:"id"`
	Seed      string    `json:"seed"`
	CreatedAt time.Time `json:"created_at"`
	Events    int64     `json:"events"`
}

// Event is one recorded game event. Tile and token fields are only set for
// collect/deposit events; lat/lng only for moves.
type Event struct {
	ID           int64     `json:"id"`
	SessionID    uuid.UUID `json:"session_id"`
	Kind         string    `json:"kind"`
	RecordedAt   time.Time `json:"recorded_at"`
	Lat          float64   `json:"lat,omitempty"`
	Lng          float64   `json:"lng,omitempty"`
	TileI        int       `json:"tile_i,omitempty"`
	TileJ        int       `json:"tile_j,omitempty"`
	Token        string    `json:"token,omitempty"`
	CacheCount   int       `json:"cache_count,omitempty"`
	BalanceAfter int       `json:"balance_after"`
	ActiveCaches int       `json:"active_caches,omitempty"`
}

// Store is a SQLite-backed event log. Use ":memory:" as the path to keep
// the log strictly in-process.
type Store struct {
	db *sql.DB
}

// New opens/creates a SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&cache=shared", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // SQLite is not concurrent for writes
	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// --------- Migrations ---------

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			seed TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			recorded_at TIMESTAMP NOT NULL,
			lat REAL NOT NULL DEFAULT 0,
			lng REAL NOT NULL DEFAULT 0,
			tile_i INTEGER NOT NULL DEFAULT 0,
			tile_j INTEGER NOT NULL DEFAULT 0,
			token TEXT NOT NULL DEFAULT '',
			cache_count INTEGER NOT NULL DEFAULT 0,
			balance_after INTEGER NOT NULL DEFAULT 0,
			active_caches INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY(session_id) REFERENCES sessions(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id, id);`,
		`CREATE INDEX IF NOT EXISTS idx_events_session_kind ON events(session_id, kind);`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// --------- Sessions ---------

// CreateSession registers a new session and returns its id.
func (s *Store) CreateSession(ctx context.Context, seed string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions(id, seed, created_at) VALUES(?, ?, ?)`,
		id.String(), seed, time.Now().UTC())
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// GetSession returns session metadata including the event count.
func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (SessionInfo, error) {
	var info SessionInfo
	var idStr string
	row := s.db.QueryRowContext(ctx, `
		SELECT s.id, s.seed, s.created_at, COALESCE(e.cnt, 0)
		FROM sessions s
		LEFT JOIN (
			SELECT session_id, COUNT(*) AS cnt
			FROM events WHERE session_id=? ) e
		ON s.id = e.session_id
		WHERE s.id=?`,
		id.String(), id.String(),
	)
	if err := row.Scan(&idStr, &info.Seed, &info.CreatedAt, &info.Events); err != nil {
		return SessionInfo{}, err
	}
	info.ID = uuid.MustParse(idStr)
	return info, nil
}

// --------- Events ---------

func (s *Store) appendEvent(ctx context.Context, e Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events(session_id, kind, recorded_at, lat, lng, tile_i, tile_j,
			token, cache_count, balance_after, active_caches)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID.String(), e.Kind, time.Now().UTC(), e.Lat, e.Lng,
		e.TileI, e.TileJ, e.Token, e.CacheCount, e.BalanceAfter, e.ActiveCaches)
	return err
}

// AppendMove records a position change.
func (s *Store) AppendMove(ctx context.Context, sessionID uuid.UUID, pos grid.Point, activeCaches int) error {
	return s.appendEvent(ctx, Event{
		SessionID:    sessionID,
		Kind:         KindMove,
		Lat:          pos.Lat,
		Lng:          pos.Lng,
		ActiveCaches: activeCaches,
	})
}

// AppendCollect records a collect.
func (s *Store) AppendCollect(ctx context.Context, sessionID uuid.UUID, tile grid.Tile, tok cache.Token, cacheCount, balance int) error {
	return s.appendEvent(ctx, Event{
		SessionID:    sessionID,
		Kind:         KindCollect,
		TileI:        tile.I,
		TileJ:        tile.J,
		Token:        string(tok),
		CacheCount:   cacheCount,
		BalanceAfter: balance,
	})
}

// AppendDeposit records a deposit.
func (s *Store) AppendDeposit(ctx context.Context, sessionID uuid.UUID, tile grid.Tile, tok cache.Token, cacheCount, balance int) error {
	return s.appendEvent(ctx, Event{
		SessionID:    sessionID,
		Kind:         KindDeposit,
		TileI:        tile.I,
		TileJ:        tile.J,
		Token:        string(tok),
		CacheCount:   cacheCount,
		BalanceAfter: balance,
	})
}

// ListEvents returns events for a session in insertion order. kind filters
// to one event kind when non-empty.
func (s *Store) ListEvents(ctx context.Context, sessionID uuid.UUID, kind string, limit, offset int) ([]Event, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}

	query := `SELECT id, session_id, kind, recorded_at, lat, lng, tile_i, tile_j,
		token, cache_count, balance_after, active_caches
		FROM events WHERE session_id=?`
	args := []any{sessionID.String()}
	if kind != "" {
		query += ` AND kind=?`
		args = append(args, kind)
	}
	query += ` ORDER BY id ASC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var idStr string
		if err := rows.Scan(&e.ID, &idStr, &e.Kind, &e.RecordedAt, &e.Lat, &e.Lng,
			&e.TileI, &e.TileJ, &e.Token, &e.CacheCount, &e.BalanceAfter, &e.ActiveCaches); err != nil {
			return nil, err
		}
		e.SessionID = uuid.MustParse(idStr)
		out = append(out, e)
	}
	return out, rows.Err()
}

// --------- Recorder adapter ---------

// SessionRecorder adapts the store to the world.Recorder interface for one
// session. Write failures are counted, not surfaced: recording must never
// interrupt gameplay.
type SessionRecorder struct {
	store     *Store
	sessionID uuid.UUID
	dropped   int64
}

// NewSessionRecorder creates a recorder bound to the session id.
func (s *Store) NewSessionRecorder(sessionID uuid.UUID) *SessionRecorder {
	return &SessionRecorder{store: s, sessionID: sessionID}
}

// SessionID returns the bound session id.
func (r *SessionRecorder) SessionID() uuid.UUID { return r.sessionID }

// Dropped returns how many events failed to persist.
func (r *SessionRecorder) Dropped() int64 { return r.dropped }

// RecordMove implements world.Recorder.
func (r *SessionRecorder) RecordMove(pos grid.Point, activeCaches int) {
	if err := r.store.AppendMove(context.Background(), r.sessionID, pos, activeCaches); err != nil {
		r.dropped++
	}
}

// RecordCollect implements world.Recorder.
func (r *SessionRecorder) RecordCollect(tile grid.Tile, tok cache.Token, cacheCount, balance int) {
	if err := r.store.AppendCollect(context.Background(), r.sessionID, tile, tok, cacheCount, balance); err != nil {
		r.dropped++
	}
}

// RecordDeposit implements world.Recorder.
func (r *SessionRecorder) RecordDeposit(tile grid.Tile, tok cache.Token, cacheCount, balance int) {
	if err := r.store.AppendDeposit(context.Background(), r.sessionID, tile, tok, cacheCount, balance); err != nil {
		r.dropped++
	}
}
