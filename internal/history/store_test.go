package history

import (
	"context"
	"testing"

	"github.com/MJE43/tokentrek-go/internal/grid"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateSession(ctx, "test_seed")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	info, err := s.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if info.ID != id {
		t.Errorf("session id = %v, want %v", info.ID, id)
	}
	if info.Seed != "test_seed" {
		t.Errorf("seed = %q, want %q", info.Seed, "test_seed")
	}
	if info.Events != 0 {
		t.Errorf("new session has %d events, want 0", info.Events)
	}
}

func TestAppendAndListEvents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateSession(ctx, "test_seed")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	tile := grid.Tile{I: 3, J: -7}
	if err := s.AppendMove(ctx, id, grid.Point{Lat: 36.9895, Lng: -122.0628}, 12); err != nil {
		t.Fatalf("AppendMove: %v", err)
	}
	if err := s.AppendCollect(ctx, id, tile, "3:-7#41", 41, 1); err != nil {
		t.Fatalf("AppendCollect: %v", err)
	}
	if err := s.AppendDeposit(ctx, id, tile, "3:-7#41", 42, 0); err != nil {
		t.Fatalf("AppendDeposit: %v", err)
	}

	events, err := s.ListEvents(ctx, id, "", 0, 0)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}

	wantKinds := []string{KindMove, KindCollect, KindDeposit}
	for i, e := range events {
		if e.Kind != wantKinds[i] {
			t.Errorf("event %d kind = %q, want %q", i, e.Kind, wantKinds[i])
		}
		if e.SessionID != id {
			t.Errorf("event %d session = %v, want %v", i, e.SessionID, id)
		}
	}

	if events[1].TileI != 3 || events[1].TileJ != -7 {
		t.Errorf("collect tile = (%d,%d), want (3,-7)", events[1].TileI, events[1].TileJ)
	}
	if events[1].Token != "3:-7#41" {
		t.Errorf("collect token = %q", events[1].Token)
	}
	if events[2].BalanceAfter != 0 {
		t.Errorf("deposit balance = %d, want 0", events[2].BalanceAfter)
	}

	info, err := s.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if info.Events != 3 {
		t.Errorf("session event count = %d, want 3", info.Events)
	}
}

func TestListEventsKindFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateSession(ctx, "test_seed")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	tile := grid.Tile{I: 1, J: 1}
	for i := 0; i < 3; i++ {
		s.AppendMove(ctx, id, grid.Point{}, 0)
	}
	s.AppendCollect(ctx, id, tile, "1:1#0", 0, 1)

	moves, err := s.ListEvents(ctx, id, KindMove, 0, 0)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(moves) != 3 {
		t.Errorf("got %d move events, want 3", len(moves))
	}

	collects, err := s.ListEvents(ctx, id, KindCollect, 0, 0)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(collects) != 1 {
		t.Errorf("got %d collect events, want 1", len(collects))
	}
}

func TestSessionRecorder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateSession(ctx, "test_seed")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	rec := s.NewSessionRecorder(id)
	rec.RecordMove(grid.Point{Lat: 1, Lng: 2}, 5)
	rec.RecordCollect(grid.Tile{I: 0, J: 0}, "0:0#7", 7, 1)
	rec.RecordDeposit(grid.Tile{I: 0, J: 0}, "0:0#7", 8, 0)

	if rec.Dropped() != 0 {
		t.Errorf("recorder dropped %d events", rec.Dropped())
	}

	events, err := s.ListEvents(ctx, id, "", 0, 0)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 3 {
		t.Errorf("got %d events, want 3", len(events))
	}
}
