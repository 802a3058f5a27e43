package cache

import (
	"fmt"
	"testing"

	"github.com/MJE43/tokentrek-go/internal/grid"
)

const testSeed = "cache_test_seed"

func TestFreshCacheReproducible(t *testing.T) {
	tiles := []grid.Tile{{I: 0, J: 0}, {I: 1, J: 23}, {I: 12, J: 3}, {I: -8, J: 42}, {I: 369894, J: -1220628}}

	for _, tile := range tiles {
		a := New(testSeed, tile)
		b := New(testSeed, tile)

		if a.Count() != b.Count() {
			t.Errorf("tile %v: counts differ: %d vs %d", tile, a.Count(), b.Count())
		}
		if a.Count() != InitialCount(testSeed, tile) {
			t.Errorf("tile %v: count %d != InitialCount %d", tile, a.Count(), InitialCount(testSeed, tile))
		}
		if a.Count() < 0 || a.Count() > 99 {
			t.Errorf("tile %v: initial count %d outside [0, 99]", tile, a.Count())
		}

		// Identifiers must match token for token.
		sa, sb := a.Snapshot(), b.Snapshot()
		ta, tb := sa.Tokens(), sb.Tokens()
		for i := range ta {
			if ta[i] != tb[i] {
				t.Errorf("tile %v: token %d differs: %q vs %q", tile, i, ta[i], tb[i])
			}
		}
	}
}

func TestInitialTokenIdentifiers(t *testing.T) {
	tile := grid.Tile{I: 5, J: -3}
	c := New(testSeed, tile)
	tokens := c.Snapshot().Tokens()

	// Serials ascend from the bottom of the stack; the top is the highest.
	for serial, tok := range tokens {
		want := Token(fmt.Sprintf("5:-3#%d", serial))
		if tok != want {
			t.Errorf("token %d = %q, want %q", serial, tok, want)
		}
	}

	if c.Count() > 0 {
		top, ok := c.Collect()
		if !ok {
			t.Fatal("collect from non-empty cache failed")
		}
		want := Token(fmt.Sprintf("5:-3#%d", c.Count()))
		if top != want {
			t.Errorf("first collect = %q, want highest serial %q", top, want)
		}
	}
}

func TestExistsDeterministic(t *testing.T) {
	const probability = 0.1

	hits := 0
	for i := -50; i < 50; i++ {
		for j := -50; j < 50; j++ {
			tile := grid.Tile{I: i, J: j}
			first := Exists(testSeed, tile, probability)
			if Exists(testSeed, tile, probability) != first {
				t.Fatalf("Exists(%v) unstable", tile)
			}
			if first {
				hits++
			}
		}
	}

	// 10000 tiles at p=0.1: expect roughly 1000 spawns.
	if hits < 700 || hits > 1300 {
		t.Errorf("spawn rate off: %d hits out of 10000 at p=0.1", hits)
	}
}

func TestCollectDepositConservation(t *testing.T) {
	tile := grid.Tile{I: 7, J: 7}
	c := New(testSeed, tile)
	initial := c.Count()

	collected := 0
	deposited := 0

	ops := []string{"c", "c", "d", "c", "d", "d", "c", "c"}
	for _, op := range ops {
		switch op {
		case "c":
			if _, ok := c.Collect(); ok {
				collected++
			}
		case "d":
			c.Deposit(Token(fmt.Sprintf("dep#%d", deposited)))
			deposited++
		}
		if c.Count() < 0 {
			t.Fatal("count went negative")
		}
	}

	if got, want := c.Count(), initial+deposited-collected; got != want {
		t.Errorf("count = %d, want initial %d + deposits %d - collects %d = %d",
			got, initial, deposited, collected, want)
	}
}

func TestCollectFromEmpty(t *testing.T) {
	c := FromSnapshot(Snapshot{tile: grid.Tile{I: 1, J: 1}})

	tok, ok := c.Collect()
	if ok {
		t.Errorf("collect from empty cache returned ok with token %q", tok)
	}
	if c.Count() != 0 {
		t.Errorf("count after empty collect = %d, want 0", c.Count())
	}
}

func TestDepositThenCollectLIFO(t *testing.T) {
	c := FromSnapshot(Snapshot{tile: grid.Tile{I: 2, J: 2}})

	c.Deposit("first")
	c.Deposit("second")
	c.Deposit("third")

	want := []Token{"third", "second", "first"}
	for _, w := range want {
		got, ok := c.Collect()
		if !ok {
			t.Fatal("unexpected empty cache")
		}
		if got != w {
			t.Errorf("collect = %q, want %q", got, w)
		}
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	tile := grid.Tile{I: 3, J: 9}
	c := New(testSeed, tile)
	c.Deposit("extra")

	snap := c.Snapshot()
	countAtSnap := c.Count()
	tokensAtSnap := snap.Tokens()

	// Mutate the live entity after snapshotting.
	c.Collect()
	c.Collect()
	c.Deposit("later")

	if snap.Count() != countAtSnap {
		t.Errorf("snapshot count changed after mutation: %d != %d", snap.Count(), countAtSnap)
	}
	for i, tok := range snap.Tokens() {
		if tok != tokensAtSnap[i] {
			t.Errorf("snapshot token %d changed after mutation", i)
		}
	}

	c.Restore(snap)
	if c.Count() != countAtSnap {
		t.Errorf("restored count = %d, want %d", c.Count(), countAtSnap)
	}
	restored := c.Snapshot().Tokens()
	for i, tok := range restored {
		if tok != tokensAtSnap[i] {
			t.Errorf("restored token %d = %q, want %q", i, tok, tokensAtSnap[i])
		}
	}
}

func TestSnapshotStore(t *testing.T) {
	store := NewSnapshotStore()
	tile := grid.Tile{I: 4, J: 4}

	if _, ok := store.Load(tile); ok {
		t.Error("load on empty store returned ok")
	}

	c := New(testSeed, tile)
	store.Save(tile, c.Snapshot())

	c.Deposit("extra")
	store.Save(tile, c.Snapshot())

	snap, ok := store.Load(tile)
	if !ok {
		t.Fatal("load after save returned absent")
	}
	if snap.Count() != c.Count() {
		t.Errorf("store kept stale snapshot: count %d, want %d", snap.Count(), c.Count())
	}
	if store.Len() != 1 {
		t.Errorf("store has %d entries, want 1 (upsert, not append)", store.Len())
	}
}
