package grid

import (
	"math"
	"testing"
)

func TestToTileFloorsNegatives(t *testing.T) {
	m, err := NewMapper(1e-4, Point{})
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}

	tests := []struct {
		name  string
		lat   float64
		lng   float64
		wantI int
		wantJ int
	}{
		{"origin", 0, 0, 0, 0},
		{"mid cell positive", 0.00025, 0.00035, 2, 3},
		{"just below zero lat", -0.00001, 0, -1, 0},
		{"just below zero lng", 0, -0.00001, 0, -1},
		{"both negative", -0.00025, -0.00015, -3, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tile := m.ToTile(tt.lat, tt.lng)
			if tile.I != tt.wantI || tile.J != tt.wantJ {
				t.Errorf("ToTile(%v, %v) = %v, want (%d,%d)", tt.lat, tt.lng, tile, tt.wantI, tt.wantJ)
			}
		})
	}
}

func TestBoundsContainPoint(t *testing.T) {
	m, err := NewMapper(1e-4, Point{})
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}

	points := []Point{
		{36.98955, -122.06285},
		{0.00005, 0.00005},
		{-45.123456, 170.654321},
		{-0.00005, -0.00005},
		{89.99995, -179.99995},
	}

	for _, p := range points {
		tile := m.ToTile(p.Lat, p.Lng)
		b := m.TileBounds(tile)
		if !b.Contains(p) {
			t.Errorf("TileBounds(ToTile(%v)) = %+v does not contain the point", p, b)
		}
	}
}

func TestInteriorPointsRoundTrip(t *testing.T) {
	m, err := NewMapper(1e-4, Point{})
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}

	tiles := []Tile{{0, 0}, {1, 1}, {-1, -1}, {369894, -1220628}, {-5000, 7000}}
	for _, tile := range tiles {
		b := m.TileBounds(tile)
		// Points strictly inside the cell must map back to the same tile.
		inside := []Point{
			{b.LatMin + 0.25e-4, b.LngMin + 0.25e-4},
			{b.LatMin + 0.5e-4, b.LngMin + 0.5e-4},
			{b.LatMin + 0.75e-4, b.LngMin + 0.75e-4},
		}
		for _, p := range inside {
			if got := m.ToTile(p.Lat, p.Lng); got != tile {
				t.Errorf("ToTile(%v) = %v, want %v", p, got, tile)
			}
		}
	}
}

func TestTileKeyInjective(t *testing.T) {
	a := Tile{1, 23}
	b := Tile{12, 3}
	if a.Key() == b.Key() {
		t.Errorf("tile keys collide: %q vs %q", a.Key(), b.Key())
	}
	if got, want := (Tile{-4, 7}).Key(), "-4,7"; got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
}

func TestMapperWithOrigin(t *testing.T) {
	origin := Point{36.9895, -122.0628}
	m, err := NewMapper(1e-4, origin)
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}

	if tile := m.ToTile(origin.Lat, origin.Lng); tile != (Tile{0, 0}) {
		t.Errorf("origin should map to tile (0,0), got %v", tile)
	}

	center := m.TileCenter(Tile{0, 0})
	if got := m.ToTile(center.Lat, center.Lng); got != (Tile{0, 0}) {
		t.Errorf("tile center maps to %v, want (0,0)", got)
	}
}

func TestNewMapperRejectsBadTileSize(t *testing.T) {
	for _, size := range []float64{0, -1e-4, math.NaN(), math.Inf(1)} {
		if _, err := NewMapper(size, Point{}); err == nil {
			t.Errorf("NewMapper(%v) accepted invalid tile size", size)
		}
	}
}

func TestDistanceMeters(t *testing.T) {
	// One degree of latitude is roughly 111 km.
	d := DistanceMeters(Point{0, 0}, Point{1, 0})
	if d < 110000 || d > 112000 {
		t.Errorf("1 degree latitude = %v m, want ~111195", d)
	}

	if d := DistanceMeters(Point{36.9895, -122.0628}, Point{36.9895, -122.0628}); d != 0 {
		t.Errorf("distance to self = %v, want 0", d)
	}

	// Symmetry.
	a, b := Point{10, 20}, Point{-30, 40}
	if DistanceMeters(a, b) != DistanceMeters(b, a) {
		t.Error("distance is not symmetric")
	}
}

func TestDegreesToMeters(t *testing.T) {
	if got := DegreesToMeters(1); got != MetersPerDegree {
		t.Errorf("DegreesToMeters(1) = %v, want %v", got, MetersPerDegree)
	}
}
