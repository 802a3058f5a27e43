package grid

import (
	"fmt"
	"math"
)

const (
	// earthRadiusMeters is the mean Earth radius used for haversine distance.
	earthRadiusMeters = 6371000.0

	// MetersPerDegree approximates one degree of latitude at the equator,
	// used to convert a radius expressed in degrees to meters.
	MetersPerDegree = 111320.0
)

// Tile identifies one cell of the infinite tile lattice. Tiles are value
// types: two tiles are the same cell iff both indices match, which makes
// Tile usable directly as a map key.
type Tile struct {
	I int `json:"i"`
	J int `json:"j"`
}

// Key returns the canonical string encoding of the tile, "i,j". The comma
// separator keeps the encoding injective over integer pairs, so (1,23) and
// (12,3) never share a key. All seeded hashing uses this encoding.
func (t Tile) Key() string {
	return fmt.Sprintf("%d,%d", t.I, t.J)
}

// String implements fmt.Stringer.
func (t Tile) String() string {
	return "(" + t.Key() + ")"
}

// Point is a geographic coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is the geographic rectangle covered by one tile. The range is
// half-open, [Min, Max), though renderers typically draw it inclusive.
type Bounds struct {
	LatMin float64 `json:"lat_min"`
	LngMin float64 `json:"lng_min"`
	LatMax float64 `json:"lat_max"`
	LngMax float64 `json:"lng_max"`
}

// Contains reports whether the point falls inside the half-open rectangle.
func (b Bounds) Contains(p Point) bool {
	return p.Lat >= b.LatMin && p.Lat < b.LatMax &&
		p.Lng >= b.LngMin && p.Lng < b.LngMax
}

// Mapper converts between continuous geographic coordinates and integer
// tile indices on a lattice of tileSize-degree cells anchored at origin.
type Mapper struct {
	tileSize float64
	origin   Point
}

// NewMapper creates a mapper for the given cell size in degrees. The origin
// anchors tile (0,0); a zero origin reproduces plain floor(lat/tileSize).
func NewMapper(tileSize float64, origin Point) (*Mapper, error) {
	if tileSize <= 0 || math.IsNaN(tileSize) || math.IsInf(tileSize, 0) {
		return nil, fmt.Errorf("tile size must be a positive finite number, got %v", tileSize)
	}
	return &Mapper{tileSize: tileSize, origin: origin}, nil
}

// TileSize returns the cell size in degrees.
func (m *Mapper) TileSize() float64 {
	return m.tileSize
}

// ToTile maps a geographic point to the tile containing it. Floor division
// (not truncation) keeps negative coordinates in the correct cell.
func (m *Mapper) ToTile(lat, lng float64) Tile {
	return Tile{
		I: int(math.Floor((lat - m.origin.Lat) / m.tileSize)),
		J: int(math.Floor((lng - m.origin.Lng) / m.tileSize)),
	}
}

// TileBounds returns the geographic rectangle covered by the tile.
func (m *Mapper) TileBounds(t Tile) Bounds {
	return Bounds{
		LatMin: m.origin.Lat + float64(t.I)*m.tileSize,
		LngMin: m.origin.Lng + float64(t.J)*m.tileSize,
		LatMax: m.origin.Lat + float64(t.I+1)*m.tileSize,
		LngMax: m.origin.Lng + float64(t.J+1)*m.tileSize,
	}
}

// TileCenter returns the center point of the tile, the reference point for
// visibility-radius checks.
func (m *Mapper) TileCenter(t Tile) Point {
	return Point{
		Lat: m.origin.Lat + (float64(t.I)+0.5)*m.tileSize,
		Lng: m.origin.Lng + (float64(t.J)+0.5)*m.tileSize,
	}
}

// DistanceMeters returns the haversine great-circle distance between two
// points in meters.
func DistanceMeters(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng

	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// DegreesToMeters converts a distance expressed in degrees of latitude to
// meters using the fixed equatorial conversion factor.
func DegreesToMeters(deg float64) float64 {
	return deg * MetersPerDegree
}
