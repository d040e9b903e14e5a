// Package geocode resolves Indonesian addresses to map coordinates through
// a geocoding service, with fallback queries and manual override.
package geocode

import (
	"errors"
	"fmt"
	"math"

	"github.com/mmcloughlin/geohash"
)

// Indonesia's bounding box.
const (
	MinLat = -11.0
	MaxLat = 6.0
	MinLon = 95.0
	MaxLon = 141.0
)

var (
	// ErrMissingRegion is returned by Detect when district, regency and
	// province are all empty.
	ErrMissingRegion = errors.New("district, regency or province is required")

	// ErrOutOfBounds is returned for coordinates outside Indonesia.
	ErrOutOfBounds = errors.New("coordinates are outside Indonesia")

	// ErrNotFound is returned when every fallback query came back empty.
	ErrNotFound = errors.New("location not found")
)

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewCoordinate rounds lat and lon to 6 decimals and checks that the point
// lies inside Indonesia.
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	c := Coordinate{Lat: Round6(lat), Lon: Round6(lon)}
	if !c.InIndonesia() {
		return Coordinate{}, fmt.Errorf("%w: %s", ErrOutOfBounds, c)
	}
	return c, nil
}

// InIndonesia reports whether c lies inside the bounding box.
func (c Coordinate) InIndonesia() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return false
	}
	return c.Lat >= MinLat && c.Lat <= MaxLat && c.Lon >= MinLon && c.Lon <= MaxLon
}

// Geohash returns the 12-character geohash of c.
func (c Coordinate) Geohash() string {
	return geohash.Encode(c.Lat, c.Lon)
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

// Round6 rounds v to 6 decimal places.
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
