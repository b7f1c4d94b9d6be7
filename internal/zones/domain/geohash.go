// Package domain holds the pure territory rules: spatial partitioning,
// category keys and tier pricing.
package domain

import (
	"fmt"
	"math"

	"github.com/mmcloughlin/geohash"
)

// maxPrecision is the longest geohash the 64-bit encoder produces.
const maxPrecision = 12

// Cell is the bounding box of a geohash.
type Cell struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLng float64 `json:"minLng"`
	MaxLng float64 `json:"maxLng"`
}

// Contains reports whether (lat, lng) lies in the half-open cell.
func (c Cell) Contains(lat, lng float64) bool {
	return lat >= c.MinLat && lat < c.MaxLat && lng >= c.MinLng && lng < c.MaxLng
}

// Encode returns the geohash of (lat, lng) with precision characters.
// A coordinate on a split line falls into the upper half.
func Encode(lat, lng float64, precision int) string {
	if precision <= 0 {
		return ""
	}
	if precision > maxPrecision {
		precision = maxPrecision
	}
	// the encoder works on half-open ranges, so the north pole and the
	// antimeridian are pulled into the last cell
	if lat >= 90 {
		lat = math.Nextafter(90, 0)
	}
	if lng >= 180 {
		lng = math.Nextafter(180, 0)
	}
	return geohash.EncodeWithPrecision(lat, lng, uint(precision))
}

// Decode returns the cell covered by hash.
func Decode(hash string) (Cell, error) {
	if err := geohash.Validate(hash); err != nil {
		return Cell{}, fmt.Errorf("invalid geohash %q: %w", hash, err)
	}
	box := geohash.BoundingBox(hash)
	return Cell{MinLat: box.MinLat, MaxLat: box.MaxLat, MinLng: box.MinLng, MaxLng: box.MaxLng}, nil
}

// ValidCoordinates reports whether lat and lng are on the globe.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
