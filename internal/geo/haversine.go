// Package geo holds the pure geometry used by the facility pipeline.
package geo

import (
	"math"

	"github.com/UnknownOlympus/asclepius/internal/models"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between a and b using the
// Haversine formula. The value is computed at full precision and rounded to
// two decimal places.
func DistanceKm(a, b models.Coordinate) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	deltaLat := toRadians(b.Latitude - a.Latitude)
	deltaLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	// Rounding error can push h a hair past 1 for antipodal points.
	h = math.Min(1, math.Max(0, h))

	return round2(2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h)))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func round2(v float64) float64 {
	const scale = 100
	return math.Round(v*scale) / scale
}
