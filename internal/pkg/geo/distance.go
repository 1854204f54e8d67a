package geo

import (
	"errors"
	"math"

	"github.com/railmetrics/ohespeed/internal/pkg/models"
)

// EarthRadiusM is the mean Earth radius in meters used by the haversine
// formula.
const EarthRadiusM = 6371000.0

var (
	// ErrNoSamples indicates a nearest query against an empty track index.
	ErrNoSamples = errors.New("geo: track index holds no samples")

	// ErrInvalidGeometry indicates a coordinate outside valid
	// latitude/longitude bounds reached the matching core.
	ErrInvalidGeometry = errors.New("geo: coordinate outside valid latitude/longitude bounds")
)

// Distance calculates the great-circle distance between two points in
// meters using the haversine formula. It is pure and safe for
// concurrent use.
func Distance(a, b models.GeoPoint) float64 {
	lat1 := a.Latitude * math.Pi / 180.0
	lon1 := a.Longitude * math.Pi / 180.0
	lat2 := b.Latitude * math.Pi / 180.0
	lon2 := b.Longitude * math.Pi / 180.0

	dLat := lat2 - lat1
	dLon := lon2 - lon1
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusM * c
}

// CheckPoint validates geographic bounds, returning ErrInvalidGeometry
// for coordinates no ingestion collaborator should ever let through.
func CheckPoint(p models.GeoPoint) error {
	if !p.Valid() {
		return ErrInvalidGeometry
	}
	return nil
}
