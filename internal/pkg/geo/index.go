package geo

import (
	"fmt"
	"math"

	"github.com/mmcloughlin/geohash"

	"github.com/railmetrics/ohespeed/internal/pkg/models"
)

const (
	// indexPrecision is the geohash precision for grid buckets. Cells at
	// precision 6 are roughly 1.2 km x 0.6 km, two orders of magnitude
	// above the operator threshold range, so the first ring almost
	// always bounds the search.
	indexPrecision = 6

	// maxRings caps the expanding ring search before falling back to a
	// linear scan. At precision 6 this covers roughly 40 km around the
	// query point.
	maxRings = 64

	// metersPerDegree is the meridian length of one degree of latitude.
	metersPerDegree = EarthRadiusM * math.Pi / 180.0

	// maxGridLatitude is the latitude beyond which geohash cells become
	// too narrow for the ring bound; queries there use the linear scan.
	maxGridLatitude = 85.0
)

// TrackIndex holds one run's track samples and answers nearest-point
// queries. Samples are bucketed into geohash grid cells; queries expand
// outward ring by ring until no unscanned cell can hold a closer
// sample. Bucketing never changes nearest-point or tie-break semantics:
// on equal distance the sample earliest in insertion order wins, exactly
// as a linear scan would decide. The index is read-only after
// construction and safe for concurrent queries.
type TrackIndex struct {
	samples []models.TrackSample
	buckets map[string][]int
}

// NewTrackIndex builds an index over the given samples. It rejects the
// first sample carrying an out-of-bounds coordinate; ingestion is
// supposed to have dropped those already.
func NewTrackIndex(samples []models.TrackSample) (*TrackIndex, error) {
	idx := &TrackIndex{
		samples: samples,
		buckets: make(map[string][]int, len(samples)),
	}

	for i, s := range samples {
		if err := CheckPoint(s.Position); err != nil {
			return nil, fmt.Errorf("track sample %d (device %s): %w", i, s.DeviceID, err)
		}
		cell := geohash.EncodeWithPrecision(s.Position.Latitude, s.Position.Longitude, indexPrecision)
		idx.buckets[cell] = append(idx.buckets[cell], i)
	}

	return idx, nil
}

// Len returns the number of indexed samples.
func (idx *TrackIndex) Len() int {
	return len(idx.samples)
}

// Nearest returns the sample minimizing the haversine distance to p and
// that distance in meters. Ties are broken by earliest insertion order.
// It returns ErrNoSamples on an empty index and ErrInvalidGeometry for
// an out-of-bounds query point.
func (idx *TrackIndex) Nearest(p models.GeoPoint) (models.TrackSample, float64, error) {
	if err := CheckPoint(p); err != nil {
		return models.TrackSample{}, 0, err
	}
	if len(idx.samples) == 0 {
		return models.TrackSample{}, 0, ErrNoSamples
	}
	if math.Abs(p.Latitude) > maxGridLatitude {
		return idx.nearestLinear(p)
	}

	center := geohash.EncodeWithPrecision(p.Latitude, p.Longitude, indexPrecision)
	heightDeg, widthDeg := cellSpanDeg(center)

	visited := map[string]bool{center: true}
	frontier := []string{center}

	bestIdx := -1
	bestDist := 0.0

	for ring := 0; ring <= maxRings; ring++ {
		for _, cell := range frontier {
			for _, i := range idx.buckets[cell] {
				d := Distance(p, idx.samples[i].Position)
				if bestIdx == -1 || d < bestDist || (d == bestDist && i < bestIdx) {
					bestIdx = i
					bestDist = d
				}
			}
		}

		if bestIdx >= 0 {
			// Any sample beyond this ring is separated from p by at
			// least ring full grid cells.
			span := minCellSpanM(p.Latitude, ring, heightDeg, widthDeg)
			if span <= 0 {
				return idx.nearestLinear(p)
			}
			if float64(ring)*span > bestDist {
				return idx.samples[bestIdx], bestDist, nil
			}
		}

		next := make([]string, 0, len(frontier)*3)
		for _, cell := range frontier {
			for _, n := range geohash.Neighbors(cell) {
				if !visited[n] {
					visited[n] = true
					next = append(next, n)
				}
			}
		}
		frontier = next
	}

	// The track is too far from the query for the grid walk; a full
	// scan still gives the exact answer.
	return idx.nearestLinear(p)
}

// nearestLinear is the brute-force baseline; it defines the semantics
// the grid search must reproduce.
func (idx *TrackIndex) nearestLinear(p models.GeoPoint) (models.TrackSample, float64, error) {
	bestIdx := -1
	bestDist := 0.0
	for i, s := range idx.samples {
		d := Distance(p, s.Position)
		if bestIdx == -1 || d < bestDist {
			bestIdx = i
			bestDist = d
		}
	}
	return idx.samples[bestIdx], bestDist, nil
}

// cellSpanDeg returns the latitude and longitude spans of a grid cell
// in degrees.
func cellSpanDeg(cell string) (heightDeg, widthDeg float64) {
	box := geohash.BoundingBox(cell)
	return box.MaxLat - box.MinLat, box.MaxLng - box.MinLng
}

// minCellSpanM returns a lower bound in meters on the span of any grid
// cell reachable within ring+1 rings of a query at the given latitude.
// Longitude spans shrink toward the poles, so the width is evaluated at
// the highest latitude the search could have reached.
func minCellSpanM(lat float64, ring int, heightDeg, widthDeg float64) float64 {
	heightM := heightDeg * metersPerDegree

	worstLat := math.Abs(lat) + float64(ring+1)*heightDeg
	if worstLat >= 90 {
		return 0
	}
	widthM := widthDeg * metersPerDegree * math.Cos(worstLat*math.Pi/180.0)

	return math.Min(heightM, widthM)
}
