package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railmetrics/ohespeed/internal/pkg/geo"
	"github.com/railmetrics/ohespeed/internal/pkg/models"
)

func buildIndex(t *testing.T, samples []models.TrackSample) *geo.TrackIndex {
	t.Helper()
	idx, err := geo.NewTrackIndex(samples)
	require.NoError(t, err)
	return idx
}

func equatorTrack() []models.TrackSample {
	return []models.TrackSample{
		{
			DeviceID:    "RTIS-001",
			LoggingTime: "10:00",
			Position:    models.GeoPoint{Latitude: 0, Longitude: 0},
			SpeedKmph:   40,
		},
		{
			DeviceID:    "RTIS-001",
			LoggingTime: "10:01",
			Position:    models.GeoPoint{Latitude: 0.001, Longitude: 0},
			SpeedKmph:   60,
		},
	}
}

func TestMatchStructuresTieGoesToEarliestSample(t *testing.T) {
	idx := buildIndex(t, equatorTrack())
	structures := []models.Structure{
		{StructureID: "A1", Position: models.GeoPoint{Latitude: 0.0005, Longitude: 0}},
	}

	rs, err := MatchStructures(structures, idx, 100, 0)
	require.NoError(t, err)

	require.Len(t, rs.Results, 1)
	r := rs.Results[0]
	assert.Equal(t, "A1", r.StructureID)
	assert.Equal(t, 40.0, r.MatchedSpeedKmph)
	assert.Equal(t, "10:00", r.MatchedTime)
	assert.InDelta(t, 55.5, r.DistanceM, 1.0)
	assert.Equal(t, models.GeoPoint{Latitude: 0, Longitude: 0}, r.TrackPoint)
	assert.Equal(t, models.GeoPoint{Latitude: 0.0005, Longitude: 0}, r.StructurePoint)
}

func TestMatchStructuresBeyondThresholdProducesNoRecord(t *testing.T) {
	idx := buildIndex(t, equatorTrack())
	structures := []models.Structure{
		{StructureID: "FAR", Position: models.GeoPoint{Latitude: 1.0, Longitude: 0}},
	}

	rs, err := MatchStructures(structures, idx, 100, 0)
	require.NoError(t, err)

	assert.Empty(t, rs.Results)
	assert.Equal(t, 1, rs.TotalStructures)
	assert.Equal(t, 0.0, rs.SuccessRate())
}

func TestMatchStructuresThresholdIsClosedBound(t *testing.T) {
	idx := buildIndex(t, []models.TrackSample{
		{
			DeviceID:    "RTIS-001",
			LoggingTime: "10:00",
			Position:    models.GeoPoint{Latitude: 0, Longitude: 0},
			SpeedKmph:   40,
		},
	})
	structures := []models.Structure{
		{StructureID: "S1", Position: models.GeoPoint{Latitude: 0.0005, Longitude: 0}},
	}

	sample, distance, err := idx.Nearest(structures[0].Position)
	require.NoError(t, err)
	require.Equal(t, "10:00", sample.LoggingTime)

	// Exactly at the distance: matched.
	rs, err := MatchStructures(structures, idx, distance, 0)
	require.NoError(t, err)
	assert.Len(t, rs.Results, 1)

	// Just below: unmatched.
	rs, err = MatchStructures(structures, idx, distance-0.01, 0)
	require.NoError(t, err)
	assert.Empty(t, rs.Results)
}

func TestMatchStructuresEmptyTrack(t *testing.T) {
	idx := buildIndex(t, nil)
	structures := []models.Structure{
		{StructureID: "S1", Position: models.GeoPoint{Latitude: 0, Longitude: 0}},
		{StructureID: "S2", Position: models.GeoPoint{Latitude: 0.001, Longitude: 0}},
	}

	rs, err := MatchStructures(structures, idx, 100, 0)
	require.NoError(t, err)
	assert.Empty(t, rs.Results)
	assert.Equal(t, 2, rs.TotalStructures)
}

func TestMatchStructuresEmptyStructures(t *testing.T) {
	idx := buildIndex(t, equatorTrack())

	rs, err := MatchStructures(nil, idx, 100, 0)
	require.NoError(t, err)
	assert.Empty(t, rs.Results)
	assert.Equal(t, 0, rs.TotalStructures)
}

func TestMatchStructuresInvalidStructureFailsFast(t *testing.T) {
	idx := buildIndex(t, equatorTrack())
	structures := []models.Structure{
		{StructureID: "BAD", Position: models.GeoPoint{Latitude: 0, Longitude: 181}},
	}

	_, err := MatchStructures(structures, idx, 100, 0)
	assert.ErrorIs(t, err, geo.ErrInvalidGeometry)
}

func TestMatchStructuresPreservesInputOrder(t *testing.T) {
	track := make([]models.TrackSample, 0, 50)
	for i := 0; i < 50; i++ {
		track = append(track, models.TrackSample{
			DeviceID:    "RTIS-001",
			LoggingTime: "t",
			Position:    models.GeoPoint{Latitude: float64(i) * 0.001, Longitude: 0},
			SpeedKmph:   float64(i),
		})
	}
	idx := buildIndex(t, track)

	// Structures supplied in descending latitude; results must keep
	// that order, not sort by distance or id.
	structures := make([]models.Structure, 0, 50)
	for i := 49; i >= 0; i-- {
		structures = append(structures, models.Structure{
			StructureID: string(rune('A' + i%26)),
			Position:    models.GeoPoint{Latitude: float64(i) * 0.001, Longitude: 0},
		})
	}

	rs, err := MatchStructures(structures, idx, 100, 4)
	require.NoError(t, err)
	require.Len(t, rs.Results, 50)
	for i, r := range rs.Results {
		assert.Equal(t, structures[i].StructureID, r.StructureID)
		assert.Equal(t, structures[i].Position, r.StructurePoint)
	}
}

func TestMatchStructuresThresholdMonotonicity(t *testing.T) {
	idx := buildIndex(t, equatorTrack())
	structures := []models.Structure{
		{StructureID: "S1", Position: models.GeoPoint{Latitude: 0.0002, Longitude: 0}},
		{StructureID: "S2", Position: models.GeoPoint{Latitude: 0.0015, Longitude: 0}},
		{StructureID: "S3", Position: models.GeoPoint{Latitude: 0.003, Longitude: 0}},
	}

	small, err := MatchStructures(structures, idx, 60, 0)
	require.NoError(t, err)
	large, err := MatchStructures(structures, idx, 250, 0)
	require.NoError(t, err)

	matchedLarge := make(map[string]bool)
	for _, r := range large.Results {
		matchedLarge[r.StructureID] = true
	}
	for _, r := range small.Results {
		assert.True(t, matchedLarge[r.StructureID],
			"structure %s matched at 60m but not at 250m", r.StructureID)
	}
	assert.GreaterOrEqual(t, len(large.Results), len(small.Results))
}

func TestMatchStructuresIdempotent(t *testing.T) {
	idx := buildIndex(t, equatorTrack())
	structures := []models.Structure{
		{StructureID: "S1", Position: models.GeoPoint{Latitude: 0.0005, Longitude: 0}},
		{StructureID: "S2", Position: models.GeoPoint{Latitude: 0.0009, Longitude: 0}},
	}

	first, err := MatchStructures(structures, idx, 100, 2)
	require.NoError(t, err)
	second, err := MatchStructures(structures, idx, 100, 2)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestMatchStructuresSharedSampleAllowed(t *testing.T) {
	idx := buildIndex(t, equatorTrack())
	structures := []models.Structure{
		{StructureID: "S1", Position: models.GeoPoint{Latitude: 0.0001, Longitude: 0}},
		{StructureID: "S2", Position: models.GeoPoint{Latitude: 0.0002, Longitude: 0}},
	}

	rs, err := MatchStructures(structures, idx, 100, 0)
	require.NoError(t, err)

	require.Len(t, rs.Results, 2)
	assert.Equal(t, rs.Results[0].TrackPoint, rs.Results[1].TrackPoint)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 55.51, round2(55.5051))
	assert.Equal(t, 55.5, round2(55.504))
	assert.Equal(t, 0.0, round2(0))
}

func TestContentKeyDeterministic(t *testing.T) {
	req := &models.AnalysisRequest{
		ThresholdM: 50,
		Track:      equatorTrack(),
		Structures: []models.Structure{
			{StructureID: "S1", Position: models.GeoPoint{Latitude: 0.0005, Longitude: 0}},
		},
	}

	assert.Equal(t, ContentKey(req), ContentKey(req))

	changed := *req
	changed.ThresholdM = 51
	assert.NotEqual(t, ContentKey(req), ContentKey(&changed))
}
