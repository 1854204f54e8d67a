package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railmetrics/ohespeed/internal/pkg/geo"
	"github.com/railmetrics/ohespeed/internal/pkg/logger"
	"github.com/railmetrics/ohespeed/internal/pkg/models"
	"github.com/railmetrics/ohespeed/services/analysis"
)

// stubRepo implements analysis.AnalysisRepo with overridable behavior.
type stubRepo struct {
	cached     *models.ResultSet
	cacheErr   error
	storedKey  string
	storedSet  *models.ResultSet
	createdRun *models.AnalysisRun
	createErr  error
	run        *models.AnalysisRun
	runErr     error
	results    []models.MatchResult
}

func (s *stubRepo) CreateAnalysisRun(ctx context.Context, run *models.AnalysisRun) error {
	s.createdRun = run
	return s.createErr
}

func (s *stubRepo) GetAnalysisRun(ctx context.Context, analysisID string) (*models.AnalysisRun, error) {
	return s.run, s.runErr
}

func (s *stubRepo) ListResults(ctx context.Context, analysisID string, maxDistanceM *float64) ([]models.MatchResult, error) {
	if maxDistanceM != nil {
		filtered := make([]models.MatchResult, 0, len(s.results))
		for _, r := range s.results {
			if r.DistanceM <= *maxDistanceM {
				filtered = append(filtered, r)
			}
		}
		return filtered, nil
	}
	return s.results, nil
}

func (s *stubRepo) GetCachedResultSet(ctx context.Context, contentKey string) (*models.ResultSet, error) {
	return s.cached, s.cacheErr
}

func (s *stubRepo) StoreCachedResultSet(ctx context.Context, contentKey string, rs models.ResultSet) error {
	s.storedKey = contentKey
	s.storedSet = &rs
	return nil
}

// stubGW implements analysis.AnalysisGW.
type stubGW struct {
	published []models.AnalysisCompletedEvent
	err       error
}

func (s *stubGW) PublishAnalysisCompleted(ctx context.Context, event models.AnalysisCompletedEvent) error {
	s.published = append(s.published, event)
	return s.err
}

func testUC(t *testing.T, repo *stubRepo, gw *stubGW) *AnalysisUC {
	t.Helper()
	cfg := &models.Config{
		Analysis: models.AnalysisConfig{
			DefaultThresholdM: 50,
			MinThresholdM:     10,
			MaxThresholdM:     200,
			CacheTTLMinutes:   60,
		},
	}
	appLogger, err := logger.NewAppLogger(models.LoggerConfig{Level: "error"}, "test")
	require.NoError(t, err)
	return NewAnalysisUC(cfg, repo, gw, appLogger)
}

func testRequest() *models.AnalysisRequest {
	return &models.AnalysisRequest{
		ThresholdM: 100,
		Track:      equatorTrack(),
		Structures: []models.Structure{
			{StructureID: "A1", Position: models.GeoPoint{Latitude: 0.0005, Longitude: 0}},
		},
	}
}

func TestRunAnalysisComputesStoresAndPublishes(t *testing.T) {
	repo := &stubRepo{}
	gw := &stubGW{}
	uc := testUC(t, repo, gw)

	run, err := uc.RunAnalysis(context.Background(), testRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, run.ID)
	assert.False(t, run.FromCache)
	assert.Equal(t, 1, run.TotalStructures)
	assert.Equal(t, 1, run.MatchedCount)
	assert.Equal(t, 1.0, run.SuccessRate)
	require.Len(t, run.Results.Results, 1)
	assert.Equal(t, "A1", run.Results.Results[0].StructureID)
	assert.Equal(t, 40.0, run.Results.Results[0].MatchedSpeedKmph)

	// Persisted and memoized.
	require.NotNil(t, repo.createdRun)
	assert.Equal(t, run.ID, repo.createdRun.ID)
	require.NotNil(t, repo.storedSet)
	assert.Equal(t, run.Results, *repo.storedSet)
	assert.Equal(t, ContentKey(testRequest()), repo.storedKey)

	// Event published.
	require.Len(t, gw.published, 1)
	assert.Equal(t, run.ID, gw.published[0].AnalysisID)
	assert.Equal(t, 1, gw.published[0].MatchedCount)
}

func TestRunAnalysisServesFromCache(t *testing.T) {
	cached := models.ResultSet{
		Results: []models.MatchResult{
			{StructureID: "CACHED", MatchedSpeedKmph: 99, DistanceM: 1},
		},
		TotalStructures: 1,
	}
	repo := &stubRepo{cached: &cached}
	gw := &stubGW{}
	uc := testUC(t, repo, gw)

	run, err := uc.RunAnalysis(context.Background(), testRequest())
	require.NoError(t, err)

	assert.True(t, run.FromCache)
	require.Len(t, run.Results.Results, 1)
	assert.Equal(t, "CACHED", run.Results.Results[0].StructureID)
	// Nothing recomputed, so nothing re-memoized.
	assert.Nil(t, repo.storedSet)
}

func TestRunAnalysisCacheFailureFallsBackToCompute(t *testing.T) {
	repo := &stubRepo{cacheErr: errors.New("redis down")}
	gw := &stubGW{}
	uc := testUC(t, repo, gw)

	run, err := uc.RunAnalysis(context.Background(), testRequest())
	require.NoError(t, err)
	assert.False(t, run.FromCache)
	assert.Equal(t, 1, run.MatchedCount)
}

func TestRunAnalysisAppliesDefaultThreshold(t *testing.T) {
	repo := &stubRepo{}
	gw := &stubGW{}
	uc := testUC(t, repo, gw)

	req := testRequest()
	req.ThresholdM = 0

	run, err := uc.RunAnalysis(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 50.0, run.ThresholdM)
}

func TestRunAnalysisRejectsInvalidTrack(t *testing.T) {
	repo := &stubRepo{}
	gw := &stubGW{}
	uc := testUC(t, repo, gw)

	req := testRequest()
	req.Track = append(req.Track, models.TrackSample{
		DeviceID: "RTIS-001",
		Position: models.GeoPoint{Latitude: 120, Longitude: 0},
	})

	_, err := uc.RunAnalysis(context.Background(), req)
	assert.ErrorIs(t, err, geo.ErrInvalidGeometry)
	assert.Nil(t, repo.createdRun)
	assert.Empty(t, gw.published)
}

func TestRunAnalysisPublishFailureIsNotFatal(t *testing.T) {
	repo := &stubRepo{}
	gw := &stubGW{err: errors.New("nats down")}
	uc := testUC(t, repo, gw)

	run, err := uc.RunAnalysis(context.Background(), testRequest())
	require.NoError(t, err)
	assert.NotNil(t, run)
}

func TestGetAnalysisMergesRunAndResults(t *testing.T) {
	repo := &stubRepo{
		run: &models.AnalysisRun{ID: "run-1", TotalStructures: 3},
		results: []models.MatchResult{
			{StructureID: "S1", DistanceM: 12},
			{StructureID: "S2", DistanceM: 80},
		},
	}
	uc := testUC(t, repo, &stubGW{})

	run, err := uc.GetAnalysis(context.Background(), "run-1", nil)
	require.NoError(t, err)
	assert.Len(t, run.Results.Results, 2)
	assert.Equal(t, 3, run.Results.TotalStructures)

	maxDist := 50.0
	run, err = uc.GetAnalysis(context.Background(), "run-1", &maxDist)
	require.NoError(t, err)
	require.Len(t, run.Results.Results, 1)
	assert.Equal(t, "S1", run.Results.Results[0].StructureID)
}

func TestGetAnalysisNotFound(t *testing.T) {
	repo := &stubRepo{runErr: analysis.ErrAnalysisNotFound}
	uc := testUC(t, repo, &stubGW{})

	_, err := uc.GetAnalysis(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, analysis.ErrAnalysisNotFound)
}
