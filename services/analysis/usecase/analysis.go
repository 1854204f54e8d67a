package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/railmetrics/ohespeed/internal/pkg/geo"
	"github.com/railmetrics/ohespeed/internal/pkg/logger"
	"github.com/railmetrics/ohespeed/internal/pkg/models"
	"github.com/railmetrics/ohespeed/services/analysis"
)

// AnalysisUC implements the analysis business logic
type AnalysisUC struct {
	cfg          *models.Config
	analysisRepo analysis.AnalysisRepo
	analysisGW   analysis.AnalysisGW
	log          *logger.AppLogger
}

// NewAnalysisUC creates a new analysis usecase
func NewAnalysisUC(
	cfg *models.Config,
	analysisRepo analysis.AnalysisRepo,
	analysisGW analysis.AnalysisGW,
	appLogger *logger.AppLogger,
) *AnalysisUC {
	return &AnalysisUC{
		cfg:          cfg,
		analysisRepo: analysisRepo,
		analysisGW:   analysisGW,
		log:          appLogger,
	}
}

// RunAnalysis matches the request's structures against its track,
// serving the result set from the memo cache when the same inputs were
// analyzed before, then stores the run and publishes a completion
// event.
func (uc *AnalysisUC) RunAnalysis(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisRun, error) {
	if req.ThresholdM <= 0 {
		req.ThresholdM = uc.cfg.Analysis.DefaultThresholdM
	}

	contentKey := ContentKey(req)

	cached, err := uc.analysisRepo.GetCachedResultSet(ctx, contentKey)
	if err != nil {
		// Cache trouble never fails a run; recompute instead.
		uc.log.WithError(err).Warn("memo cache lookup failed")
		cached = nil
	}

	var resultSet models.ResultSet
	fromCache := cached != nil
	if fromCache {
		resultSet = *cached
	} else {
		index, err := geo.NewTrackIndex(req.Track)
		if err != nil {
			return nil, fmt.Errorf("failed to index track: %w", err)
		}

		resultSet, err = MatchStructures(req.Structures, index, req.ThresholdM, uc.cfg.Analysis.MaxWorkers)
		if err != nil {
			return nil, fmt.Errorf("failed to match structures: %w", err)
		}

		if err := uc.analysisRepo.StoreCachedResultSet(ctx, contentKey, resultSet); err != nil {
			uc.log.WithError(err).Warn("failed to memoize result set")
		}
	}

	run := &models.AnalysisRun{
		ID:              uuid.New().String(),
		ThresholdM:      req.ThresholdM,
		TotalStructures: resultSet.TotalStructures,
		MatchedCount:    resultSet.MatchedCount(),
		SuccessRate:     resultSet.SuccessRate(),
		FromCache:       fromCache,
		CreatedAt:       models.Now(),
		Results:         resultSet,
	}

	if err := uc.analysisRepo.CreateAnalysisRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to store analysis run: %w", err)
	}

	event := models.AnalysisCompletedEvent{
		AnalysisID:      run.ID,
		ThresholdM:      run.ThresholdM,
		TotalStructures: run.TotalStructures,
		MatchedCount:    run.MatchedCount,
		SuccessRate:     run.SuccessRate,
		FromCache:       run.FromCache,
		CompletedAt:     run.CreatedAt,
	}
	if err := uc.analysisGW.PublishAnalysisCompleted(ctx, event); err != nil {
		// Downstream consumers can survive a missed event; the stored
		// run remains the source of truth.
		uc.log.WithError(err).Warn("failed to publish analysis completed event")
	}

	uc.log.WithFields(logrus.Fields{
		"analysis_id":      run.ID,
		"total_structures": run.TotalStructures,
		"matched_count":    run.MatchedCount,
		"from_cache":       run.FromCache,
	}).Info("analysis run completed")

	return run, nil
}

// GetAnalysis loads a stored run; maxDistanceM optionally narrows the
// returned results the way the reporting table filter does.
func (uc *AnalysisUC) GetAnalysis(ctx context.Context, analysisID string, maxDistanceM *float64) (*models.AnalysisRun, error) {
	run, err := uc.analysisRepo.GetAnalysisRun(ctx, analysisID)
	if err != nil {
		return nil, err
	}

	results, err := uc.analysisRepo.ListResults(ctx, analysisID, maxDistanceM)
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis results: %w", err)
	}

	run.Results = models.ResultSet{
		Results:         results,
		TotalStructures: run.TotalStructures,
	}

	return run, nil
}
