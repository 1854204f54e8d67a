package analysis

import (
	"context"

	"github.com/railmetrics/ohespeed/internal/pkg/models"
)

// AnalysisRepo defines the interface for analysis data access operations
type AnalysisRepo interface {
	// Run persistence
	CreateAnalysisRun(ctx context.Context, run *models.AnalysisRun) error
	GetAnalysisRun(ctx context.Context, analysisID string) (*models.AnalysisRun, error)
	ListResults(ctx context.Context, analysisID string, maxDistanceM *float64) ([]models.MatchResult, error)

	// Memoized result sets keyed on input content
	GetCachedResultSet(ctx context.Context, contentKey string) (*models.ResultSet, error)
	StoreCachedResultSet(ctx context.Context, contentKey string, rs models.ResultSet) error
}
