package analysis

import (
	"context"

	"github.com/railmetrics/ohespeed/internal/pkg/models"
)

// AnalysisUC defines the interface for analysis business logic
type AnalysisUC interface {
	RunAnalysis(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisRun, error)
	GetAnalysis(ctx context.Context, analysisID string, maxDistanceM *float64) (*models.AnalysisRun, error)
}
