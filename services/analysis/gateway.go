package analysis

import (
	"context"

	"github.com/railmetrics/ohespeed/internal/pkg/models"
)

// AnalysisGW defines the analysis gateways interface
type AnalysisGW interface {
	PublishAnalysisCompleted(ctx context.Context, event models.AnalysisCompletedEvent) error
}
