package gateway

import (
	"context"
	"fmt"

	"github.com/railmetrics/ohespeed/internal/pkg/constants"
	"github.com/railmetrics/ohespeed/internal/pkg/models"
	natspkg "github.com/railmetrics/ohespeed/internal/pkg/nats"
)

// AnalysisGW handles events published by the analysis service
type AnalysisGW struct {
	natsClient *natspkg.Client
}

// NewAnalysisGW creates a new analysis gateway
func NewAnalysisGW(natsClient *natspkg.Client) *AnalysisGW {
	return &AnalysisGW{
		natsClient: natsClient,
	}
}

// PublishAnalysisCompleted publishes an analysis completed event
func (g *AnalysisGW) PublishAnalysisCompleted(ctx context.Context, event models.AnalysisCompletedEvent) error {
	if err := g.natsClient.PublishJSON(constants.SubjectAnalysisCompleted, event); err != nil {
		return fmt.Errorf("failed to publish analysis completed event: %w", err)
	}

	return nil
}
