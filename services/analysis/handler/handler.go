package handler

import (
	"github.com/railmetrics/ohespeed/internal/pkg/models"
	"github.com/railmetrics/ohespeed/services/analysis"
	httpHandler "github.com/railmetrics/ohespeed/services/analysis/handler/http"
)

// Handler combines all handlers for the analysis service
type Handler struct {
	analysisHTTP *httpHandler.AnalysisHandler
	cfg          *models.Config
}

// NewHandler creates a new combined handler
func NewHandler(analysisUC analysis.AnalysisUC, cfg *models.Config) *Handler {
	return &Handler{
		analysisHTTP: httpHandler.NewAnalysisHandler(analysisUC, cfg),
		cfg:          cfg,
	}
}
