package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/railmetrics/ohespeed/internal/pkg/middleware"
)

// RegisterRoutes registers all HTTP routes
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Token exchange for trusted clients (API key required)
	e.POST("/auth/token", h.analysisHTTP.IssueToken, middleware.ValidateAPIKey())

	// Analysis API (bearer token required)
	v1 := e.Group("/v1", middleware.JWTAuthMiddleware(h.cfg.JWT))

	analyses := v1.Group("/analyses")
	analyses.POST("", h.analysisHTTP.Analyze)
	analyses.POST("/upload", h.analysisHTTP.AnalyzeUpload)
	analyses.GET("/:analysisID", h.analysisHTTP.GetAnalysis)
	analyses.GET("/:analysisID/export", h.analysisHTTP.ExportCSV)
}
