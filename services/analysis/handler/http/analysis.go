package http

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/railmetrics/ohespeed/internal/pkg/ingest"
	"github.com/railmetrics/ohespeed/internal/pkg/models"
	"github.com/railmetrics/ohespeed/internal/utils"
	"github.com/railmetrics/ohespeed/services/analysis"
)

// AnalysisHandler handles HTTP requests for the analysis service
type AnalysisHandler struct {
	analysisUC analysis.AnalysisUC
	cfg        *models.Config
}

// NewAnalysisHandler creates a new analysis HTTP handler
func NewAnalysisHandler(analysisUC analysis.AnalysisUC, cfg *models.Config) *AnalysisHandler {
	return &AnalysisHandler{
		analysisUC: analysisUC,
		cfg:        cfg,
	}
}

// uploadResponse wraps a run with the ingestion drop counts so callers
// can see how many rows their files lost to validation.
type uploadResponse struct {
	Run                  *models.AnalysisRun `json:"run"`
	DroppedTrainRows     int                 `json:"dropped_train_rows"`
	DroppedStructureRows int                 `json:"dropped_structure_rows"`
}

// Analyze runs a matching analysis over JSON inputs
func (h *AnalysisHandler) Analyze(c echo.Context) error {
	var req models.AnalysisRequest
	if err := c.Bind(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request format")
	}

	if err := h.checkThreshold(req.ThresholdM); err != nil {
		return utils.BadRequestResponse(c, err.Error())
	}

	run, err := h.analysisUC.RunAnalysis(c.Request().Context(), &req)
	if err != nil {
		return utils.BadRequestResponse(c, err.Error())
	}

	return utils.SuccessResponse(c, http.StatusOK, "Analysis completed", run)
}

// AnalyzeUpload runs a matching analysis over uploaded CSV files
func (h *AnalysisHandler) AnalyzeUpload(c echo.Context) error {
	thresholdM := 0.0
	if v := c.FormValue("threshold_m"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return utils.BadRequestResponse(c, "threshold_m must be a number")
		}
		thresholdM = parsed
	}
	if err := h.checkThreshold(thresholdM); err != nil {
		return utils.BadRequestResponse(c, err.Error())
	}

	trainFile, err := c.FormFile("train_file")
	if err != nil {
		return utils.BadRequestResponse(c, "train_file is required")
	}
	structureFile, err := c.FormFile("structure_file")
	if err != nil {
		return utils.BadRequestResponse(c, "structure_file is required")
	}

	trainSrc, err := trainFile.Open()
	if err != nil {
		return utils.BadRequestResponse(c, "failed to open train_file")
	}
	defer trainSrc.Close()

	track, droppedTrain, err := ingest.ParseTrackCSV(trainSrc)
	if err != nil {
		return utils.BadRequestResponse(c, fmt.Sprintf("train_file: %v", err))
	}

	structureSrc, err := structureFile.Open()
	if err != nil {
		return utils.BadRequestResponse(c, "failed to open structure_file")
	}
	defer structureSrc.Close()

	structures, droppedStructures, err := ingest.ParseStructureCSV(structureSrc)
	if err != nil {
		return utils.BadRequestResponse(c, fmt.Sprintf("structure_file: %v", err))
	}

	req := models.AnalysisRequest{
		ThresholdM: thresholdM,
		Track:      track,
		Structures: structures,
	}

	run, err := h.analysisUC.RunAnalysis(c.Request().Context(), &req)
	if err != nil {
		return utils.BadRequestResponse(c, err.Error())
	}

	return utils.SuccessResponse(c, http.StatusOK, "Analysis completed", uploadResponse{
		Run:                  run,
		DroppedTrainRows:     droppedTrain,
		DroppedStructureRows: droppedStructures,
	})
}

// GetAnalysis returns a stored run, optionally filtered by a maximum
// match distance
func (h *AnalysisHandler) GetAnalysis(c echo.Context) error {
	analysisID := c.Param("analysisID")

	var maxDistanceM *float64
	if v := c.QueryParam("max_distance_m"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return utils.BadRequestResponse(c, "max_distance_m must be a number")
		}
		maxDistanceM = &parsed
	}

	run, err := h.analysisUC.GetAnalysis(c.Request().Context(), analysisID, maxDistanceM)
	if err != nil {
		if errors.Is(err, analysis.ErrAnalysisNotFound) {
			return utils.NotFoundResponse(c, "Analysis run not found")
		}
		return utils.InternalServerErrorResponse(c, err.Error())
	}

	return utils.SuccessResponse(c, http.StatusOK, "Analysis retrieved", run)
}

// ExportCSV streams a stored run's results as a CSV download
func (h *AnalysisHandler) ExportCSV(c echo.Context) error {
	analysisID := c.Param("analysisID")

	run, err := h.analysisUC.GetAnalysis(c.Request().Context(), analysisID, nil)
	if err != nil {
		if errors.Is(err, analysis.ErrAnalysisNotFound) {
			return utils.NotFoundResponse(c, "Analysis run not found")
		}
		return utils.InternalServerErrorResponse(c, err.Error())
	}

	filename := fmt.Sprintf("ohe_speed_analysis_%s.csv", time.Now().Format("20060102_150405"))
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	c.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Response())
	header := []string{
		"Structure ID", "Matched Speed (kmph)", "Closest Distance (m)", "Matched Train Time",
		"OHE Latitude", "OHE Longitude", "Train Latitude", "Train Longitude",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range run.Results.Results {
		record := []string{
			r.StructureID,
			strconv.FormatFloat(r.MatchedSpeedKmph, 'f', 2, 64),
			strconv.FormatFloat(r.DistanceM, 'f', 2, 64),
			r.MatchedTime,
			strconv.FormatFloat(r.StructurePoint.Latitude, 'f', -1, 64),
			strconv.FormatFloat(r.StructurePoint.Longitude, 'f', -1, 64),
			strconv.FormatFloat(r.TrackPoint.Latitude, 'f', -1, 64),
			strconv.FormatFloat(r.TrackPoint.Longitude, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// checkThreshold enforces the operator-facing threshold range. Zero
// means "use the configured default" and is resolved by the usecase.
func (h *AnalysisHandler) checkThreshold(thresholdM float64) error {
	if thresholdM == 0 {
		return nil
	}
	min := h.cfg.Analysis.MinThresholdM
	max := h.cfg.Analysis.MaxThresholdM
	if thresholdM < min || thresholdM > max {
		return fmt.Errorf("threshold_m must be between %.0f and %.0f meters", min, max)
	}
	return nil
}
