package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/railmetrics/ohespeed/internal/pkg/database"
	"github.com/railmetrics/ohespeed/internal/pkg/models"
	"github.com/railmetrics/ohespeed/services/analysis"
)

// AnalysisRepo implements the analysis repository interface
type AnalysisRepo struct {
	cfg         *models.Config
	db          *sqlx.DB
	redisClient *database.RedisClient
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(
	cfg *models.Config,
	db *sqlx.DB,
	redisClient *database.RedisClient,
) *AnalysisRepo {
	return &AnalysisRepo{
		cfg:         cfg,
		db:          db,
		redisClient: redisClient,
	}
}

// CreateAnalysisRun stores a run and its results in one transaction.
func (r *AnalysisRepo) CreateAnalysisRun(ctx context.Context, run *models.AnalysisRun) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	runQuery := `
		INSERT INTO analysis_runs (id, threshold_m, total_structures, matched_count, success_rate, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := tx.ExecContext(ctx, runQuery,
		run.ID, run.ThresholdM, run.TotalStructures, run.MatchedCount, run.SuccessRate, run.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert analysis run: %w", err)
	}

	resultQuery := `
		INSERT INTO analysis_results (
			analysis_id, position, structure_id, matched_speed_kmph, distance_m, matched_time,
			track_latitude, track_longitude, structure_latitude, structure_longitude
		) VALUES (
			:analysis_id, :position, :structure_id, :matched_speed_kmph, :distance_m, :matched_time,
			:track_latitude, :track_longitude, :structure_latitude, :structure_longitude
		)
	`
	for i := range run.Results.Results {
		dto := run.Results.Results[i].ToDTO(run.ID, i)
		if _, err := tx.NamedExecContext(ctx, resultQuery, dto); err != nil {
			return fmt.Errorf("failed to insert analysis result %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit analysis run: %w", err)
	}

	return nil
}

// GetAnalysisRun loads one run's summary row.
func (r *AnalysisRepo) GetAnalysisRun(ctx context.Context, analysisID string) (*models.AnalysisRun, error) {
	query := `
		SELECT id, threshold_m, total_structures, matched_count, success_rate, created_at
		FROM analysis_runs
		WHERE id = $1
	`

	var run models.AnalysisRun
	if err := r.db.GetContext(ctx, &run, query, analysisID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, analysis.ErrAnalysisNotFound
		}
		return nil, fmt.Errorf("failed to get analysis run: %w", err)
	}

	return &run, nil
}

// ListResults loads a run's results in their original order, optionally
// bounded by a maximum match distance.
func (r *AnalysisRepo) ListResults(ctx context.Context, analysisID string, maxDistanceM *float64) ([]models.MatchResult, error) {
	query := `
		SELECT analysis_id, position, structure_id, matched_speed_kmph, distance_m, matched_time,
			track_latitude, track_longitude, structure_latitude, structure_longitude
		FROM analysis_results
		WHERE analysis_id = $1
	`
	args := []interface{}{analysisID}
	if maxDistanceM != nil {
		query += ` AND distance_m <= $2`
		args = append(args, *maxDistanceM)
	}
	query += ` ORDER BY position`

	var dtos []models.MatchResultDTO
	if err := r.db.SelectContext(ctx, &dtos, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list analysis results: %w", err)
	}

	results := make([]models.MatchResult, 0, len(dtos))
	for i := range dtos {
		results = append(results, dtos[i].ToMatchResult())
	}

	return results, nil
}
