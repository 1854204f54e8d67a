package models

import "time"

// AnalysisRequest carries one matching run's validated inputs.
type AnalysisRequest struct {
	ThresholdM float64       `json:"threshold_m"`
	Track      []TrackSample `json:"track"`
	Structures []Structure   `json:"structures"`
}

// AnalysisRun is a completed run with its stored outcome.
type AnalysisRun struct {
	ID              string    `json:"analysis_id" db:"id"`
	ThresholdM      float64   `json:"threshold_m" db:"threshold_m"`
	TotalStructures int       `json:"total_structures" db:"total_structures"`
	MatchedCount    int       `json:"matched_count" db:"matched_count"`
	SuccessRate     float64   `json:"success_rate" db:"success_rate"`
	FromCache       bool      `json:"from_cache" db:"-"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	Results         ResultSet `json:"result_set" db:"-"`
}

// MatchResultDTO flattens a MatchResult for database operations.
type MatchResultDTO struct {
	AnalysisID         string  `db:"analysis_id"`
	Position           int     `db:"position"`
	StructureID        string  `db:"structure_id"`
	MatchedSpeedKmph   float64 `db:"matched_speed_kmph"`
	DistanceM          float64 `db:"distance_m"`
	MatchedTime        string  `db:"matched_time"`
	TrackLatitude      float64 `db:"track_latitude"`
	TrackLongitude     float64 `db:"track_longitude"`
	StructureLatitude  float64 `db:"structure_latitude"`
	StructureLongitude float64 `db:"structure_longitude"`
}

// ToDTO converts a MatchResult to its database row shape.
func (r *MatchResult) ToDTO(analysisID string, position int) MatchResultDTO {
	return MatchResultDTO{
		AnalysisID:         analysisID,
		Position:           position,
		StructureID:        r.StructureID,
		MatchedSpeedKmph:   r.MatchedSpeedKmph,
		DistanceM:          r.DistanceM,
		MatchedTime:        r.MatchedTime,
		TrackLatitude:      r.TrackPoint.Latitude,
		TrackLongitude:     r.TrackPoint.Longitude,
		StructureLatitude:  r.StructurePoint.Latitude,
		StructureLongitude: r.StructurePoint.Longitude,
	}
}

// ToMatchResult converts a database row back to a MatchResult.
func (dto *MatchResultDTO) ToMatchResult() MatchResult {
	return MatchResult{
		StructureID:      dto.StructureID,
		MatchedSpeedKmph: dto.MatchedSpeedKmph,
		DistanceM:        dto.DistanceM,
		MatchedTime:      dto.MatchedTime,
		TrackPoint: GeoPoint{
			Latitude:  dto.TrackLatitude,
			Longitude: dto.TrackLongitude,
		},
		StructurePoint: GeoPoint{
			Latitude:  dto.StructureLatitude,
			Longitude: dto.StructureLongitude,
		},
	}
}

// AnalysisCompletedEvent is published after a run is stored.
type AnalysisCompletedEvent struct {
	AnalysisID      string    `json:"analysis_id"`
	ThresholdM      float64   `json:"threshold_m"`
	TotalStructures int       `json:"total_structures"`
	MatchedCount    int       `json:"matched_count"`
	SuccessRate     float64   `json:"success_rate"`
	FromCache       bool      `json:"from_cache"`
	CompletedAt     time.Time `json:"completed_at"`
}
