package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/railmetrics/ohespeed/internal/pkg/models"
)

// Required columns for the two upload formats. Header matching is
// case-insensitive and ignores surrounding whitespace.
var (
	trackColumns     = []string{"device_id", "logging_time", "latitude", "longitude", "speed"}
	structureColumns = []string{"structure_id", "latitude", "longitude"}
)

// ParseTrackCSV reads RTIS train samples from CSV. Rows with
// unparseable or out-of-range coordinates or speed are dropped, not
// reported as errors; the second return value is the dropped row count.
func ParseTrackCSV(r io.Reader) ([]models.TrackSample, int, error) {
	rows, cols, err := readAll(r, trackColumns)
	if err != nil {
		return nil, 0, err
	}

	samples := make([]models.TrackSample, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(row[cols["latitude"]]), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(row[cols["longitude"]]), 64)
		speed, speedErr := strconv.ParseFloat(strings.TrimSpace(row[cols["speed"]]), 64)
		if latErr != nil || lonErr != nil || speedErr != nil || speed < 0 {
			dropped++
			continue
		}

		position := models.GeoPoint{Latitude: lat, Longitude: lon}
		if !position.Valid() {
			dropped++
			continue
		}

		samples = append(samples, models.TrackSample{
			DeviceID:    strings.TrimSpace(row[cols["device_id"]]),
			LoggingTime: strings.TrimSpace(row[cols["logging_time"]]),
			Position:    position,
			SpeedKmph:   speed,
		})
	}

	return samples, dropped, nil
}

// ParseStructureCSV reads OHE structure locations from CSV with the
// same drop semantics as ParseTrackCSV.
func ParseStructureCSV(r io.Reader) ([]models.Structure, int, error) {
	rows, cols, err := readAll(r, structureColumns)
	if err != nil {
		return nil, 0, err
	}

	structures := make([]models.Structure, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(row[cols["latitude"]]), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(row[cols["longitude"]]), 64)
		if latErr != nil || lonErr != nil {
			dropped++
			continue
		}

		position := models.GeoPoint{Latitude: lat, Longitude: lon}
		if !position.Valid() {
			dropped++
			continue
		}

		structures = append(structures, models.Structure{
			StructureID: strings.TrimSpace(row[cols["structure_id"]]),
			Position:    position,
		})
	}

	return structures, dropped, nil
}

// readAll parses the CSV stream, resolves the required columns from the
// header row, and returns the data rows long enough to cover them.
func readAll(r io.Reader, required []string) ([][]string, map[string]int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // tolerate ragged rows, drop them below

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("CSV file is empty")
	}

	cols := make(map[string]int, len(required))
	for i, name := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	maxIdx := 0
	for _, name := range required {
		idx, ok := cols[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		if idx > maxIdx {
			maxIdx = idx
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	rows := make([][]string, 0, len(records)-1)
	for _, row := range records[1:] {
		if len(row) <= maxIdx {
			continue
		}
		rows = append(rows, row)
	}

	return rows, cols, nil
}
