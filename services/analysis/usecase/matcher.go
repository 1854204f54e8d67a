package usecase

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/railmetrics/ohespeed/internal/pkg/geo"
	"github.com/railmetrics/ohespeed/internal/pkg/models"
)

// MatchStructures links each OHE structure to the nearest track sample
// and keeps the match when the distance stays within thresholdM (the
// bound is closed: distance == threshold matches). The result set
// preserves the order structures were supplied in; structures without a
// sample in range simply produce no record. Speed and distance are
// rounded to 2 decimal places for reporting.
//
// Queries are independent, so they fan out across workers writing into
// per-structure slots; neither input is mutated.
func MatchStructures(structures []models.Structure, index *geo.TrackIndex, thresholdM float64, maxWorkers int) (models.ResultSet, error) {
	resultSet := models.ResultSet{
		Results:         []models.MatchResult{},
		TotalStructures: len(structures),
	}

	if len(structures) == 0 || index.Len() == 0 {
		// An empty track means every structure is unmatched; this is a
		// normal zero-match outcome, not a failure.
		return resultSet, nil
	}

	for i, s := range structures {
		if err := geo.CheckPoint(s.Position); err != nil {
			return resultSet, fmt.Errorf("structure %d (%s): %w", i, s.StructureID, err)
		}
	}

	workers := maxWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(structures) {
		workers = len(structures)
	}

	// Slots are indexed by structure position so parallel execution
	// cannot reorder the output.
	slots := make([]*models.MatchResult, len(structures))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				s := structures[i]
				sample, distance, err := index.Nearest(s.Position)
				if err != nil || distance > thresholdM {
					continue
				}
				slots[i] = &models.MatchResult{
					StructureID:      s.StructureID,
					MatchedSpeedKmph: round2(sample.SpeedKmph),
					DistanceM:        round2(distance),
					MatchedTime:      sample.LoggingTime,
					TrackPoint:       sample.Position,
					StructurePoint:   s.Position,
				}
			}
		}()
	}

	for i := range structures {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, r := range slots {
		if r != nil {
			resultSet.Results = append(resultSet.Results, *r)
		}
	}

	return resultSet, nil
}

// round2 rounds to 2 decimal places the same way every reporting
// surface does, so repeated runs stay bit-identical.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
