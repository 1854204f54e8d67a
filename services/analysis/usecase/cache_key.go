package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/railmetrics/ohespeed/internal/pkg/models"
)

// ContentKey derives a deterministic key for one analysis request by
// hashing the threshold, every structure, and every track sample in
// order. Identical inputs always map to the same key, so the memoized
// result set can stand in for a recomputation.
func ContentKey(req *models.AnalysisRequest) string {
	h := sha256.New()

	writeFloat := func(v float64) {
		h.Write([]byte(strconv.FormatFloat(v, 'f', -1, 64)))
		h.Write([]byte{0})
	}
	writeString := func(s string) {
		h.Write([]byte(strconv.Itoa(len(s))))
		h.Write([]byte{':'})
		h.Write([]byte(s))
	}

	writeFloat(req.ThresholdM)

	h.Write([]byte("structures"))
	for _, s := range req.Structures {
		writeString(s.StructureID)
		writeFloat(s.Position.Latitude)
		writeFloat(s.Position.Longitude)
	}

	h.Write([]byte("track"))
	for _, t := range req.Track {
		writeString(t.DeviceID)
		writeString(t.LoggingTime)
		writeFloat(t.Position.Latitude)
		writeFloat(t.Position.Longitude)
		writeFloat(t.SpeedKmph)
	}

	return hex.EncodeToString(h.Sum(nil))
}
