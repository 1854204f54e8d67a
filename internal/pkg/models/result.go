package models

// MatchResult records the nearest track sample within threshold for one
// structure. It is created at most once per structure and never mutated.
type MatchResult struct {
	StructureID      string   `json:"structure_id"`
	MatchedSpeedKmph float64  `json:"matched_speed_kmph"`
	DistanceM        float64  `json:"distance_m"`
	MatchedTime      string   `json:"matched_time"`
	TrackPoint       GeoPoint `json:"track_point"`
	StructurePoint   GeoPoint `json:"structure_point"`
}

// ResultSet is the ordered outcome of one matching run. Order follows
// the order structures were supplied in.
type ResultSet struct {
	Results         []MatchResult `json:"results"`
	TotalStructures int           `json:"total_structures"`
}

// MatchedCount returns the number of structures that matched.
func (rs ResultSet) MatchedCount() int {
	return len(rs.Results)
}

// SuccessRate returns matched structures over total structures, in the
// range [0, 1]. A run with no structures has a success rate of zero.
func (rs ResultSet) SuccessRate() float64 {
	if rs.TotalStructures == 0 {
		return 0
	}
	return float64(len(rs.Results)) / float64(rs.TotalStructures)
}

// FilterByMaxDistance returns the subsequence of results whose match
// distance does not exceed maxDistanceM, preserving order. The receiver
// is left untouched.
func (rs ResultSet) FilterByMaxDistance(maxDistanceM float64) ResultSet {
	filtered := make([]MatchResult, 0, len(rs.Results))
	for _, r := range rs.Results {
		if r.DistanceM <= maxDistanceM {
			filtered = append(filtered, r)
		}
	}
	return ResultSet{
		Results:         filtered,
		TotalStructures: rs.TotalStructures,
	}
}
