package models

// TrackSample is a single positioned speed observation from an RTIS
// device. LoggingTime is carried through untouched; the analyzer never
// needs to parse it, only report it back with a match.
type TrackSample struct {
	DeviceID    string   `json:"device_id"`
	LoggingTime string   `json:"logging_time"`
	Position    GeoPoint `json:"position"`
	SpeedKmph   float64  `json:"speed_kmph"`
}

// Structure is a fixed OHE structure location to be matched against the
// train track. StructureID is unique within one analysis run.
type Structure struct {
	StructureID string   `json:"structure_id"`
	Position    GeoPoint `json:"position"`
}
