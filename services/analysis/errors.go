package analysis

import "errors"

// ErrAnalysisNotFound indicates a lookup for an analysis run that was
// never stored.
var ErrAnalysisNotFound = errors.New("analysis run not found")
