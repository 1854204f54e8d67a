package constants

// NATS Subjects
const (
	// Analysis Service
	SubjectAnalysisCompleted = "analysis.completed"
)
