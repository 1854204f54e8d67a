package constants

// Redis key formats
const (
	// Analysis Service
	KeyAnalysisMemo = "analysis:memo:%s" // Format: analysis:memo:{content_hash}
)
