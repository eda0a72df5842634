package models

// CompareRequest represents a request for a single comparison.
// Source references may be http(s) URLs, azblob references or local paths;
// the repository layer resolves them by scheme.
type CompareRequest struct {
	OriginalRef   string   `json:"original_url" binding:"required"`
	ScreenshotRef string   `json:"screenshot_url" binding:"required"`
	Tolerance     *float64 `json:"tolerance,omitempty"`
	Strategy      string   `json:"strategy,omitempty"`
	OutputDir     string   `json:"output_dir,omitempty"`
}

// BatchCompareRequest represents a request for several independent comparisons.
type BatchCompareRequest struct {
	Pairs []CompareRequest `json:"pairs" binding:"required"`
}

// BatchItemResult holds the outcome of one pair in a batch run. One failing
// pair never aborts the rest, so each item carries either a report or an error.
type BatchItemResult struct {
	Index  int               `json:"index"`
	Report *ComparisonReport `json:"report,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// BatchCompareResponse represents the response for a batch comparison.
type BatchCompareResponse struct {
	Results []BatchItemResult `json:"results"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
