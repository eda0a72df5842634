package models

import "time"

// ComparisonRegion is the rectangle actually compared: the top-left overlap
// of the two inputs, computed as the element-wise minimum of their sizes.
type ComparisonRegion struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Dimensions records the full size of one input image.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ComparisonReport is the complete result of one comparison run.
// It is a value object: created once per invocation and never mutated after.
type ComparisonReport struct {
	OriginalRef   string    `json:"original_ref"`
	ScreenshotRef string    `json:"screenshot_ref"`
	Timestamp     time.Time `json:"timestamp"`

	Region         ComparisonRegion `json:"region"`
	OriginalSize   Dimensions       `json:"original_size"`
	ScreenshotSize Dimensions       `json:"screenshot_size"`

	// SizeMismatch is a warning, not an error: comparison proceeded over
	// the overlapping region and the non-overlapping margins were dropped.
	SizeMismatch bool `json:"size_mismatch"`

	TotalPixels     int     `json:"total_pixels"`
	DiffPixels      int     `json:"diff_pixels"`
	MatchedPixels   int     `json:"matched_pixels"`
	MatchPercentage float64 `json:"match_percentage"`
	DiffPercentage  float64 `json:"diff_percentage"`

	Strategy  string  `json:"strategy"`
	Tolerance float64 `json:"tolerance"`

	// Band is the qualitative assessment of the match percentage
	// (excellent / great / good / acceptable / significant_differences).
	Band   string   `json:"band"`
	Hints  []string `json:"hints,omitempty"`
	Passed bool     `json:"passed"`

	DiffImagePath     string  `json:"diff_image_path"`
	ProcessingTimeSec float64 `json:"processing_time_sec"`
}
