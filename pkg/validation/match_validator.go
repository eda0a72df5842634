package validation

// MatchBands defines the configurable banding boundaries for the match
// percentage, in descending order of quality.
type MatchBands struct {
	Excellent  float64
	Great      float64
	Good       float64
	Acceptable float64
}

// DefaultMatchBands returns the standard banding boundaries.
func DefaultMatchBands() MatchBands {
	return MatchBands{
		Excellent:  99.0,
		Great:      97.0,
		Good:       95.0,
		Acceptable: 90.0,
	}
}

// MatchAssessment is the qualitative reading of a match percentage,
// including generic remediation hints for the operator.
type MatchAssessment struct {
	Band   string   `json:"band"`
	Label  string   `json:"label"`
	Hints  []string `json:"hints,omitempty"`
	Passed bool     `json:"passed"`
}

// MatchValidator converts a numeric match percentage into a band, hints
// and a pass/fail verdict against an acceptance threshold.
type MatchValidator struct {
	bands      MatchBands
	acceptance float64
}

// NewMatchValidator creates a validator with default bands and the given
// acceptance threshold (percent; a comparison passes at or above it).
func NewMatchValidator(acceptance float64) *MatchValidator {
	return &MatchValidator{
		bands:      DefaultMatchBands(),
		acceptance: acceptance,
	}
}

// NewMatchValidatorWithBands creates a validator with custom bands.
func NewMatchValidatorWithBands(bands MatchBands, acceptance float64) *MatchValidator {
	return &MatchValidator{
		bands:      bands,
		acceptance: acceptance,
	}
}

// Acceptance returns the acceptance threshold in percent.
func (mv *MatchValidator) Acceptance() float64 {
	return mv.acceptance
}

// Assess bands a match percentage and decides pass/fail.
func (mv *MatchValidator) Assess(matchPercentage float64) MatchAssessment {
	assessment := MatchAssessment{
		Passed: matchPercentage >= mv.acceptance,
	}

	switch {
	case matchPercentage >= mv.bands.Excellent:
		assessment.Band = "excellent"
		assessment.Label = "Excellent match"
	case matchPercentage >= mv.bands.Great:
		assessment.Band = "great"
		assessment.Label = "Great match"
		assessment.Hints = []string{
			"Inspect highlighted regions for font rendering and anti-aliasing drift",
		}
	case matchPercentage >= mv.bands.Good:
		assessment.Band = "good"
		assessment.Label = "Good match"
		assessment.Hints = []string{
			"Verify spacing and colors inside the highlighted regions",
			"Check border radii and shadows against the design values",
		}
	case matchPercentage >= mv.bands.Acceptable:
		assessment.Band = "acceptable"
		assessment.Label = "Acceptable match"
		assessment.Hints = []string{
			"Review element positioning against the design layout values",
			"Confirm font family, size and weight match the design",
		}
	default:
		assessment.Band = "significant_differences"
		assessment.Label = "Significant differences"
		assessment.Hints = []string{
			"Re-check element sizes, positions and colors against the design",
			"Confirm the screenshot was captured at the design's device pixel ratio",
			"Verify the page finished rendering before capture",
		}
	}
	return assessment
}
