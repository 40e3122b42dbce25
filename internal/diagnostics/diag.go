package diagnostics

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

// Diagnostic is a structured event the service surfaces to clients:
// parse failures, salvage defaults, apply timings.
type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// ParseFailure builds the diagnostic for a rejected LUT body.
func ParseFailure(err error) Diagnostic {
	return Diagnostic{
		Severity: Err,
		Code:     "LUT.PARSE_FAILED",
		Summary:  "LUT body rejected",
		Detail:   err.Error(),
		LikelyCauses: []string{
			"malformed .cube text",
			"identity-only placeholder LUT",
			"truncated upload",
		},
		SuggestedFixes: []string{
			"re-export the LUT from the grading tool",
			"check the upstream analysis response",
		},
	}
}
