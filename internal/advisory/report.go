package advisory

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidReport marks an advisory that does not have the required shape.
var ErrInvalidReport = errors.New("invalid advisory report")

const maxRecommendations = 10

// Report is the free-text advisory that accompanies an analysis.
type Report struct {
	ExecutiveSummary       string   `json:"executiveSummary"`
	StrategicAdvisory      string   `json:"strategicAdvisory"`
	SensitivityAnalysis    string   `json:"sensitivityAnalysis"`
	Recommendations        []string `json:"recommendations"`
	SelfReportedGameValue  float64  `json:"selfReportedGameValue"`
	InternalReasoningScore float64  `json:"internalReasoningScore"`
}

// Validate checks the required fields are present and in range.
func (r *Report) Validate() error {
	fields := []struct{ name, value string }{
		{"executiveSummary", r.ExecutiveSummary},
		{"strategicAdvisory", r.StrategicAdvisory},
		{"sensitivityAnalysis", r.SensitivityAnalysis},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidReport, f.name)
		}
	}
	if len(r.Recommendations) == 0 || len(r.Recommendations) > maxRecommendations {
		return fmt.Errorf("%w: %d recommendations, want 1-%d", ErrInvalidReport, len(r.Recommendations), maxRecommendations)
	}
	for i, rec := range r.Recommendations {
		if strings.TrimSpace(rec) == "" {
			return fmt.Errorf("%w: recommendation %d is empty", ErrInvalidReport, i)
		}
	}
	if math.IsNaN(r.SelfReportedGameValue) || math.IsInf(r.SelfReportedGameValue, 0) {
		return fmt.Errorf("%w: selfReportedGameValue is not finite", ErrInvalidReport)
	}
	if r.InternalReasoningScore < 0 || r.InternalReasoningScore > 100 || math.IsNaN(r.InternalReasoningScore) {
		return fmt.Errorf("%w: internalReasoningScore %g outside [0,100]", ErrInvalidReport, r.InternalReasoningScore)
	}
	return nil
}
