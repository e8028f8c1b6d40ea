package hermes

import "time"

type AnalysisCompletedEvent struct {
	AnalysisID        string    `json:"analysis_id"`
	InputHash         string    `json:"input_hash"`
	OptimalChoice     string    `json:"optimal_choice"`
	StabilityIndex    float64   `json:"stability_index"`
	RiskLevel         string    `json:"risk_level"`
	EquilibriumMethod string    `json:"equilibrium_method"`
	TippingPoints     int       `json:"tipping_points"`
	Warnings          int       `json:"warnings,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

type AnalysisFailedEvent struct {
	AnalysisID string    `json:"analysis_id"`
	Error      string    `json:"error"`
	Invalid    bool      `json:"invalid_input"`
	Timestamp  time.Time `json:"timestamp"`
}

type AdvisoryGeneratedEvent struct {
	AnalysisID string    `json:"analysis_id"`
	Fallback   bool      `json:"fallback"`
	Timestamp  time.Time `json:"timestamp"`
}
