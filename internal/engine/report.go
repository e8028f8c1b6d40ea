package engine

import (
	"github.com/MikeSquared-Agency/Strategix/internal/confidence"
	"github.com/MikeSquared-Agency/Strategix/internal/equilibrium"
	"github.com/MikeSquared-Agency/Strategix/internal/position"
	"github.com/MikeSquared-Agency/Strategix/internal/scenario"
	"github.com/MikeSquared-Agency/Strategix/internal/scoring"
	"github.com/MikeSquared-Agency/Strategix/internal/sensitivity"
)

// Report is the assembled analysis for one (matrix, weights, focal option)
// triple. Reports are shared through the cache and must not be mutated.
type Report struct {
	BaseScores          map[string]float64                `json:"baseScores"`
	OptimalChoice       string                            `json:"optimalChoice"`
	MarketShare         map[string]float64                `json:"marketShare"`
	TippingPoints       []sensitivity.TippingPoint        `json:"tippingPoints"`
	RiskAssessment      sensitivity.RiskAssessment        `json:"riskAssessment"`
	StabilityIndex      float64                           `json:"stabilityIndex"`
	CompetitiveGaps     map[string]map[string]float64     `json:"competitiveGaps"`
	ConfidenceMetrics   confidence.Breakdown              `json:"confidenceMetrics"`
	ScenarioAnalysis    []scenario.Result                 `json:"scenarioAnalysis"`
	CriteriaSensitivity map[string]float64                `json:"criteriaSensitivity"`
	Strengths           []position.Strength               `json:"strengths"`
	Weaknesses          []position.Weakness               `json:"weaknesses"`
	InvestmentAreas     []position.InvestmentArea         `json:"investmentAreas"`
	YourProductAnalysis position.ProductAnalysis          `json:"yourProductAnalysis"`
	GameTheory          equilibrium.Summary               `json:"gameTheory"`
	ProductContext      position.ProductContext           `json:"productContext"`
	ParetoFrontier      []string                          `json:"paretoFrontier"`
	UtilityBreakdown    map[string][]scoring.FactorResult `json:"utilityBreakdown"`
	NormalizedWeights   map[string]float64                `json:"normalizedWeights"`
	WeightsFallback     bool                              `json:"weightsFallback"`
	Warnings            []string                          `json:"warnings"`

	// InputHash is the fingerprint of the validated input.
	InputHash string `json:"-"`
}

// TopUtility returns the optimal choice's utility.
func (r *Report) TopUtility() float64 { return r.BaseScores[r.OptimalChoice] }
