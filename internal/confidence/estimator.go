package confidence

import (
	"errors"
	"math"
)

// Weights blends the four components into the overall score.
type Weights struct {
	DataQuality        float64 `yaml:"data_quality" json:"dataQuality"`
	ModelReliability   float64 `yaml:"model_reliability" json:"modelReliability"`
	MarketStability    float64 `yaml:"market_stability" json:"marketStability"`
	PredictionAccuracy float64 `yaml:"prediction_accuracy" json:"predictionAccuracy"`
}

// DefaultWeights weighs every component equally.
func DefaultWeights() Weights {
	return Weights{DataQuality: 0.25, ModelReliability: 0.25, MarketStability: 0.25, PredictionAccuracy: 0.25}
}

// Validate rejects negative or non-finite weights and an all-zero blend.
func (w Weights) Validate() error {
	parts := []float64{w.DataQuality, w.ModelReliability, w.MarketStability, w.PredictionAccuracy}
	var total float64
	for _, p := range parts {
		if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return errors.New("confidence weights must be finite and non-negative")
		}
		total += p
	}
	if total == 0 {
		return errors.New("confidence weights must not all be zero")
	}
	return nil
}

// Inputs are the upstream figures confidence is derived from.
type Inputs struct {
	ValidCells     int
	TotalCells     int
	StabilityIndex float64
	MaxSensitivity float64
	// Margin is the top utility minus the runner-up.
	Margin float64
}

// Breakdown is the per-component confidence, each in [0,100].
type Breakdown struct {
	DataQuality        float64 `json:"dataQuality"`
	ModelReliability   float64 `json:"modelReliability"`
	MarketStability    float64 `json:"marketStability"`
	PredictionAccuracy float64 `json:"predictionAccuracy"`
	OverallScore       float64 `json:"overallScore"`
}

// Estimate computes the confidence breakdown. Weights that fail Validate
// fall back to DefaultWeights.
func Estimate(in Inputs, w Weights) Breakdown {
	if w.Validate() != nil {
		w = DefaultWeights()
	}

	var b Breakdown
	if in.TotalCells > 0 {
		b.DataQuality = clamp(100 * float64(in.ValidCells) / float64(in.TotalCells))
	}
	b.ModelReliability = clamp(100 * in.StabilityIndex)
	b.MarketStability = clamp(100 - in.MaxSensitivity)
	b.PredictionAccuracy = clamp(0.5*math.Min(100, 50+10*in.Margin) + 0.5*b.ModelReliability)

	total := w.DataQuality + w.ModelReliability + w.MarketStability + w.PredictionAccuracy
	b.OverallScore = clamp((w.DataQuality*b.DataQuality +
		w.ModelReliability*b.ModelReliability +
		w.MarketStability*b.MarketStability +
		w.PredictionAccuracy*b.PredictionAccuracy) / total)
	return b
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
