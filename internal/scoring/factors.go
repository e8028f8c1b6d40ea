package scoring

import (
	"github.com/MikeSquared-Agency/Strategix/internal/matrix"
)

// FactorResult captures one criterion's contribution to an option's utility.
type FactorResult struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
}

// Factors returns the per-criterion breakdown for row i.
func Factors(m *matrix.Matrix, w matrix.Weights, i int) []FactorResult {
	factors := make([]FactorResult, m.Cols())
	for j := range factors {
		score := m.At(i, j)
		factors[j] = FactorResult{
			Name:     m.ColLabel(j),
			Score:    score,
			Weight:   w.At(j),
			Weighted: score * w.At(j),
		}
	}
	return factors
}
