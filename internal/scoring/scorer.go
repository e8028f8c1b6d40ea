package scoring

import (
	"log/slog"
	"sort"

	"github.com/MikeSquared-Agency/Strategix/internal/matrix"
)

// Result captures the complete weighted scoring output for one matrix.
type Result struct {
	Utilities []float64        `json:"utilities"`
	Breakdown [][]FactorResult `json:"breakdown"`
	Optimal   int              `json:"optimal"`
}

// Scorer orchestrates the weighted additive scoring engine.
type Scorer struct {
	logger *slog.Logger
}

// NewScorer creates a Scorer.
func NewScorer(logger *slog.Logger) *Scorer {
	return &Scorer{logger: logger}
}

// Score computes every option's utility and the optimal choice.
func (s *Scorer) Score(m *matrix.Matrix, w matrix.Weights) Result {
	result := Result{
		Utilities: Utilities(m, w),
		Breakdown: make([][]FactorResult, m.Rows()),
	}
	for i := range result.Breakdown {
		result.Breakdown[i] = Factors(m, w, i)
	}
	result.Optimal = Leader(result.Utilities)

	s.logger.Debug("scored options",
		"options", m.Rows(),
		"criteria", m.Cols(),
		"leader", m.RowLabel(result.Optimal),
		"utility", result.Utilities[result.Optimal],
	)
	return result
}

// Utilities returns Σ_c weight[c]·score[o][c] for every row o.
func Utilities(m *matrix.Matrix, w matrix.Weights) []float64 {
	out := make([]float64, m.Rows())
	for i := range out {
		var total float64
		for j := 0; j < m.Cols(); j++ {
			total += m.At(i, j) * w.At(j)
		}
		out[i] = total
	}
	return out
}

// Leader returns the index of the maximal utility. Ties resolve to the
// lowest index.
func Leader(utilities []float64) int {
	best := 0
	for i := 1; i < len(utilities); i++ {
		if utilities[i] > utilities[best] {
			best = i
		}
	}
	return best
}

// Ranking returns row indices ordered by descending utility, ties by index.
func Ranking(utilities []float64) []int {
	idx := make([]int, len(utilities))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return utilities[idx[a]] > utilities[idx[b]]
	})
	return idx
}

// Margin returns the gap between the best and second-best utility.
func Margin(utilities []float64) float64 {
	if len(utilities) < 2 {
		return 0
	}
	r := Ranking(utilities)
	return utilities[r[0]] - utilities[r[1]]
}
