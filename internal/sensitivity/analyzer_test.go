package sensitivity

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Strategix/internal/matrix"
)

func carProblem(t *testing.T) *matrix.Problem {
	t.Helper()
	p, err := matrix.Validate(matrix.Input{
		Rows:      3,
		Cols:      5,
		RowLabels: []string{"Baleno", "Polo", "i20"},
		ColLabels: []string{"Fuel", "Safety", "Tech", "Service", "Price"},
		Payoffs: [][]float64{
			{9, 7, 7, 9, 8},
			{7, 8, 8, 6, 6},
			{6, 9, 9, 7, 7},
		},
		Weights: map[string]float64{"fuel": 0.30, "safety": 0.25, "tech": 0.20, "service": 0.15, "price": 0.10},
	})
	require.NoError(t, err)
	return p
}

func TestAnalyzeCarSegment(t *testing.T) {
	p := carProblem(t)
	res, err := Analyze(context.Background(), p.Matrix, p.Weights, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, res.TippingPoints, 3)

	fuel := res.TippingPoints[0]
	assert.Equal(t, "Fuel", fuel.Criterion)
	assert.InDelta(t, 0.5/2.6, fuel.NewWeight, 1e-9)
	assert.InDelta(t, 0.5/2.6-0.30, fuel.WeightChange, 1e-9)
	assert.Equal(t, "Baleno", fuel.PreviousLeader)
	assert.Equal(t, "i20", fuel.NewLeader)
	assert.Contains(t, fuel.MarketImpact, "high")

	assert.Equal(t, "Safety", res.TippingPoints[1].Criterion)
	assert.InDelta(t, 0.375, res.TippingPoints[1].NewWeight, 1e-9)
	assert.Equal(t, "Tech", res.TippingPoints[2].Criterion)
	assert.InDelta(t, 1.0/3, res.TippingPoints[2].NewWeight, 1e-9)

	assert.InDelta(t, 100*(1-(0.30-0.5/2.6)/0.45), res.CriteriaSensitivity["Fuel"], 1e-6)
	assert.InDelta(t, 100*(1-0.125/0.45), res.CriteriaSensitivity["Safety"], 1e-6)
	assert.Equal(t, 0.0, res.CriteriaSensitivity["Service"])
	assert.Equal(t, 0.0, res.CriteriaSensitivity["Price"])

	assert.InDelta(t, 1-res.CriteriaSensitivity["Fuel"]/100, res.StabilityIndex, 1e-12)
	assert.Equal(t, LevelHigh, res.Risk.Level)
	assert.Equal(t, []string{"Fuel", "Safety", "Tech"}, res.Risk.Factors)
	assert.Equal(t, "Defend leadership on Fuel", res.Risk.Recommendation)
}

func TestTippingPointsOrderedByMagnitude(t *testing.T) {
	p := carProblem(t)
	res, err := Analyze(context.Background(), p.Matrix, p.Weights, DefaultOptions())
	require.NoError(t, err)

	for i := 1; i < len(res.TippingPoints); i++ {
		prev := math.Abs(res.TippingPoints[i-1].WeightChange)
		cur := math.Abs(res.TippingPoints[i].WeightChange)
		assert.LessOrEqual(t, prev, cur)
	}
}

func TestDominatedCriterionCannotDethroneByIncrease(t *testing.T) {
	p := carProblem(t)
	res, err := Analyze(context.Background(), p.Matrix, p.Weights, DefaultOptions())
	require.NoError(t, err)

	// Baleno holds the best Fuel, Service and Price scores.
	for _, tp := range res.TippingPoints {
		switch tp.Criterion {
		case "Fuel", "Service", "Price":
			assert.Negative(t, tp.WeightChange, "raising %s cannot remove Baleno", tp.Criterion)
		}
	}
}

func TestAnalyzeDominantLeaderIsStable(t *testing.T) {
	p, err := matrix.Validate(matrix.Input{
		Rows:      2,
		Cols:      3,
		RowLabels: []string{"Leader", "Rival"},
		ColLabels: []string{"a", "b", "c"},
		Payoffs:   [][]float64{{9, 9, 9}, {1, 2, 3}},
		Weights:   map[string]float64{"a": 0.4, "b": 0.3, "c": 0.3},
	})
	require.NoError(t, err)

	res, err := Analyze(context.Background(), p.Matrix, p.Weights, DefaultOptions())
	require.NoError(t, err)

	assert.Empty(t, res.TippingPoints)
	assert.Equal(t, 1.0, res.StabilityIndex)
	assert.Equal(t, LevelLow, res.Risk.Level)
	assert.Empty(t, res.Risk.Factors)
	assert.Equal(t, "Maintain current strategy", res.Risk.Recommendation)
}

func TestAnalyzeHonorsCancellation(t *testing.T) {
	p := carProblem(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Analyze(ctx, p.Matrix, p.Weights, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAssessThresholds(t *testing.T) {
	criteria := []string{"a", "b", "c"}
	tests := []struct {
		name    string
		scores  []float64
		level   Level
		factors []string
	}{
		{"low", []float64{0, 10, 24.9}, LevelLow, []string{}},
		{"medium", []float64{25, 10, 30}, LevelMedium, []string{"c", "a"}},
		{"high", []float64{50, 0, 26}, LevelHigh, []string{"a", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Assess(criteria, tt.scores)
			assert.Equal(t, tt.level, r.Level)
			assert.Equal(t, tt.factors, r.Factors)
			assert.NotEmpty(t, r.Recommendation)
		})
	}
}
