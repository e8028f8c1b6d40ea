package scoring

import "math"

// DefaultAlpha is the market-share concentration constant. With α=1 a
// one-point utility gap on the 0–10 scale gives roughly a 2.7:1 split.
const DefaultAlpha = 1.0

// MarketShare converts utilities into percentages summing to 100 using
// exponential allocation exp(α·u)/Σexp(α·u). Utilities are shifted by their
// maximum before exponentiation so large α cannot overflow.
func MarketShare(utilities []float64, alpha float64) []float64 {
	if len(utilities) == 0 {
		return nil
	}
	max := utilities[Leader(utilities)]

	shares := make([]float64, len(utilities))
	var total float64
	for i, u := range utilities {
		shares[i] = math.Exp(alpha * (u - max))
		total += shares[i]
	}
	for i := range shares {
		shares[i] = shares[i] / total * 100
	}
	return shares
}
