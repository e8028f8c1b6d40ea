package matrix

import (
	"fmt"
	"math"
)

// Weights is the importance vector over a matrix's criteria, aligned with
// the column order. A Weights value built by NewWeights always sums to 1.
type Weights struct {
	labels []string
	values []float64
}

// NewWeights normalizes values so they sum to 1, preserving relative
// proportions. Negative entries count as zero. When nothing positive remains
// the result is uniform and fallback is true.
func NewWeights(labels []string, values []float64) (w Weights, fallback bool) {
	cleaned := make([]float64, len(values))
	var peak float64
	for i, v := range values {
		if v > 0 && !math.IsInf(v, 0) {
			cleaned[i] = v
			peak = math.Max(peak, v)
		}
	}
	if peak <= 0 {
		return Uniform(labels), true
	}
	// Scaling by the peak first keeps the sum finite for huge inputs.
	var sum float64
	for i := range cleaned {
		cleaned[i] /= peak
		sum += cleaned[i]
	}
	for i := range cleaned {
		cleaned[i] /= sum
	}
	return Weights{labels: append([]string(nil), labels...), values: cleaned}, false
}

// Uniform returns equal weights over labels.
func Uniform(labels []string) Weights {
	values := make([]float64, len(labels))
	for i := range values {
		values[i] = 1.0 / float64(len(labels))
	}
	return Weights{labels: append([]string(nil), labels...), values: values}
}

func (w Weights) Len() int { return len(w.values) }

func (w Weights) At(i int) float64 { return w.values[i] }

func (w Weights) Labels() []string { return append([]string(nil), w.labels...) }

func (w Weights) Values() []float64 { return append([]float64(nil), w.values...) }

// Map returns criterion label → weight.
func (w Weights) Map() map[string]float64 {
	m := make(map[string]float64, len(w.values))
	for i, l := range w.labels {
		m[l] = w.values[i]
	}
	return m
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	var s float64
	for _, v := range w.values {
		s += v
	}
	return s
}

// Validate checks that weights sum to 1.0 and none are negative.
func (w Weights) Validate() error {
	if math.Abs(w.Sum()-1.0) > 1e-6 {
		return fmt.Errorf("%w: weights sum to %.6f, must sum to 1.0", ErrInvalidWeights, w.Sum())
	}
	for i, v := range w.values {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s=%f outside [0,1]", ErrInvalidWeights, w.labels[i], v)
		}
	}
	return nil
}

// Reweight sets criterion i to target and rescales every other weight by
// (1-target)/(1-w_i) so the vector still sums to 1. When the other weights
// are all zero the remainder is spread uniformly across them.
func (w Weights) Reweight(i int, target float64) Weights {
	target = clamp(target, 0, 1)
	out := make([]float64, len(w.values))
	rest := 1 - w.values[i]
	for k, v := range w.values {
		switch {
		case k == i:
			out[k] = target
		case rest < 1e-12:
			out[k] = (1 - target) / float64(len(w.values)-1)
		default:
			out[k] = v * (1 - target) / rest
		}
	}
	return Weights{labels: w.labels, values: out}
}

// Shift adds deltas (aligned with the columns), clamps each weight to
// [0, ceiling] and renormalizes.
func (w Weights) Shift(deltas []float64, ceiling float64) Weights {
	shifted := make([]float64, len(w.values))
	for k, v := range w.values {
		d := 0.0
		if k < len(deltas) {
			d = deltas[k]
		}
		if d == 0 {
			shifted[k] = v
			continue
		}
		shifted[k] = clamp(v+d, 0, ceiling)
	}
	out, _ := NewWeights(w.labels, shifted)
	return out
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
