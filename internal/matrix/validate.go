package matrix

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
)

var (
	// ErrInvalidDimensions rejects a request before any computation.
	ErrInvalidDimensions = errors.New("invalid dimensions")
	// ErrInvalidWeights is never fatal; it tags weight warnings.
	ErrInvalidWeights = errors.New("invalid weights")
)

// Input is the raw analysis request as supplied by the transport layer.
type Input struct {
	Rows        int                `json:"rows" yaml:"rows"`
	Cols        int                `json:"cols" yaml:"cols"`
	RowLabels   []string           `json:"rowLabels" yaml:"rowLabels"`
	ColLabels   []string           `json:"colLabels" yaml:"colLabels"`
	Payoffs     [][]float64        `json:"payoffs" yaml:"payoffs"`
	Weights     map[string]float64 `json:"weights,omitempty" yaml:"weights,omitempty"`
	EntityAName string             `json:"entityAName" yaml:"entityAName"`
	EntityBName string             `json:"entityBName" yaml:"entityBName"`
	YourProduct string             `json:"yourProduct,omitempty" yaml:"yourProduct,omitempty"`
}

// Validate bounds-checks the input and normalizes it into a Problem.
// Structural problems return ErrInvalidDimensions; everything else is
// repaired and reported through Problem.Warnings.
func Validate(in Input) (*Problem, error) {
	if err := checkDimensions(in); err != nil {
		return nil, err
	}

	p := &Problem{
		EntityAName: in.EntityAName,
		EntityBName: in.EntityBName,
	}

	m, warnings := repairCells(in)
	p.Matrix = m
	p.Warnings = append(p.Warnings, warnings...)

	w, fallback, warnings := resolveWeights(m.colLabels, in.Weights)
	p.Weights = w
	p.WeightsFallback = fallback
	p.Warnings = append(p.Warnings, warnings...)

	if in.YourProduct != "" {
		idx, ok := m.RowIndex(in.YourProduct)
		if !ok {
			p.Warnings = append(p.Warnings, fmt.Sprintf("unknown product %q, defaulting to %q", in.YourProduct, m.rowLabels[0]))
		}
		p.Focal = idx
	}

	return p, nil
}

func checkDimensions(in Input) error {
	if in.Rows < MinRows || in.Rows > MaxRows {
		return fmt.Errorf("%w: rows=%d outside [%d,%d]", ErrInvalidDimensions, in.Rows, MinRows, MaxRows)
	}
	if in.Cols < MinCols || in.Cols > MaxCols {
		return fmt.Errorf("%w: cols=%d outside [%d,%d]", ErrInvalidDimensions, in.Cols, MinCols, MaxCols)
	}
	if len(in.RowLabels) != in.Rows {
		return fmt.Errorf("%w: %d row labels for %d rows", ErrInvalidDimensions, len(in.RowLabels), in.Rows)
	}
	if len(in.ColLabels) != in.Cols {
		return fmt.Errorf("%w: %d column labels for %d cols", ErrInvalidDimensions, len(in.ColLabels), in.Cols)
	}
	if len(in.Payoffs) != in.Rows {
		return fmt.Errorf("%w: %d payoff rows for %d rows", ErrInvalidDimensions, len(in.Payoffs), in.Rows)
	}
	for i, row := range in.Payoffs {
		if len(row) != in.Cols {
			return fmt.Errorf("%w: payoff row %d has %d entries, want %d", ErrInvalidDimensions, i, len(row), in.Cols)
		}
	}
	if err := uniqueLabels("row", in.RowLabels, false); err != nil {
		return err
	}
	return uniqueLabels("column", in.ColLabels, true)
}

func uniqueLabels(kind string, labels []string, foldCase bool) error {
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		key := strings.TrimSpace(l)
		if key == "" {
			return fmt.Errorf("%w: empty %s label", ErrInvalidDimensions, kind)
		}
		if foldCase {
			key = strings.ToLower(key)
		}
		if seen[key] {
			return fmt.Errorf("%w: duplicate %s label %q", ErrInvalidDimensions, kind, l)
		}
		seen[key] = true
	}
	return nil
}

// repairCells copies the payoffs, clamping out-of-range values and filling
// missing (non-finite) ones with the column mean of the valid cells.
func repairCells(in Input) (*Matrix, []string) {
	var warnings []string
	rows, cols := in.Rows, in.Cols

	colMean := make([]float64, cols)
	for j := 0; j < cols; j++ {
		var sum float64
		var n int
		for i := 0; i < rows; i++ {
			v := in.Payoffs[i][j]
			if isMissing(v) {
				continue
			}
			sum += clamp(v, MinScore, MaxScore)
			n++
		}
		colMean[j] = (MinScore + MaxScore) / 2
		if n > 0 {
			colMean[j] = sum / float64(n)
		}
	}

	payoffs := make([][]float64, rows)
	valid := 0
	for i := 0; i < rows; i++ {
		payoffs[i] = make([]float64, cols)
		for j := 0; j < cols; j++ {
			v := in.Payoffs[i][j]
			switch {
			case isMissing(v):
				payoffs[i][j] = colMean[j]
				warnings = append(warnings, fmt.Sprintf("missing score %s/%s replaced by column mean %.2f", in.RowLabels[i], in.ColLabels[j], colMean[j]))
			case v < MinScore || v > MaxScore:
				payoffs[i][j] = clamp(v, MinScore, MaxScore)
				warnings = append(warnings, fmt.Sprintf("score %s/%s=%g clamped to [%g,%g]", in.RowLabels[i], in.ColLabels[j], v, MinScore, MaxScore))
			default:
				payoffs[i][j] = v
				valid++
			}
		}
	}

	return &Matrix{
		rowLabels:  append([]string(nil), in.RowLabels...),
		colLabels:  append([]string(nil), in.ColLabels...),
		payoffs:    payoffs,
		validCells: valid,
	}, warnings
}

func isMissing(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// resolveWeights maps the supplied criterion weights onto the column order.
func resolveWeights(cols []string, supplied map[string]float64) (Weights, bool, []string) {
	var warnings []string
	if len(supplied) == 0 {
		warnings = append(warnings, fmt.Sprintf("%v: no weights supplied, using uniform weights", ErrInvalidWeights))
		return Uniform(cols), true, warnings
	}

	exact := make(map[string]bool, len(cols))
	for _, c := range cols {
		exact[c] = true
	}
	// Keys are visited in sorted order so colliding spellings of one
	// criterion resolve the same way on every call. An exact label wins,
	// otherwise the first key in sorted order.
	byKey := make(map[string]float64, len(supplied))
	chosen := make(map[string]string, len(supplied))
	for _, k := range slices.Sorted(maps.Keys(supplied)) {
		nk := normalizeKey(k)
		prev, dup := chosen[nk]
		if !dup {
			chosen[nk], byKey[nk] = k, supplied[k]
			continue
		}
		keep, drop := prev, k
		if !exact[prev] && exact[k] {
			keep, drop = k, prev
		}
		warnings = append(warnings, fmt.Sprintf("%v: weights %q and %q name the same criterion, using %q", ErrInvalidWeights, keep, drop, keep))
		chosen[nk], byKey[nk] = keep, supplied[keep]
	}

	raw := make([]float64, len(cols))
	for j, c := range cols {
		key := normalizeKey(c)
		v, ok := byKey[key]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("%v: no weight for %q, using 0", ErrInvalidWeights, c))
			continue
		}
		delete(byKey, key)
		switch {
		case math.IsNaN(v) || v < 0:
			warnings = append(warnings, fmt.Sprintf("%v: weight for %q is %g, using 0", ErrInvalidWeights, c, v))
			continue
		case v < MinWeight || v > MaxWeight:
			warnings = append(warnings, fmt.Sprintf("weight for %q is %g, outside [%g,%g]", c, v, MinWeight, MaxWeight))
		}
		raw[j] = v
	}
	for _, c := range slices.Sorted(maps.Keys(byKey)) {
		warnings = append(warnings, fmt.Sprintf("%v: weight for unknown criterion %q ignored", ErrInvalidWeights, c))
	}

	w, fallback := NewWeights(cols, raw)
	if fallback {
		warnings = append(warnings, fmt.Sprintf("%v: all weights zero, using uniform weights", ErrInvalidWeights))
	}
	return w, fallback, warnings
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
