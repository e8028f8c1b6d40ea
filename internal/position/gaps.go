package position

import "github.com/MikeSquared-Agency/Strategix/internal/matrix"

// BestInClass returns the highest score per criterion, in column order.
func BestInClass(m *matrix.Matrix) []float64 {
	best := make([]float64, m.Cols())
	for c := range best {
		best[c] = m.At(0, c)
		for o := 1; o < m.Rows(); o++ {
			if m.At(o, c) > best[c] {
				best[c] = m.At(o, c)
			}
		}
	}
	return best
}

// CompetitiveGaps returns option → criterion → score − best-in-class.
// Every gap is ≤ 0; the best option on a criterion has a gap of 0.
func CompetitiveGaps(m *matrix.Matrix) map[string]map[string]float64 {
	best := BestInClass(m)
	gaps := make(map[string]map[string]float64, m.Rows())
	for o := 0; o < m.Rows(); o++ {
		row := make(map[string]float64, m.Cols())
		for c := 0; c < m.Cols(); c++ {
			row[m.ColLabel(c)] = m.At(o, c) - best[c]
		}
		gaps[m.RowLabel(o)] = row
	}
	return gaps
}
