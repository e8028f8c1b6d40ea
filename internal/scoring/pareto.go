package scoring

import "github.com/MikeSquared-Agency/Strategix/internal/matrix"

// ComputeFrontier returns the rows that no other row dominates.
// Row a dominates row b if a scores >= b on every criterion and strictly
// better on at least one.
// O(n^2·m) dominance check; matrices are at most 6×8.
func ComputeFrontier(m *matrix.Matrix) []int {
	if m.Rows() <= 1 {
		return []int{0}
	}

	var frontier []int
	for i := 0; i < m.Rows(); i++ {
		dominated := false
		for j := 0; j < m.Rows(); j++ {
			if i == j {
				continue
			}
			if dominates(m, j, i) {
				dominated = true
				break
			}
		}
		if !dominated {
			frontier = append(frontier, i)
		}
	}
	return frontier
}

// dominates returns true if row a dominates row b.
func dominates(m *matrix.Matrix, a, b int) bool {
	strictly := false
	for c := 0; c < m.Cols(); c++ {
		if m.At(a, c) < m.At(b, c) {
			return false
		}
		if m.At(a, c) > m.At(b, c) {
			strictly = true
		}
	}
	return strictly
}
