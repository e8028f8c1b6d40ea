package equilibrium

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInfeasible reports a numerical failure of the general solver.
	ErrInfeasible = errors.New("equilibrium: no solution")
	// ErrPivotLimit reports a linear program that did not converge.
	ErrPivotLimit = errors.New("equilibrium: pivot limit reached")
)

// Below closedFormTolerance the 2×2 denominator is treated as degenerate.
const (
	saddleTolerance     = 1e-9
	closedFormTolerance = 1e-4
	valueTolerance      = 1e-6
	pivotTolerance      = 1e-9
)

// maxPivots bounds the simplex. Bland's rule terminates far below it for
// any matrix the validator admits.
var maxPivots = 10000

// Solve treats payoffs as a two-player zero-sum game where the row player
// maximizes and the column player minimizes. It tries, in order, a pure
// saddle point, the 2×2 closed form, and the general linear program. A
// cancelled ctx stops the linear program and yields Infeasible.
func Solve(ctx context.Context, payoffs [][]float64) Result {
	if err := checkShape(payoffs); err != nil {
		return Infeasible{Err: err}
	}

	if cells := saddlePoints(payoffs); len(cells) > 0 {
		return Saddle{
			Value: payoffs[cells[0][0]][cells[0][1]],
			Cells: cells,
			Rows:  len(payoffs),
			Cols:  len(payoffs[0]),
		}
	}

	if len(payoffs) == 2 && len(payoffs[0]) == 2 {
		if r, ok := closedForm(payoffs); ok {
			return r
		}
	}

	return solveLP(ctx, payoffs)
}

func checkShape(payoffs [][]float64) error {
	if len(payoffs) == 0 || len(payoffs[0]) == 0 {
		return fmt.Errorf("%w: empty matrix", ErrInfeasible)
	}
	for i, row := range payoffs {
		if len(row) != len(payoffs[0]) {
			return fmt.Errorf("%w: row %d has %d entries, want %d", ErrInfeasible, i, len(row), len(payoffs[0]))
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: non-finite payoff in row %d", ErrInfeasible, i)
			}
		}
	}
	return nil
}

// saddlePoints returns every cell that is the minimum of its row and the
// maximum of its column, in row-major order.
func saddlePoints(a [][]float64) [][2]int {
	rows, cols := len(a), len(a[0])
	rowMin := make([]float64, rows)
	colMax := make([]float64, cols)
	for i := range rowMin {
		rowMin[i] = math.Inf(1)
	}
	for j := range colMax {
		colMax[j] = math.Inf(-1)
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			rowMin[i] = math.Min(rowMin[i], a[i][j])
			colMax[j] = math.Max(colMax[j], a[i][j])
		}
	}

	var cells [][2]int
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if math.Abs(a[i][j]-rowMin[i]) <= saddleTolerance && math.Abs(a[i][j]-colMax[j]) <= saddleTolerance {
				cells = append(cells, [2]int{i, j})
			}
		}
	}
	return cells
}

// closedForm solves [[a,b],[c,d]] directly. ok is false when the
// denominator vanishes or either probability leaves [0,1].
func closedForm(m [][]float64) (ClosedFormMixed, bool) {
	a, b := m[0][0], m[0][1]
	c, d := m[1][0], m[1][1]

	denom := (a + d) - (b + c)
	if math.Abs(denom) < closedFormTolerance {
		return ClosedFormMixed{}, false
	}
	p := (d - c) / denom
	q := (d - b) / denom
	if p < 0 || p > 1 || q < 0 || q > 1 {
		return ClosedFormMixed{}, false
	}
	return ClosedFormMixed{
		Value: (a*d - b*c) / denom,
		P:     p,
		Q:     q,
	}, true
}

// solveLP shifts the matrix to be strictly positive and solves the column
// player's program
//
//	max Σw  s.t. A w ≤ 1, w ≥ 0     value = 1/Σw
//
// with a dense tableau simplex. The row player's program min Σu s.t.
// Aᵀu ≥ 1 is its dual, so u is read off the slack columns of the final
// objective row. Bland's rule picks both the entering and the leaving
// variable, which rules out cycling on degenerate matrices. Both mixes are
// checked against the value before they are returned.
func solveLP(ctx context.Context, a [][]float64) Result {
	rows, cols := len(a), len(a[0])

	low := math.Inf(1)
	for _, row := range a {
		for _, v := range row {
			low = math.Min(low, v)
		}
	}
	shift := 0.0
	if low <= 0 {
		shift = 1 - low
	}

	// Columns: w_0..w_{cols-1}, slack s_0..s_{rows-1}, right-hand side.
	width := cols + rows + 1
	rhs := width - 1
	t := mat.NewDense(rows+1, width, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			t.Set(i, j, a[i][j]+shift)
		}
		t.Set(i, cols+i, 1)
		t.Set(i, rhs, 1)
	}
	for j := 0; j < cols; j++ {
		t.Set(rows, j, -1)
	}
	basis := make([]int, rows)
	for i := range basis {
		basis[i] = cols + i
	}

	optimal := false
	for pivots := 0; pivots < maxPivots; pivots++ {
		if err := ctx.Err(); err != nil {
			return Infeasible{Err: fmt.Errorf("%w: %w", ErrInfeasible, err)}
		}

		obj := t.RawRowView(rows)
		enter := -1
		for j := 0; j < rhs; j++ {
			if obj[j] < -pivotTolerance {
				enter = j
				break
			}
		}
		if enter < 0 {
			optimal = true
			break
		}

		leave := -1
		var best float64
		for i := 0; i < rows; i++ {
			coef := t.At(i, enter)
			if coef <= pivotTolerance {
				continue
			}
			// Rounding can leave a degenerate row a hair below zero.
			ratio := math.Max(0, t.At(i, rhs)) / coef
			switch {
			case leave < 0 || ratio < best-pivotTolerance:
				leave, best = i, ratio
			case math.Abs(ratio-best) <= pivotTolerance && basis[i] < basis[leave]:
				leave = i
			}
		}
		if leave < 0 {
			return Infeasible{Err: fmt.Errorf("%w: unbounded program", ErrInfeasible)}
		}
		pivot(t, leave, enter)
		basis[leave] = enter
	}
	if !optimal {
		return Infeasible{Err: fmt.Errorf("%w: %w after %d pivots", ErrInfeasible, ErrPivotLimit, maxPivots)}
	}

	total := t.At(rows, rhs)
	if total <= 0 {
		return Infeasible{Err: fmt.Errorf("%w: degenerate program (objective %g)", ErrInfeasible, total)}
	}

	w := make([]float64, cols)
	for i, b := range basis {
		if b < cols {
			w[b] = t.At(i, rhs)
		}
	}
	u := make([]float64, rows)
	for i := range u {
		u[i] = t.At(rows, cols+i)
	}

	x, ok := distribution(u)
	if !ok {
		return Infeasible{Err: fmt.Errorf("%w: empty row strategy", ErrInfeasible)}
	}
	y, ok := distribution(w)
	if !ok {
		return Infeasible{Err: fmt.Errorf("%w: empty column strategy", ErrInfeasible)}
	}

	value := 1/total - shift
	if err := checkGuarantees(a, x, y, value); err != nil {
		return Infeasible{Err: err}
	}
	return LPSolved{
		Value:       value,
		RowStrategy: x,
		ColStrategy: y,
	}
}

// pivot makes column c basic in row r by Gauss-Jordan elimination.
func pivot(t *mat.Dense, r, c int) {
	rowsN, _ := t.Dims()
	pr := t.RawRowView(r)
	p := pr[c]
	for k := range pr {
		pr[k] /= p
	}
	for i := 0; i < rowsN; i++ {
		if i == r {
			continue
		}
		row := t.RawRowView(i)
		f := row[c]
		if f == 0 {
			continue
		}
		for k := range row {
			row[k] -= f * pr[k]
		}
	}
}

// checkGuarantees verifies that x secures at least value against every
// column and y concedes at most value against every row.
func checkGuarantees(a [][]float64, x, y []float64, value float64) error {
	tol := valueTolerance * math.Max(1, math.Abs(value))
	for j := range a[0] {
		var payoff float64
		for i := range a {
			payoff += x[i] * a[i][j]
		}
		if payoff < value-tol {
			return fmt.Errorf("%w: row strategy secures %g < value %g against column %d", ErrInfeasible, payoff, value, j)
		}
	}
	for i := range a {
		var payoff float64
		for j := range a[i] {
			payoff += y[j] * a[i][j]
		}
		if payoff > value+tol {
			return fmt.Errorf("%w: column strategy concedes %g > value %g against row %d", ErrInfeasible, payoff, value, i)
		}
	}
	return nil
}

// distribution scales v to sum to 1, flushing numerical noise to zero.
func distribution(v []float64) ([]float64, bool) {
	out := make([]float64, len(v))
	var total float64
	for i, x := range v {
		if x > 1e-12 {
			out[i] = x
			total += x
		}
	}
	if total <= 0 {
		return nil, false
	}
	for i := range out {
		out[i] /= total
	}
	return out, true
}
