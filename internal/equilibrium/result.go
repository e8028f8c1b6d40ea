package equilibrium

// Method names how an equilibrium was obtained.
type Method string

const (
	MethodSaddle        Method = "saddle_point"
	MethodClosedForm    Method = "closed_form_2x2"
	MethodLinearProgram Method = "linear_program"
	MethodUnavailable   Method = "unavailable"
)

// Result is the outcome of solving a zero-sum game. It is one of Saddle,
// ClosedFormMixed, LPSolved or Infeasible.
type Result interface {
	Method() Method
	Summary() Summary
	isResult()
}

// Summary is the flattened, serializable view of any Result.
type Summary struct {
	Available          bool      `json:"available"`
	Method             Method    `json:"method"`
	GameValue          *float64  `json:"gameValue,omitempty"`
	RowStrategies      []float64 `json:"rowStrategies,omitempty"`
	ColStrategies      []float64 `json:"colStrategies,omitempty"`
	PureNashEquilibria [][2]int  `json:"pureNashEquilibria"`
	IsPure             bool      `json:"isPure"`
	IsMixed            bool      `json:"isMixed"`
	Error              string    `json:"error,omitempty"`
}

// Saddle is a pure-strategy equilibrium. Cells lists every saddle point in
// row-major order; all share the same value.
type Saddle struct {
	Value float64
	Cells [][2]int
	Rows  int
	Cols  int
}

func (Saddle) Method() Method { return MethodSaddle }
func (Saddle) isResult()      {}

func (s Saddle) Summary() Summary {
	first := s.Cells[0]
	v := s.Value
	return Summary{
		Available:          true,
		Method:             MethodSaddle,
		GameValue:          &v,
		RowStrategies:      oneHot(s.Rows, first[0]),
		ColStrategies:      oneHot(s.Cols, first[1]),
		PureNashEquilibria: append([][2]int(nil), s.Cells...),
		IsPure:             true,
	}
}

// ClosedFormMixed is the interior mixed equilibrium of a 2×2 game.
// P and Q are the probabilities on each player's first strategy.
type ClosedFormMixed struct {
	Value float64
	P     float64
	Q     float64
}

func (ClosedFormMixed) Method() Method { return MethodClosedForm }
func (ClosedFormMixed) isResult()      {}

func (c ClosedFormMixed) Summary() Summary {
	v := c.Value
	return Summary{
		Available:          true,
		Method:             MethodClosedForm,
		GameValue:          &v,
		RowStrategies:      []float64{c.P, 1 - c.P},
		ColStrategies:      []float64{c.Q, 1 - c.Q},
		PureNashEquilibria: [][2]int{},
		IsMixed:            true,
	}
}

// LPSolved is a general N×M equilibrium found by linear programming.
type LPSolved struct {
	Value       float64
	RowStrategy []float64
	ColStrategy []float64
}

func (LPSolved) Method() Method { return MethodLinearProgram }
func (LPSolved) isResult()      {}

func (l LPSolved) Summary() Summary {
	v := l.Value
	return Summary{
		Available:          true,
		Method:             MethodLinearProgram,
		GameValue:          &v,
		RowStrategies:      append([]float64(nil), l.RowStrategy...),
		ColStrategies:      append([]float64(nil), l.ColStrategy...),
		PureNashEquilibria: [][2]int{},
		IsMixed:            true,
	}
}

// Infeasible marks a numerical failure. The game-theoretic fields are
// unavailable; the rest of an analysis is unaffected.
type Infeasible struct {
	Err error
}

func (Infeasible) Method() Method { return MethodUnavailable }
func (Infeasible) isResult()      {}

func (i Infeasible) Summary() Summary {
	s := Summary{
		Method:             MethodUnavailable,
		PureNashEquilibria: [][2]int{},
	}
	if i.Err != nil {
		s.Error = i.Err.Error()
	}
	return s
}

func oneHot(n, at int) []float64 {
	v := make([]float64, n)
	v[at] = 1
	return v
}
