package sensitivity

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/Strategix/internal/matrix"
	"github.com/MikeSquared-Agency/Strategix/internal/scoring"
)

// Options bounds the weight search.
type Options struct {
	// Floor and Ceiling bound a perturbed weight. A current weight outside
	// the range widens it to include the current value.
	Floor   float64
	Ceiling float64
	// Step is the scan increment before bisection refines the crossing.
	Step float64
}

// DefaultOptions returns the [0.05, 0.50] search range with a 0.005 step.
func DefaultOptions() Options {
	return Options{Floor: matrix.MinWeight, Ceiling: matrix.MaxWeight, Step: 0.005}
}

// MaxAllowedDelta is the widest weight change the search can make.
func (o Options) MaxAllowedDelta() float64 { return o.Ceiling - o.Floor }

const bisectIterations = 40

// TippingPoint is the smallest change to one criterion's weight that hands
// leadership to another option.
type TippingPoint struct {
	Criterion      string  `json:"criterion"`
	WeightChange   float64 `json:"weightChange"`
	NewWeight      float64 `json:"newWeight"`
	PreviousLeader string  `json:"previousLeader"`
	NewLeader      string  `json:"newLeader"`
	ScoreChange    float64 `json:"scoreChange"`
	MarketImpact   string  `json:"marketImpact"`
}

// Result is the full sensitivity picture for one (matrix, weights) pair.
type Result struct {
	// TippingPoints is ordered most fragile first.
	TippingPoints       []TippingPoint     `json:"tippingPoints"`
	CriteriaSensitivity map[string]float64 `json:"criteriaSensitivity"`
	StabilityIndex      float64            `json:"stabilityIndex"`
	Risk                RiskAssessment     `json:"riskAssessment"`

	// Scores holds the sensitivity per column, in column order.
	Scores []float64 `json:"-"`
}

// MaxSensitivity returns the highest per-criterion sensitivity.
func (r Result) MaxSensitivity() float64 {
	var max float64
	for _, s := range r.Scores {
		max = math.Max(max, s)
	}
	return max
}

type probe struct {
	found bool
	point TippingPoint
	delta float64
}

// Analyze probes every criterion in parallel and derives the tipping
// points, per-criterion sensitivity, stability index and risk level.
func Analyze(ctx context.Context, m *matrix.Matrix, w matrix.Weights, opts Options) (Result, error) {
	baseline := scoring.Utilities(m, w)
	leader := scoring.Leader(baseline)

	probes := make([]probe, m.Cols())
	g, gctx := errgroup.WithContext(ctx)
	for c := 0; c < m.Cols(); c++ {
		g.Go(func() error {
			p, err := probeCriterion(gctx, m, w, c, leader, baseline, opts)
			if err != nil {
				return err
			}
			probes[c] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{
		TippingPoints:       []TippingPoint{},
		CriteriaSensitivity: make(map[string]float64, m.Cols()),
		Scores:              make([]float64, m.Cols()),
	}
	maxDelta := opts.MaxAllowedDelta()
	for c, p := range probes {
		score := 0.0
		if p.found {
			res.TippingPoints = append(res.TippingPoints, p.point)
			score = clamp(100*(1-math.Abs(p.delta)/maxDelta), 0, 100)
		}
		res.Scores[c] = score
		res.CriteriaSensitivity[m.ColLabel(c)] = score
	}
	sort.SliceStable(res.TippingPoints, func(a, b int) bool {
		return math.Abs(res.TippingPoints[a].WeightChange) < math.Abs(res.TippingPoints[b].WeightChange)
	})

	res.StabilityIndex = 1 - res.MaxSensitivity()/100
	res.Risk = Assess(m.ColLabels(), res.Scores)
	return res, nil
}

// probeCriterion searches upward and downward from the current weight and
// keeps the smaller change. Ties prefer the increase.
func probeCriterion(ctx context.Context, m *matrix.Matrix, w matrix.Weights, c, leader int, baseline []float64, opts Options) (probe, error) {
	base := w.At(c)
	lo := math.Min(opts.Floor, base)
	hi := math.Max(opts.Ceiling, base)

	leaderAt := func(x float64) (int, []float64) {
		u := scoring.Utilities(m, w.Reweight(c, x))
		return scoring.Leader(u), u
	}

	up, upOK, err := search(ctx, base, hi, opts.Step, leader, leaderAt)
	if err != nil {
		return probe{}, err
	}
	down, downOK, err := search(ctx, base, lo, opts.Step, leader, leaderAt)
	if err != nil {
		return probe{}, err
	}

	var at float64
	switch {
	case upOK && downOK:
		at = up
		if math.Abs(down-base) < math.Abs(up-base) {
			at = down
		}
	case upOK:
		at = up
	case downOK:
		at = down
	default:
		return probe{}, nil
	}

	newLeader, u := leaderAt(at)
	delta := at - base
	return probe{
		found: true,
		delta: delta,
		point: TippingPoint{
			Criterion:      m.ColLabel(c),
			WeightChange:   delta,
			NewWeight:      at,
			PreviousLeader: m.RowLabel(leader),
			NewLeader:      m.RowLabel(newLeader),
			ScoreChange:    u[newLeader] - baseline[leader],
			MarketImpact:   describeImpact(m.ColLabel(c), delta, m.RowLabel(leader), m.RowLabel(newLeader)),
		},
	}, nil
}

// search walks from `from` toward `to` in fixed steps until the leader
// changes, then bisects between the last unchanged and first changed
// weight. Utilities are linear in the perturbed weight, so the original
// leader's region is a single interval and the first change found is the
// boundary.
func search(ctx context.Context, from, to, step float64, leader int, leaderAt func(float64) (int, []float64)) (float64, bool, error) {
	if from == to || step <= 0 {
		return 0, false, nil
	}
	dir := 1.0
	if to < from {
		dir = -1
	}

	inside := from
	for k := 1; ; k++ {
		if err := ctx.Err(); err != nil {
			return 0, false, err
		}
		x := from + dir*step*float64(k)
		if dir*(x-to) > 0 {
			x = to
		}
		if l, _ := leaderAt(x); l != leader {
			return bisect(inside, x, leader, leaderAt), true, nil
		}
		if x == to {
			return 0, false, nil
		}
		inside = x
	}
}

func bisect(inside, outside float64, leader int, leaderAt func(float64) (int, []float64)) float64 {
	for i := 0; i < bisectIterations; i++ {
		mid := (inside + outside) / 2
		if l, _ := leaderAt(mid); l == leader {
			inside = mid
		} else {
			outside = mid
		}
	}
	return outside
}

func describeImpact(criterion string, delta float64, from, to string) string {
	return fmt.Sprintf("%s: %s weight %+.3f hands leadership from %s to %s", impactLevel(delta), criterion, delta, from, to)
}

func impactLevel(delta float64) string {
	switch d := math.Abs(delta); {
	case d < 0.05:
		return "critical"
	case d < 0.15:
		return "high"
	case d < 0.30:
		return "moderate"
	default:
		return "low"
	}
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
