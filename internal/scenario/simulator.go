package scenario

import (
	"context"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/Strategix/internal/matrix"
	"github.com/MikeSquared-Agency/Strategix/internal/scoring"
)

// Result is one preset's effect on leadership and predicted shares.
type Result struct {
	ScenarioName         string             `json:"scenarioName"`
	AppliedWeightChanges map[string]float64 `json:"appliedWeightChanges"`
	NewWeights           map[string]float64 `json:"newWeights"`
	NewLeader            string             `json:"newLeader"`
	LeaderChanged        bool               `json:"leaderChanged"`
	MarketShareShift     map[string]float64 `json:"marketShareShift"`
	// ImpactScore is the L1 distance between scenario and baseline shares,
	// in percentage points.
	ImpactScore float64 `json:"impactScore"`
}

// Simulator replays a catalogue of presets against a baseline.
type Simulator struct {
	presets []Preset
	alpha   float64
	ceiling float64
	logger  *slog.Logger
}

// NewSimulator creates a Simulator. alpha is the market-share constant and
// ceiling caps any shifted weight before renormalization.
func NewSimulator(presets []Preset, alpha, ceiling float64, logger *slog.Logger) *Simulator {
	return &Simulator{
		presets: append([]Preset(nil), presets...),
		alpha:   alpha,
		ceiling: ceiling,
		logger:  logger,
	}
}

// Presets returns the configured catalogue.
func (s *Simulator) Presets() []Preset { return append([]Preset(nil), s.presets...) }

// Run evaluates every preset concurrently. Output follows catalogue order;
// presets that name none of the matrix's criteria are skipped.
func (s *Simulator) Run(ctx context.Context, m *matrix.Matrix, w matrix.Weights) ([]Result, error) {
	baseU := scoring.Utilities(m, w)
	baseLeader := scoring.Leader(baseU)
	baseShares := scoring.MarketShare(baseU, s.alpha)
	cols := m.ColLabels()

	slots := make([]*Result, len(s.presets))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range s.presets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			deltas, applied, ok := deltasFor(p, cols)
			if !ok {
				s.logger.Debug("scenario skipped, no matching criteria", "scenario", p.Name)
				return nil
			}
			shifted := w.Shift(deltas, s.ceiling)
			u := scoring.Utilities(m, shifted)
			leader := scoring.Leader(u)
			shares := scoring.MarketShare(u, s.alpha)

			r := &Result{
				ScenarioName:         p.Name,
				AppliedWeightChanges: applied,
				NewWeights:           shifted.Map(),
				NewLeader:            m.RowLabel(leader),
				LeaderChanged:        leader != baseLeader,
				MarketShareShift:     make(map[string]float64, m.Rows()),
			}
			for o := range shares {
				d := shares[o] - baseShares[o]
				r.MarketShareShift[m.RowLabel(o)] = d
				r.ImpactScore += math.Abs(d)
			}
			slots[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}
