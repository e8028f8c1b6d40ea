package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/Strategix/internal/confidence"
	"github.com/MikeSquared-Agency/Strategix/internal/equilibrium"
	"github.com/MikeSquared-Agency/Strategix/internal/matrix"
	"github.com/MikeSquared-Agency/Strategix/internal/metrics"
	"github.com/MikeSquared-Agency/Strategix/internal/position"
	"github.com/MikeSquared-Agency/Strategix/internal/scenario"
	"github.com/MikeSquared-Agency/Strategix/internal/scoring"
	"github.com/MikeSquared-Agency/Strategix/internal/sensitivity"
)

const tracerName = "github.com/MikeSquared-Agency/Strategix/internal/engine"

// Config carries the engine's tunable constants.
type Config struct {
	Alpha       float64
	Sensitivity sensitivity.Options
	Position    position.Options
	Confidence  confidence.Weights
	Scenarios   []scenario.Preset
	// CacheSize is the number of reports memoized; 0 disables the cache.
	CacheSize int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Alpha:       scoring.DefaultAlpha,
		Sensitivity: sensitivity.DefaultOptions(),
		Position:    position.DefaultOptions(),
		Confidence:  confidence.DefaultWeights(),
		Scenarios:   scenario.DefaultCatalogue(),
		CacheSize:   256,
	}
}

// Engine validates inputs and assembles reports.
type Engine struct {
	cfg       Config
	scorer    *scoring.Scorer
	simulator *scenario.Simulator
	cache     *lru.Cache[string, *Report]
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	logger    *slog.Logger
}

// New creates an Engine.
func New(cfg Config, m *metrics.Metrics, logger *slog.Logger) (*Engine, error) {
	if err := scenario.ValidateCatalogue(cfg.Scenarios); err != nil {
		return nil, fmt.Errorf("scenarios: %w", err)
	}
	if cfg.Sensitivity.Step <= 0 || cfg.Sensitivity.Floor >= cfg.Sensitivity.Ceiling {
		return nil, fmt.Errorf("sensitivity: invalid search range [%g,%g] step %g",
			cfg.Sensitivity.Floor, cfg.Sensitivity.Ceiling, cfg.Sensitivity.Step)
	}
	if cfg.Alpha <= 0 {
		return nil, fmt.Errorf("market share alpha must be positive, got %g", cfg.Alpha)
	}

	e := &Engine{
		cfg:       cfg,
		scorer:    scoring.NewScorer(logger),
		simulator: scenario.NewSimulator(cfg.Scenarios, cfg.Alpha, cfg.Sensitivity.Ceiling, logger),
		metrics:   m,
		tracer:    otel.Tracer(tracerName),
		logger:    logger,
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, *Report](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("report cache: %w", err)
		}
		e.cache = cache
	}
	return e, nil
}

// Scenarios returns the configured scenario catalogue.
func (e *Engine) Scenarios() []scenario.Preset { return e.simulator.Presets() }

// Analyze validates in and returns its report. Structural input errors wrap
// matrix.ErrInvalidDimensions. A cancelled ctx returns ctx.Err() and
// discards any partial work.
func (e *Engine) Analyze(ctx context.Context, in matrix.Input) (*Report, error) {
	ctx, span := e.tracer.Start(ctx, "engine.Analyze")
	defer span.End()

	p, err := matrix.Validate(in)
	if err != nil {
		e.metrics.AnalysesTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	r, err := e.AnalyzeProblem(ctx, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return r, err
}

// AnalyzeProblem runs the analyses for an already validated problem.
func (e *Engine) AnalyzeProblem(ctx context.Context, p *matrix.Problem) (*Report, error) {
	key := p.Fingerprint()
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.Int("strategix.rows", p.Matrix.Rows()),
		attribute.Int("strategix.cols", p.Matrix.Cols()),
		attribute.String("strategix.input_hash", key),
	)

	if e.cache != nil {
		if r, ok := e.cache.Get(key); ok {
			e.metrics.CacheHits.Inc()
			e.metrics.AnalysesTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
			span.SetAttributes(attribute.Bool("strategix.cache_hit", true))
			return r, nil
		}
		e.metrics.CacheMisses.Inc()
	}

	start := time.Now()
	r, err := e.assemble(ctx, p)
	if err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			outcome = metrics.OutcomeCanceled
		}
		e.metrics.AnalysesTotal.WithLabelValues(outcome).Inc()
		return nil, err
	}
	r.InputHash = key
	elapsed := time.Since(start)

	e.metrics.AnalysisDuration.Observe(elapsed.Seconds())
	e.metrics.AnalysesTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	e.metrics.EquilibriumMethod.WithLabelValues(string(r.GameTheory.Method)).Inc()

	if e.cache != nil {
		e.cache.Add(key, r)
	}

	e.logger.Info("analysis complete",
		"input_hash", key[:12],
		"leader", r.OptimalChoice,
		"equilibrium", r.GameTheory.Method,
		"risk", r.RiskAssessment.Level,
		"warnings", len(r.Warnings),
		"duration", elapsed,
	)
	return r, nil
}

func (e *Engine) assemble(ctx context.Context, p *matrix.Problem) (*Report, error) {
	m := p.Matrix
	scored := e.scorer.Score(m, p.Weights)
	shares := scoring.MarketShare(scored.Utilities, e.cfg.Alpha)

	var (
		game       equilibrium.Result
		sens       sensitivity.Result
		scenarios  []scenario.Result
		classified position.Analysis
		gaps       map[string]map[string]float64
		frontier   []int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sctx, span := e.tracer.Start(gctx, "equilibrium.Solve")
		defer span.End()
		game = equilibrium.Solve(sctx, m.Payoffs())
		if err := gctx.Err(); err != nil {
			return err
		}
		span.SetAttributes(attribute.String("strategix.method", string(game.Method())))
		if inf, ok := game.(equilibrium.Infeasible); ok {
			e.logger.Warn("equilibrium unavailable", "error", inf.Err)
		}
		return nil
	})
	g.Go(func() error {
		sctx, span := e.tracer.Start(gctx, "sensitivity.Analyze")
		defer span.End()
		var err error
		sens, err = sensitivity.Analyze(sctx, m, p.Weights, e.cfg.Sensitivity)
		return err
	})
	g.Go(func() error {
		sctx, span := e.tracer.Start(gctx, "scenario.Run")
		defer span.End()
		var err error
		scenarios, err = e.simulator.Run(sctx, m, p.Weights)
		return err
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		classified = position.Classify(p, scored.Utilities, shares, e.cfg.Position)
		gaps = position.CompetitiveGaps(m)
		frontier = scoring.ComputeFrontier(m)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conf := confidence.Estimate(confidence.Inputs{
		ValidCells:     m.ValidCells(),
		TotalCells:     m.Rows() * m.Cols(),
		StabilityIndex: sens.StabilityIndex,
		MaxSensitivity: sens.MaxSensitivity(),
		Margin:         scoring.Margin(scored.Utilities),
	}, e.cfg.Confidence)

	r := &Report{
		BaseScores:          make(map[string]float64, m.Rows()),
		OptimalChoice:       m.RowLabel(scored.Optimal),
		MarketShare:         make(map[string]float64, m.Rows()),
		TippingPoints:       sens.TippingPoints,
		RiskAssessment:      sens.Risk,
		StabilityIndex:      sens.StabilityIndex,
		CompetitiveGaps:     gaps,
		ConfidenceMetrics:   conf,
		ScenarioAnalysis:    scenarios,
		CriteriaSensitivity: sens.CriteriaSensitivity,
		Strengths:           classified.Strengths,
		Weaknesses:          classified.Weaknesses,
		InvestmentAreas:     classified.InvestmentAreas,
		YourProductAnalysis: classified.Product,
		GameTheory:          game.Summary(),
		ProductContext:      classified.Context,
		ParetoFrontier:      make([]string, 0, len(frontier)),
		UtilityBreakdown:    make(map[string][]scoring.FactorResult, m.Rows()),
		NormalizedWeights:   p.Weights.Map(),
		WeightsFallback:     p.WeightsFallback,
		Warnings:            append([]string{}, p.Warnings...),
	}
	for o := 0; o < m.Rows(); o++ {
		label := m.RowLabel(o)
		r.BaseScores[label] = scored.Utilities[o]
		r.MarketShare[label] = shares[o]
		r.UtilityBreakdown[label] = scored.Breakdown[o]
	}
	for _, o := range frontier {
		r.ParetoFrontier = append(r.ParetoFrontier, m.RowLabel(o))
	}
	return r, nil
}
