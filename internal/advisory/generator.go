package advisory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/MikeSquared-Agency/Strategix/internal/engine"
)

// Generator produces an advisory for a finished analysis.
type Generator interface {
	Generate(ctx context.Context, r *engine.Report) (*Report, error)
}

const maxAttempts = 2

// LLMGenerator asks a language model for the advisory and validates the
// answer, retrying once with feedback when it is malformed.
type LLMGenerator struct {
	caller LLMCaller
	logger *slog.Logger
}

func NewLLMGenerator(caller LLMCaller, logger *slog.Logger) *LLMGenerator {
	return &LLMGenerator{caller: caller, logger: logger}
}

func (g *LLMGenerator) Generate(ctx context.Context, r *engine.Report) (*Report, error) {
	prompt := buildPrompt(r)
	feedback := ""
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		full := prompt
		if feedback != "" {
			full += "\n\n" + feedback
		}
		raw, err := g.caller.GenerateJSON(ctx, full)
		if err != nil {
			return nil, fmt.Errorf("advisory model %s: %w", g.caller.ModelName(), err)
		}

		var out Report
		if err := json.Unmarshal([]byte(stripCodeFences(raw)), &out); err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrInvalidReport, err)
			feedback = "Your previous response was not valid JSON. Return valid JSON only."
		} else if err := out.Validate(); err != nil {
			lastErr = err
			feedback = fmt.Sprintf("Your response failed validation: %s. Fix and return valid JSON only.", err)
		} else {
			return &out, nil
		}
		g.logger.Warn("advisory attempt rejected", "attempt", attempt, "model", g.caller.ModelName(), "error", lastErr)
	}
	return nil, lastErr
}

// Fallback builds a deterministic advisory from the report alone.
type Fallback struct{}

func (Fallback) Generate(_ context.Context, r *engine.Report) (*Report, error) {
	criteria := criteriaOf(r)
	top := criteria
	if len(top) > 3 {
		top = top[:3]
	}
	weakest := "your weakest criteria"
	if len(r.InvestmentAreas) > 0 {
		weakest = r.InvestmentAreas[0].Criterion
	}
	company := r.ProductContext.Company
	if company == "" {
		company = "The market"
	}

	return &Report{
		ExecutiveSummary: fmt.Sprintf("%s currently leads with %s, holding %.1f%% predicted market share. Stability index: %.2f.",
			company, r.OptimalChoice, r.MarketShare[r.OptimalChoice], r.StabilityIndex),
		StrategicAdvisory: fmt.Sprintf("Focus on strengthening competitive advantages in key criteria. %d sensitivity points identified that could shift market dynamics.",
			len(r.TippingPoints)),
		SensitivityAnalysis: fmt.Sprintf("Market position shows %s risk. Critical factors: %s. Monitor competitor moves in these areas.",
			strings.ToLower(string(r.RiskAssessment.Level)), strings.Join(top, ", ")),
		Recommendations: []string{
			"Strengthen performance in lowest-scoring criteria: " + weakest,
			"Monitor competitor improvements that could trigger market shifts",
			"Invest in criteria with highest consumer weight sensitivity",
			"Develop contingency plans for identified tipping points",
			"Regular market research to track consumer preference changes",
		},
		SelfReportedGameValue:  r.TopUtility(),
		InternalReasoningScore: 80,
	}, nil
}

// Advisor tries the primary generator and falls back to the deterministic
// advisory when it is missing, fails or answers with an invalid shape.
// Only context errors are returned.
type Advisor struct {
	primary    Generator
	fallback   Fallback
	onFallback func(error)
	logger     *slog.Logger
}

// NewAdvisor creates an Advisor. primary may be nil. onFallback, if set, is
// called whenever the fallback answers.
func NewAdvisor(primary Generator, onFallback func(error), logger *slog.Logger) *Advisor {
	return &Advisor{primary: primary, onFallback: onFallback, logger: logger}
}

func (a *Advisor) Generate(ctx context.Context, r *engine.Report) (*Report, error) {
	out, _, err := a.Advise(ctx, r)
	return out, err
}

// Advise is Generate that also reports whether the fallback answered.
func (a *Advisor) Advise(ctx context.Context, r *engine.Report) (*Report, bool, error) {
	if a.primary != nil {
		out, err := a.primary.Generate(ctx, r)
		if err == nil {
			return out, false, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
		a.logger.Warn("advisory generation failed, using fallback", "error", err)
		if a.onFallback != nil {
			a.onFallback(err)
		}
	} else if a.onFallback != nil {
		a.onFallback(nil)
	}
	out, err := a.fallback.Generate(ctx, r)
	return out, true, err
}

// criteriaOf returns the criteria in column order.
func criteriaOf(r *engine.Report) []string {
	factors := r.UtilityBreakdown[r.OptimalChoice]
	out := make([]string, 0, len(factors))
	for _, f := range factors {
		out = append(out, f.Name)
	}
	return out
}

// rankedOptions returns the options by descending utility, ties by name.
func rankedOptions(r *engine.Report) []string {
	names := make([]string, 0, len(r.BaseScores))
	for n := range r.BaseScores {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := r.BaseScores[names[i]], r.BaseScores[names[j]]
		if a != b {
			return a > b
		}
		return names[i] < names[j]
	})
	return names
}

func buildPrompt(r *engine.Report) string {
	pc := r.ProductContext
	product := pc.PrimaryProduct

	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze the market position of %s's %s in the %s segment.\n\n", pc.Company, product, pc.Segment)
	fmt.Fprintf(&sb, "Options (best first): %s\n", strings.Join(rankedOptions(r), ", "))
	fmt.Fprintf(&sb, "Criteria: %s\n", strings.Join(criteriaOf(r), ", "))
	fmt.Fprintf(&sb, "Current leader: %s\n", r.OptimalChoice)

	sb.WriteString("Utility and predicted share:\n")
	for _, o := range rankedOptions(r) {
		fmt.Fprintf(&sb, "- %s: utility %.2f, share %.1f%%\n", o, r.BaseScores[o], r.MarketShare[o])
	}
	fmt.Fprintf(&sb, "Stability index: %.2f/1.0, risk level: %s\n", r.StabilityIndex, r.RiskAssessment.Level)
	fmt.Fprintf(&sb, "Position of %s: %s\n", product, r.YourProductAnalysis.PositionDetail)

	tps := r.TippingPoints
	if len(tps) > 3 {
		tps = tps[:3]
	}
	if len(tps) == 0 {
		sb.WriteString("Tipping points: none within the tested weight range\n")
	} else {
		sb.WriteString("Tipping points:\n")
		for _, tp := range tps {
			fmt.Fprintf(&sb, "- %s\n", tp.MarketImpact)
		}
	}
	if len(r.Weaknesses) > 0 {
		sb.WriteString("Weaknesses:\n")
		for _, w := range r.Weaknesses {
			fmt.Fprintf(&sb, "- %s: %.1f vs best rival %.1f\n", w.Criterion, w.Score, w.CompetitorBest)
		}
	}

	fmt.Fprintf(&sb, `
Return a JSON object with exactly these fields:
{
  "executiveSummary": "Is %[1]s's position secure or vulnerable?",
  "strategicAdvisory": "The 2-3 most critical strategic moves for %[1]s.",
  "sensitivityAnalysis": "Which preference shifts or competitor moves could change leadership?",
  "recommendations": ["4-5 specific, actionable recommendations"],
  "selfReportedGameValue": %[2].2f,
  "internalReasoningScore": <number 0-100, your confidence in this advisory>
}
Return ONLY valid JSON, no markdown formatting.`, product, r.TopUtility())
	return sb.String()
}
