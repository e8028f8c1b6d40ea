package position

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/MikeSquared-Agency/Strategix/internal/matrix"
	"github.com/MikeSquared-Agency/Strategix/internal/scoring"
)

// Position labels by rank.
const (
	LabelLeader     = "Market Leader"
	LabelChallenger = "Strong Challenger"
	LabelUnderdog   = "Competitive Underdog"
)

// Priority grades an investment area.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Options tunes the classifier.
type Options struct {
	// StrengthThreshold is how far below best-in-class a score may sit and
	// still count as a strength.
	StrengthThreshold float64
	// InvestmentMargin is how far past the best rival an investment target
	// aims.
	InvestmentMargin float64
}

// DefaultOptions returns a 0.5 strength threshold and a 1-point margin.
func DefaultOptions() Options {
	return Options{StrengthThreshold: 0.5, InvestmentMargin: 1}
}

type Strength struct {
	Criterion      string  `json:"criterion"`
	Score          float64 `json:"score"`
	BestInClass    float64 `json:"bestInClass"`
	Recommendation string  `json:"recommendation"`
}

// Weakness is a criterion where the focal option trails a rival. Gap is
// score − competitorBest and always negative.
type Weakness struct {
	Criterion      string  `json:"criterion"`
	Score          float64 `json:"score"`
	CompetitorBest float64 `json:"competitorBest"`
	Gap            float64 `json:"gap"`
	Recommendation string  `json:"recommendation"`
}

// InvestmentArea targets one weakness. Impact is weight·|gap|, the utility
// recovered by closing the gap.
type InvestmentArea struct {
	Criterion      string   `json:"criterion"`
	CurrentScore   float64  `json:"currentScore"`
	TargetScore    float64  `json:"targetScore"`
	Priority       Priority `json:"priority"`
	Impact         float64  `json:"impact"`
	Recommendation string   `json:"recommendation"`
}

// ProductAnalysis places the focal option in the market.
type ProductAnalysis struct {
	YourProduct    string   `json:"yourProduct"`
	YourScore      float64  `json:"yourScore"`
	YourShare      float64  `json:"yourShare"`
	YourRank       int      `json:"yourRank"`
	TotalProducts  int      `json:"totalProducts"`
	Position       string   `json:"position"`
	PositionDetail string   `json:"positionDetail"`
	MarketLeader   string   `json:"marketLeader"`
	GapToLeader    float64  `json:"gapToLeader"`
	AheadOf        []string `json:"aheadOf"`
	Behind         []string `json:"behind"`
	IsLeader       bool     `json:"isLeader"`
}

// ProductContext describes the market the focal option competes in.
type ProductContext struct {
	PrimaryProduct string `json:"primaryProduct"`
	Segment        string `json:"segment"`
	Competitors    string `json:"competitors"`
	Company        string `json:"company"`
}

// Analysis is everything the classifier derives for the focal option.
type Analysis struct {
	Product         ProductAnalysis  `json:"yourProductAnalysis"`
	Context         ProductContext   `json:"productContext"`
	Strengths       []Strength       `json:"strengths"`
	Weaknesses      []Weakness       `json:"weaknesses"`
	InvestmentAreas []InvestmentArea `json:"investmentAreas"`
}

// Classify derives the focal option's market position and its per-criterion
// strengths, weaknesses and investment areas. utilities and shares are in
// row order.
func Classify(p *matrix.Problem, utilities, shares []float64, opts Options) Analysis {
	m := p.Matrix
	f := p.Focal

	a := Analysis{
		Product: classifyProduct(m, f, utilities, shares),
		Context: productContext(p),
	}
	a.Strengths, a.Weaknesses, a.InvestmentAreas = criteria(m, p.Weights, f, opts)
	return a
}

func classifyProduct(m *matrix.Matrix, f int, utilities, shares []float64) ProductAnalysis {
	leader := scoring.Leader(utilities)
	you := m.RowLabel(f)

	pa := ProductAnalysis{
		YourProduct:   you,
		YourScore:     utilities[f],
		YourShare:     shares[f],
		YourRank:      1,
		TotalProducts: m.Rows(),
		MarketLeader:  m.RowLabel(leader),
		AheadOf:       []string{},
		Behind:        []string{},
	}
	for o, u := range utilities {
		switch {
		case o == f:
		case u > utilities[f]:
			pa.YourRank++
			pa.Behind = append(pa.Behind, m.RowLabel(o))
		case u < utilities[f]:
			pa.AheadOf = append(pa.AheadOf, m.RowLabel(o))
		}
	}
	pa.IsLeader = pa.YourRank == 1
	if !pa.IsLeader {
		pa.GapToLeader = utilities[leader] - utilities[f]
	}

	switch pa.YourRank {
	case 1:
		pa.Position = LabelLeader
		pa.PositionDetail = fmt.Sprintf("%s currently leads the market with %.1f%% predicted share.", you, pa.YourShare)
	case 2:
		pa.Position = LabelChallenger
		pa.PositionDetail = fmt.Sprintf("%s is the #2 player, %.2f points behind %s.", you, pa.GapToLeader, pa.MarketLeader)
	default:
		pa.Position = LabelUnderdog
		pa.PositionDetail = fmt.Sprintf("%s ranks #%d, needs strategic improvements to compete.", you, pa.YourRank)
	}
	return pa
}

func productContext(p *matrix.Problem) ProductContext {
	var rivals []string
	for o, label := range p.Matrix.RowLabels() {
		if o != p.Focal {
			rivals = append(rivals, label)
		}
	}
	return ProductContext{
		PrimaryProduct: p.FocalLabel(),
		Segment:        p.EntityBName,
		Competitors:    strings.Join(rivals, ", "),
		Company:        p.EntityAName,
	}
}

func criteria(m *matrix.Matrix, w matrix.Weights, f int, opts Options) ([]Strength, []Weakness, []InvestmentArea) {
	best := BestInClass(m)
	strengths := []Strength{}
	weaknesses := []Weakness{}

	type candidate struct {
		col    int
		rival  float64
		impact float64
	}
	var cands []candidate

	for c := 0; c < m.Cols(); c++ {
		score := m.At(f, c)
		name := m.ColLabel(c)

		if score-best[c] >= -opts.StrengthThreshold {
			strengths = append(strengths, Strength{
				Criterion:      name,
				Score:          score,
				BestInClass:    best[c],
				Recommendation: fmt.Sprintf("Leverage %s in positioning", strings.ToLower(name)),
			})
			continue
		}

		rival := competitorBest(m, f, c)
		gap := score - rival
		weaknesses = append(weaknesses, Weakness{
			Criterion:      name,
			Score:          score,
			CompetitorBest: rival,
			Gap:            gap,
			Recommendation: fmt.Sprintf("Close the %.1f-point %s gap", math.Abs(gap), strings.ToLower(name)),
		})
		cands = append(cands, candidate{col: c, rival: rival, impact: w.At(c) * math.Abs(gap)})
	}

	sort.SliceStable(cands, func(a, b int) bool { return cands[a].impact > cands[b].impact })

	n := len(cands)
	highCut := ceilDiv(n, 3)
	mediumCut := ceilDiv(2*n, 3)
	investments := make([]InvestmentArea, 0, n)
	for k, cand := range cands {
		priority := PriorityLow
		switch {
		case k < highCut:
			priority = PriorityHigh
		case k < mediumCut:
			priority = PriorityMedium
		}
		name := m.ColLabel(cand.col)
		investments = append(investments, InvestmentArea{
			Criterion:      name,
			CurrentScore:   m.At(f, cand.col),
			TargetScore:    math.Min(matrix.MaxScore, cand.rival+opts.InvestmentMargin),
			Priority:       priority,
			Impact:         cand.impact,
			Recommendation: fmt.Sprintf("Invest in %s to close the competitive gap", strings.ToLower(name)),
		})
	}
	return strengths, weaknesses, investments
}

// competitorBest is the best score on criterion c among every option but f.
func competitorBest(m *matrix.Matrix, f, c int) float64 {
	best := math.Inf(-1)
	for o := 0; o < m.Rows(); o++ {
		if o != f && m.At(o, c) > best {
			best = m.At(o, c)
		}
	}
	return best
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }
