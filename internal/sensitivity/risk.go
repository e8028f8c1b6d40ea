package sensitivity

import "sort"

// Level is a coarse risk grade.
type Level string

const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

const (
	HighThreshold   = 50.0
	MediumThreshold = 25.0
)

// RiskAssessment grades how exposed the current leader is to weight shifts.
type RiskAssessment struct {
	Level          Level    `json:"level"`
	Factors        []string `json:"factors"`
	Recommendation string   `json:"recommendation"`
}

// Assess grades per-criterion sensitivity scores (column order). Factors
// are the criteria at or above the medium threshold, most sensitive first.
func Assess(criteria []string, scores []float64) RiskAssessment {
	idx := make([]int, 0, len(scores))
	for c, s := range scores {
		if s >= MediumThreshold {
			idx = append(idx, c)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })

	r := RiskAssessment{Level: LevelLow, Factors: make([]string, 0, len(idx))}
	for _, c := range idx {
		r.Factors = append(r.Factors, criteria[c])
	}

	switch {
	case len(idx) > 0 && scores[idx[0]] >= HighThreshold:
		r.Level = LevelHigh
		r.Recommendation = "Defend leadership on " + criteria[idx[0]]
	case len(idx) > 0:
		r.Level = LevelMedium
		r.Recommendation = "Focus on strengthening weak criteria"
	default:
		r.Recommendation = "Maintain current strategy"
	}
	return r
}
