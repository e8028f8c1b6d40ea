package scenario

import (
	"fmt"
	"strings"
)

// Preset is a named what-if: additive weight deltas keyed by criterion
// name. Keys match column labels case-insensitively.
type Preset struct {
	Name   string             `yaml:"name" json:"name"`
	Deltas map[string]float64 `yaml:"deltas" json:"deltas"`
}

// DefaultCatalogue returns the built-in presets in display order.
func DefaultCatalogue() []Preset {
	return []Preset{
		{Name: "Safety Focus", Deltas: map[string]float64{"safety": 0.20}},
		{Name: "Tech Innovation", Deltas: map[string]float64{"tech": 0.25}},
		{Name: "Price Sensitivity", Deltas: map[string]float64{"price": 0.15}},
		{Name: "Fuel Economy", Deltas: map[string]float64{"fuel": 0.18}},
		{Name: "Service Quality", Deltas: map[string]float64{"service": 0.12}},
		{Name: "Price War", Deltas: map[string]float64{"price": 0.20, "service": -0.05}},
		{Name: "Tech Disruption", Deltas: map[string]float64{"tech": 0.25, "price": -0.05}},
	}
}

// ValidateCatalogue rejects presets without a name or deltas and duplicate
// names.
func ValidateCatalogue(presets []Preset) error {
	seen := make(map[string]bool, len(presets))
	for i, p := range presets {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return fmt.Errorf("scenario %d: name is required", i)
		}
		if len(p.Deltas) == 0 {
			return fmt.Errorf("scenario %q: at least one delta is required", name)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return fmt.Errorf("scenario %q: duplicate name", name)
		}
		seen[key] = true
	}
	return nil
}

// deltasFor aligns a preset with the matrix columns. ok is false when no
// key names a column.
func deltasFor(p Preset, cols []string) (deltas []float64, applied map[string]float64, ok bool) {
	byKey := make(map[string]float64, len(p.Deltas))
	for k, v := range p.Deltas {
		byKey[strings.ToLower(strings.TrimSpace(k))] += v
	}

	deltas = make([]float64, len(cols))
	applied = make(map[string]float64)
	for c, label := range cols {
		if d, found := byKey[strings.ToLower(strings.TrimSpace(label))]; found {
			deltas[c] = d
			applied[label] = d
			ok = true
		}
	}
	return deltas, applied, ok
}
