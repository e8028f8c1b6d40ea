package matrix

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

const (
	MinRows = 2
	MaxRows = 6
	MinCols = 3
	MaxCols = 8

	MinScore = 0.0
	MaxScore = 10.0

	// Advisory input range for a single criterion weight.
	MinWeight = 0.05
	MaxWeight = 0.50
)

// Matrix is a validated options × criteria payoff table. It is immutable:
// accessors return copies.
type Matrix struct {
	rowLabels  []string
	colLabels  []string
	payoffs    [][]float64
	validCells int
}

func (m *Matrix) Rows() int { return len(m.rowLabels) }

func (m *Matrix) Cols() int { return len(m.colLabels) }

func (m *Matrix) At(i, j int) float64 { return m.payoffs[i][j] }

func (m *Matrix) RowLabel(i int) string { return m.rowLabels[i] }

func (m *Matrix) ColLabel(j int) string { return m.colLabels[j] }

func (m *Matrix) RowLabels() []string { return append([]string(nil), m.rowLabels...) }

func (m *Matrix) ColLabels() []string { return append([]string(nil), m.colLabels...) }

// Payoffs returns a deep copy of the score table.
func (m *Matrix) Payoffs() [][]float64 {
	out := make([][]float64, len(m.payoffs))
	for i, row := range m.payoffs {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// ValidCells is the number of cells that were supplied finite and in range.
func (m *Matrix) ValidCells() int { return m.validCells }

// RowIndex looks up an option by its exact label.
func (m *Matrix) RowIndex(label string) (int, bool) {
	for i, l := range m.rowLabels {
		if l == label {
			return i, true
		}
	}
	return 0, false
}

// Problem is the validated (matrix, weights, focal option) triple every
// analysis is derived from.
type Problem struct {
	Matrix      *Matrix
	Weights     Weights
	Focal       int
	EntityAName string
	EntityBName string

	// WeightsFallback is set when the supplied weights were unusable and a
	// uniform distribution was substituted.
	WeightsFallback bool
	Warnings        []string
}

// FocalLabel returns the focal option's row label.
func (p *Problem) FocalLabel() string { return p.Matrix.RowLabel(p.Focal) }

// Fingerprint is a content hash of everything an analysis depends on.
// Identical fingerprints always produce identical reports.
func (p *Problem) Fingerprint() string {
	payload, _ := json.Marshal(struct {
		Rows    []string    `json:"r"`
		Cols    []string    `json:"c"`
		Payoffs [][]float64 `json:"p"`
		Weights []float64   `json:"w"`
		Focal   int         `json:"f"`
		A       string      `json:"a"`
		B       string      `json:"b"`
		Valid   int         `json:"v"`
		Warn    []string    `json:"x"`
	}{
		Rows:    p.Matrix.rowLabels,
		Cols:    p.Matrix.colLabels,
		Payoffs: p.Matrix.payoffs,
		Weights: p.Weights.values,
		Focal:   p.Focal,
		A:       p.EntityAName,
		B:       p.EntityBName,
		Valid:   p.Matrix.validCells,
		Warn:    p.Warnings,
	})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
