package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Strategix/internal/advisory"
	"github.com/MikeSquared-Agency/Strategix/internal/engine"
	"github.com/MikeSquared-Agency/Strategix/internal/hermes"
	"github.com/MikeSquared-Agency/Strategix/internal/matrix"
	"github.com/MikeSquared-Agency/Strategix/internal/scenario"
)

const maxBodyBytes = 1 << 20

// Analyzer runs analyses.
type Analyzer interface {
	Analyze(ctx context.Context, in matrix.Input) (*engine.Report, error)
	Scenarios() []scenario.Preset
}

// Advisor produces the optional advisory. fallback reports whether the
// deterministic advisory answered.
type Advisor interface {
	Advise(ctx context.Context, r *engine.Report) (report *advisory.Report, fallback bool, err error)
}

type AnalyzeHandler struct {
	analyzer Analyzer
	advisor  Advisor
	events   *hermes.Emitter
	logger   *slog.Logger
}

func NewAnalyzeHandler(a Analyzer, adv Advisor, events *hermes.Emitter, logger *slog.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{analyzer: a, advisor: adv, events: events, logger: logger}
}

type AnalyzeRequest struct {
	MatrixData *matrix.Input `json:"matrixData"`
}

type AnalyzeResponse struct {
	AnalysisID string           `json:"analysisId"`
	InputHash  string           `json:"inputHash"`
	Results    *engine.Report   `json:"results"`
	Advisory   *advisory.Report `json:"advisory,omitempty"`
}

func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.MatrixData == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "matrixData required"})
		return
	}

	wantAdvisory := false
	if v := r.URL.Query().Get("advisory"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "advisory must be a boolean"})
			return
		}
		wantAdvisory = b
	}

	id := uuid.New().String()
	report, err := h.analyzer.Analyze(r.Context(), *req.MatrixData)
	if err != nil {
		invalid := errors.Is(err, matrix.ErrInvalidDimensions)
		h.events.Emit(hermes.SubjectAnalysisFailed(id), hermes.AnalysisFailedEvent{
			AnalysisID: id,
			Error:      err.Error(),
			Invalid:    invalid,
			Timestamp:  time.Now().UTC(),
		})
		switch {
		case invalid:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "analysis cancelled"})
		default:
			h.logger.Error("analysis failed", "analysis_id", id, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "analysis failed"})
		}
		return
	}

	h.events.Emit(hermes.SubjectAnalysisCompleted(id), hermes.AnalysisCompletedEvent{
		AnalysisID:        id,
		InputHash:         report.InputHash,
		OptimalChoice:     report.OptimalChoice,
		StabilityIndex:    report.StabilityIndex,
		RiskLevel:         string(report.RiskAssessment.Level),
		EquilibriumMethod: string(report.GameTheory.Method),
		TippingPoints:     len(report.TippingPoints),
		Warnings:          len(report.Warnings),
		Timestamp:         time.Now().UTC(),
	})

	resp := AnalyzeResponse{AnalysisID: id, InputHash: report.InputHash, Results: report}
	if wantAdvisory && h.advisor != nil {
		adv, fallback, err := h.advisor.Advise(r.Context(), report)
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "advisory cancelled"})
			return
		}
		resp.Advisory = adv
		h.events.Emit(hermes.SubjectAdvisoryGenerated(id), hermes.AdvisoryGeneratedEvent{
			AnalysisID: id,
			Fallback:   fallback,
			Timestamp:  time.Now().UTC(),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *AnalyzeHandler) Scenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"scenarios": h.analyzer.Scenarios()})
}
