package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Strategix/internal/advisory"
	"github.com/MikeSquared-Agency/Strategix/internal/config"
	"github.com/MikeSquared-Agency/Strategix/internal/engine"
	"github.com/MikeSquared-Agency/Strategix/internal/hermes"
	"github.com/MikeSquared-Agency/Strategix/internal/matrix"
	"github.com/MikeSquared-Agency/Strategix/internal/metrics"
	"github.com/MikeSquared-Agency/Strategix/internal/scenario"
)

type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Analyze(ctx context.Context, in matrix.Input) (*engine.Report, error) {
	args := m.Called(ctx, in)
	if r := args.Get(0); r != nil {
		return r.(*engine.Report), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAnalyzer) Scenarios() []scenario.Preset {
	return m.Called().Get(0).([]scenario.Preset)
}

type MockHermes struct {
	mock.Mock
}

func (m *MockHermes) Publish(subject string, data interface{}) error {
	return m.Called(subject, data).Error(0)
}

func (m *MockHermes) Close() {}

const carBody = `{"matrixData": {
	"rows": 3, "cols": 5,
	"rowLabels": ["Baleno", "Polo", "i20"],
	"colLabels": ["Fuel", "Safety", "Tech", "Service", "Price"],
	"payoffs": [[9,7,7,9,8],[7,8,8,6,6],[6,9,9,7,7]],
	"weights": {"fuel": 0.30, "safety": 0.25, "tech": 0.20, "service": 0.15, "price": 0.10}
}}`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Server.RequestsPerMinute = 0
	return cfg
}

func realEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.New(engine.DefaultConfig(), metrics.NewMetrics(prometheus.NewRegistry()), discardLogger())
	require.NoError(t, err)
	return e
}

func post(t *testing.T, h http.Handler, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAnalyzeCarSegment(t *testing.T) {
	h := NewRouter(realEngine(t), nil, nil, testConfig(t), discardLogger())

	w := post(t, h, "/api/v1/analyze", carBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp struct {
		AnalysisID string          `json:"analysisId"`
		InputHash  string          `json:"inputHash"`
		Results    map[string]any  `json:"results"`
		Advisory   json.RawMessage `json:"advisory"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AnalysisID)
	assert.NotEmpty(t, resp.InputHash)
	assert.Equal(t, "Baleno", resp.Results["optimalChoice"])
	assert.Nil(t, resp.Advisory)
}

func TestAnalyzeSameInputSameResults(t *testing.T) {
	h := NewRouter(realEngine(t), nil, nil, testConfig(t), discardLogger())

	var first, second map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(post(t, h, "/api/v1/analyze", carBody).Body.Bytes(), &first))
	require.NoError(t, json.Unmarshal(post(t, h, "/api/v1/analyze", carBody).Body.Bytes(), &second))

	assert.JSONEq(t, string(first["results"]), string(second["results"]))
	assert.Equal(t, first["inputHash"], second["inputHash"])
	assert.NotEqual(t, first["analysisId"], second["analysisId"])
}

func TestAnalyzeRejectsBadRequests(t *testing.T) {
	h := NewRouter(realEngine(t), nil, nil, testConfig(t), discardLogger())

	tests := []struct {
		name    string
		target  string
		body    string
		wantErr string
	}{
		{"malformed json", "/api/v1/analyze", `{"matrixData":`, "invalid request body"},
		{"missing matrix", "/api/v1/analyze", `{}`, "matrixData required"},
		{"bad advisory flag", "/api/v1/analyze?advisory=maybe", carBody, "advisory must be a boolean"},
		{"too few rows", "/api/v1/analyze", `{"matrixData": {"rows": 1, "cols": 3, "rowLabels": ["a"], "colLabels": ["x","y","z"], "payoffs": [[1,2,3]]}}`, "invalid dimensions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, h, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Contains(t, body["error"], tt.wantErr)
		})
	}
}

func TestAnalyzeInternalErrorIsHidden(t *testing.T) {
	a := new(MockAnalyzer)
	a.On("Analyze", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))
	h := NewRouter(a, nil, nil, testConfig(t), discardLogger())

	w := post(t, h, "/api/v1/analyze", carBody)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
	a.AssertExpectations(t)
}

func TestAnalyzeWithFallbackAdvisory(t *testing.T) {
	var fallbacks int
	adv := advisory.NewAdvisor(nil, func(error) { fallbacks++ }, discardLogger())
	h := NewRouter(realEngine(t), adv, nil, testConfig(t), discardLogger())

	w := post(t, h, "/api/v1/analyze?advisory=true", carBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Advisory)
	assert.NoError(t, resp.Advisory.Validate())
	assert.Equal(t, 1, fallbacks)
}

func TestAnalyzePublishesEvents(t *testing.T) {
	hc := new(MockHermes)
	hc.On("Publish", mock.MatchedBy(func(s string) bool {
		return strings.HasPrefix(s, "strategix.analysis.") && strings.HasSuffix(s, ".completed")
	}), mock.AnythingOfType("hermes.AnalysisCompletedEvent")).Return(nil).Once()
	hc.On("Publish", mock.MatchedBy(func(s string) bool {
		return strings.HasPrefix(s, "strategix.advisory.")
	}), mock.MatchedBy(func(e hermes.AdvisoryGeneratedEvent) bool { return e.Fallback })).Return(nil).Once()

	adv := advisory.NewAdvisor(nil, nil, discardLogger())
	h := NewRouter(realEngine(t), adv, hc, testConfig(t), discardLogger())

	w := post(t, h, "/api/v1/analyze?advisory=1", carBody)
	require.Equal(t, http.StatusOK, w.Code)
	hc.AssertExpectations(t)
}

func TestAnalyzeFailurePublishesEvent(t *testing.T) {
	hc := new(MockHermes)
	hc.On("Publish", mock.Anything, mock.MatchedBy(func(e hermes.AnalysisFailedEvent) bool {
		return e.Invalid
	})).Return(fmt.Errorf("nats down")).Once()

	a := new(MockAnalyzer)
	a.On("Analyze", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("%w: rows=1", matrix.ErrInvalidDimensions))
	h := NewRouter(a, nil, hc, testConfig(t), discardLogger())

	w := post(t, h, "/api/v1/analyze", carBody)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "rows=1")
	hc.AssertExpectations(t)
}

func TestScenariosListsCatalogue(t *testing.T) {
	h := NewRouter(realEngine(t), nil, nil, testConfig(t), discardLogger())

	req := httptest.NewRequest("GET", "/api/v1/scenarios", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Scenarios []scenario.Preset `json:"scenarios"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, scenario.DefaultCatalogue(), body.Scenarios)
}

func TestRootBanner(t *testing.T) {
	h := NewRouter(realEngine(t), nil, nil, testConfig(t), discardLogger())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "strategix")
}

func TestCORSPreflight(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.AllowedOrigins = []string{"https://app.example.com"}
	h := NewRouter(realEngine(t), nil, nil, cfg, discardLogger())

	req := httptest.NewRequest("OPTIONS", "/api/v1/analyze", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	m.CacheHits.Inc()
	h := NewMetricsRouter(reg)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "strategix_")
}
