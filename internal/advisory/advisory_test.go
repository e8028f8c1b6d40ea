package advisory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Strategix/internal/engine"
	"github.com/MikeSquared-Agency/Strategix/internal/matrix"
	"github.com/MikeSquared-Agency/Strategix/internal/metrics"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockCaller implements LLMCaller for testing
type MockCaller struct {
	mock.Mock
}

func (m *MockCaller) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockCaller) ModelName() string { return "test-model" }

type fakeMessager struct {
	params anthropic.MessageNewParams
	resp   *anthropic.Message
	err    error
}

func (f *fakeMessager) New(_ context.Context, params anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	f.params = params
	return f.resp, f.err
}

const validJSON = `{
  "executiveSummary": "Baleno leads comfortably.",
  "strategicAdvisory": "Defend fuel economy.",
  "sensitivityAnalysis": "Fuel weight is the main lever.",
  "recommendations": ["Close the safety gap", "Keep pricing sharp"],
  "selfReportedGameValue": 8.0,
  "internalReasoningScore": 88
}`

func carReport(t *testing.T) *engine.Report {
	t.Helper()
	e, err := engine.New(engine.DefaultConfig(), metrics.NewMetrics(prometheus.NewRegistry()), discardLogger())
	require.NoError(t, err)
	r, err := e.Analyze(context.Background(), matrix.Input{
		Rows:      3,
		Cols:      5,
		RowLabels: []string{"Baleno", "Polo", "i20"},
		ColLabels: []string{"Fuel", "Safety", "Tech", "Service", "Price"},
		Payoffs: [][]float64{
			{9, 7, 7, 9, 8},
			{7, 8, 8, 6, 6},
			{6, 9, 9, 7, 7},
		},
		Weights:     map[string]float64{"fuel": 0.30, "safety": 0.25, "tech": 0.20, "service": 0.15, "price": 0.10},
		EntityAName: "Maruti Suzuki",
		EntityBName: "Premium Hatchback",
	})
	require.NoError(t, err)
	return r
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"  \n{\"a\":1}  ", "{\"a\":1}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripCodeFences(tt.in))
	}
}

func TestAnthropicCallerJoinsTextBlocks(t *testing.T) {
	fake := &fakeMessager{resp: &anthropic.Message{Content: []anthropic.ContentBlockUnion{
		{Type: "text", Text: "{\"a\":"},
		{Type: "thinking"},
		{Type: "text", Text: "1}"},
	}}}
	orig := newAnthropicClient
	t.Cleanup(func() { newAnthropicClient = orig })
	newAnthropicClient = func(string) AnthropicMessager { return fake }

	c, err := NewAnthropicCaller("key", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.ModelName())

	out, err := c.GenerateJSON(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}", out)
	assert.Equal(t, anthropic.Model(DefaultModel), fake.params.Model)
	require.Len(t, fake.params.System, 1)
}

func TestNewAnthropicCallerRequiresKey(t *testing.T) {
	_, err := NewAnthropicCaller("  ", "")
	assert.Error(t, err)
}

func TestLLMGeneratorAcceptsFencedJSON(t *testing.T) {
	caller := &MockCaller{}
	caller.On("GenerateJSON", mock.Anything, mock.AnythingOfType("string")).Return("```json\n"+validJSON+"\n```", nil).Once()

	g := NewLLMGenerator(caller, discardLogger())
	out, err := g.Generate(context.Background(), carReport(t))
	require.NoError(t, err)
	assert.Equal(t, 88.0, out.InternalReasoningScore)
	assert.Len(t, out.Recommendations, 2)
	caller.AssertExpectations(t)
}

func TestLLMGeneratorRetriesInvalidShape(t *testing.T) {
	caller := &MockCaller{}
	caller.On("GenerateJSON", mock.Anything, mock.Anything).Return(`{"executiveSummary": ""}`, nil).Once()
	caller.On("GenerateJSON", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "failed validation")
	})).Return(validJSON, nil).Once()

	g := NewLLMGenerator(caller, discardLogger())
	out, err := g.Generate(context.Background(), carReport(t))
	require.NoError(t, err)
	assert.Equal(t, "Baleno leads comfortably.", out.ExecutiveSummary)
	caller.AssertNumberOfCalls(t, "GenerateJSON", 2)
}

func TestLLMGeneratorGivesUpAfterRetries(t *testing.T) {
	caller := &MockCaller{}
	caller.On("GenerateJSON", mock.Anything, mock.Anything).Return("not json", nil)

	g := NewLLMGenerator(caller, discardLogger())
	_, err := g.Generate(context.Background(), carReport(t))
	assert.ErrorIs(t, err, ErrInvalidReport)
	caller.AssertNumberOfCalls(t, "GenerateJSON", maxAttempts)
}

func TestAdvisorFallsBack(t *testing.T) {
	r := carReport(t)

	caller := &MockCaller{}
	caller.On("GenerateJSON", mock.Anything, mock.Anything).Return("", errors.New("status 529 overloaded"))

	var fallbacks int
	a := NewAdvisor(NewLLMGenerator(caller, discardLogger()), func(error) { fallbacks++ }, discardLogger())
	out, err := a.Generate(context.Background(), r)
	require.NoError(t, err)
	require.NoError(t, out.Validate())

	assert.Equal(t, 1, fallbacks)
	assert.Equal(t, 80.0, out.InternalReasoningScore)
	assert.InDelta(t, 8.0, out.SelfReportedGameValue, 1e-9)
	assert.Contains(t, out.ExecutiveSummary, "Maruti Suzuki currently leads with Baleno")
	assert.Contains(t, out.SensitivityAnalysis, "Fuel, Safety, Tech")
	assert.Equal(t, "Strengthen performance in lowest-scoring criteria: Safety", out.Recommendations[0])
}

func TestAdvisorWithoutPrimaryUsesFallback(t *testing.T) {
	a := NewAdvisor(nil, nil, discardLogger())
	out, fallback, err := a.Advise(context.Background(), carReport(t))
	require.NoError(t, err)
	assert.True(t, fallback)
	assert.Equal(t, 80.0, out.InternalReasoningScore)
}

func TestAdvisorReturnsContextErrors(t *testing.T) {
	r := carReport(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	caller := &MockCaller{}
	caller.On("GenerateJSON", mock.Anything, mock.Anything).Return("", context.Canceled)

	a := NewAdvisor(NewLLMGenerator(caller, discardLogger()), nil, discardLogger())
	_, err := a.Generate(ctx, r)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReportValidate(t *testing.T) {
	valid := func() Report {
		return Report{
			ExecutiveSummary:       "a",
			StrategicAdvisory:      "b",
			SensitivityAnalysis:    "c",
			Recommendations:        []string{"d"},
			SelfReportedGameValue:  7.5,
			InternalReasoningScore: 90,
		}
	}
	tests := []struct {
		name   string
		mutate func(*Report)
		ok     bool
	}{
		{"valid", func(*Report) {}, true},
		{"empty summary", func(r *Report) { r.ExecutiveSummary = " " }, false},
		{"no recommendations", func(r *Report) { r.Recommendations = nil }, false},
		{"blank recommendation", func(r *Report) { r.Recommendations = []string{"x", ""} }, false},
		{"score above range", func(r *Report) { r.InternalReasoningScore = 101 }, false},
		{"negative score", func(r *Report) { r.InternalReasoningScore = -1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.mutate(&r)
			err := r.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidReport)
		})
	}
}

func TestBuildPromptMentionsContext(t *testing.T) {
	p := buildPrompt(carReport(t))
	assert.Contains(t, p, "Maruti Suzuki's Baleno in the Premium Hatchback segment")
	assert.Contains(t, p, "Options (best first): Baleno, i20, Polo")
	assert.Contains(t, p, `"selfReportedGameValue": 8.00`)
}
