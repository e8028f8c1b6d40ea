package advisory

import (
	"context"
	"errors"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-5"

const systemPrompt = "You are a senior business strategy consultant. You interpret quantitative competitive analyses conservatively and do not invent data. Return strict JSON only."

// LLMCaller sends one prompt and returns the raw text answer.
type LLMCaller interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	ModelName() string
}

// AnthropicMessager is the slice of the Anthropic client the caller uses.
type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicClientCreator func(apiKey string) AnthropicMessager

func defaultAnthropicCreator(apiKey string) AnthropicMessager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

var newAnthropicClient AnthropicClientCreator = defaultAnthropicCreator

// AnthropicCaller implements LLMCaller against the Messages API.
type AnthropicCaller struct {
	messages  AnthropicMessager
	model     string
	maxTokens int64
}

// NewAnthropicCaller creates a caller. An empty model selects DefaultModel.
func NewAnthropicCaller(apiKey, model string) (*AnthropicCaller, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("anthropic api key not configured")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	return &AnthropicCaller{messages: newAnthropicClient(apiKey), model: model, maxTokens: 2048}, nil
}

func (a *AnthropicCaller) ModelName() string { return a.model }

func (a *AnthropicCaller) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   a.maxTokens,
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}
