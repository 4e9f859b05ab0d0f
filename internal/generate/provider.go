package generate

import (
	"context"
	"strings"

	"github.com/sells-group/rival-intel/pkg/anthropic"
	"github.com/sells-group/rival-intel/pkg/gemini"
)

// Provider names used for routing and breaker bookkeeping.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

const anthropicMaxTokens = 4096

// Provider adapts one upstream text-generation API to a common call shape.
type Provider interface {
	Name() string
	GenerateText(ctx context.Context, modelID, prompt string) (string, error)
}

// providerName routes a model id to its provider. Claude models carry the
// "claude-" prefix; everything else is served by Gemini.
func providerName(modelID string) string {
	if strings.HasPrefix(modelID, "claude-") {
		return ProviderAnthropic
	}
	return ProviderGemini
}

// GeminiProvider serves gemini-* models.
type GeminiProvider struct {
	client gemini.Client
}

func NewGeminiProvider(client gemini.Client) *GeminiProvider {
	return &GeminiProvider{client: client}
}

func (p *GeminiProvider) Name() string { return ProviderGemini }

func (p *GeminiProvider) GenerateText(ctx context.Context, modelID, prompt string) (string, error) {
	resp, err := p.client.GenerateText(ctx, modelID, prompt)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// AnthropicProvider serves claude-* models.
type AnthropicProvider struct {
	client anthropic.Client
}

func NewAnthropicProvider(client anthropic.Client) *AnthropicProvider {
	return &AnthropicProvider{client: client}
}

func (p *AnthropicProvider) Name() string { return ProviderAnthropic }

func (p *AnthropicProvider) GenerateText(ctx context.Context, modelID, prompt string) (string, error) {
	resp, err := p.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     modelID,
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
