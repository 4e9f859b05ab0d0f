// Package gemini wraps the official google.golang.org/genai SDK behind the
// single text-generation call the analysis pipeline needs. The wrapper also
// paces requests client-side, because the free-tier Gemini quotas are low
// enough that an unthrottled burst of analyses trips them immediately.
package gemini

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ErrEmptyResponse is returned when the provider answered 200 with no
// candidate text. Callers treat it as a provider-side failure.
var ErrEmptyResponse = eris.New("gemini: empty response from model")

// Client defines the Gemini operations used by the pipeline.
type Client interface {
	GenerateText(ctx context.Context, model, prompt string) (*GenerateResponse, error)
}

// GenerateResponse is our own response type for GenerateText.
type GenerateResponse struct {
	Text         string
	FinishReason string
	Usage        Usage
}

// Usage tracks token consumption for one generation call.
type Usage struct {
	PromptTokens int32
	OutputTokens int32
}

// Option configures the sdkClient.
type Option func(*sdkClient)

// WithRequestsPerMinute caps outbound calls. Zero or negative disables pacing.
func WithRequestsPerMinute(rpm int) Option {
	return func(c *sdkClient) {
		if rpm > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)
		}
	}
}

// sdkClient implements Client using the official genai SDK.
type sdkClient struct {
	client  *genai.Client
	limiter *rate.Limiter
}

// NewClient creates a Gemini client for the public Gemini API backend.
func NewClient(ctx context.Context, apiKey string, opts ...Option) (Client, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}

	c := &sdkClient{client: cli}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *sdkClient) GenerateText(ctx context.Context, model, prompt string) (*GenerateResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "gemini: rate limit wait")
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		nil,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "gemini: generate content with %s", model)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResponse
	}

	out := &GenerateResponse{
		Text:         text,
		FinishReason: string(resp.Candidates[0].FinishReason),
	}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			PromptTokens: resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
		}
	}
	return out, nil
}
