package generate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rival-intel/internal/resilience"
)

// DefaultRequestTimeout bounds a single model invocation. Free-tier Gemini
// calls on large prompts routinely take over a minute, so this stays high.
const DefaultRequestTimeout = 120 * time.Second

// Result is the outcome of one successful generation.
type Result struct {
	Text         string
	ModelUsed    string
	UsedFallback bool
}

// Client routes generation requests to the right provider, bounds each
// attempt with a timeout, and falls back to the default model at most once.
//
// The fallback rule: when the requested model fails on the provider side and
// differs from the default, the default is tried once. A request aborted by
// the caller is never retried on another model, and a second failure ends the
// request with UnavailableError. Each provider sits behind its own circuit
// breaker so a melting-down upstream is short-circuited instead of hammered.
type Client struct {
	providers    map[string]Provider
	breakers     map[string]*resilience.Breaker
	defaultModel string
	timeout      time.Duration
	breakerCfg   resilience.BreakerConfig
}

type Option func(*Client)

// WithRequestTimeout bounds each model invocation. Zero disables the bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithBreakerConfig overrides the per-provider circuit breaker settings.
func WithBreakerConfig(cfg resilience.BreakerConfig) Option {
	return func(c *Client) { c.breakerCfg = cfg }
}

// NewClient builds a generation client over the given providers. defaultModel
// is the fallback target and must be resolvable by one of the providers.
func NewClient(defaultModel string, providers []Provider, opts ...Option) *Client {
	c := &Client{
		providers:    make(map[string]Provider, len(providers)),
		breakers:     make(map[string]*resilience.Breaker, len(providers)),
		defaultModel: defaultModel,
		timeout:      DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, p := range providers {
		name := p.Name()
		cfg := c.breakerCfg
		if cfg.ShouldTrip == nil {
			// A caller hanging up mid-request says nothing about provider
			// health, so it must not count toward opening the breaker.
			cfg.ShouldTrip = func(err error) bool { return !errors.Is(err, context.Canceled) }
		}
		if cfg.OnStateChange == nil {
			cfg.OnStateChange = func(from, to resilience.BreakerState) {
				zap.L().Warn("generate: breaker state change",
					zap.String("provider", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			}
		}
		c.providers[name] = p
		c.breakers[name] = resilience.NewBreaker(cfg)
	}
	return c
}

// Generate runs the prompt against modelID, falling back to the default model
// once if the attempt fails provider-side and the two models differ.
func (c *Client) Generate(ctx context.Context, modelID, prompt string) (*Result, error) {
	text, err := c.attempt(ctx, modelID, prompt)
	if err == nil {
		return &Result{Text: text, ModelUsed: modelID}, nil
	}
	if ctx.Err() != nil {
		// The caller gave up; switching models cannot help.
		return nil, eris.Wrap(err, "generate: request aborted")
	}
	if c.defaultModel == "" || modelID == c.defaultModel {
		return nil, &UnavailableError{Attempted: []string{modelID}, Last: err}
	}

	zap.L().Warn("generate: model failed, falling back to default",
		zap.String("model", modelID),
		zap.String("fallback", c.defaultModel),
		zap.Error(err))

	text, ferr := c.attempt(ctx, c.defaultModel, prompt)
	if ferr != nil {
		return nil, &UnavailableError{Attempted: []string{modelID, c.defaultModel}, Last: ferr}
	}
	return &Result{Text: text, ModelUsed: c.defaultModel, UsedFallback: true}, nil
}

func (c *Client) attempt(ctx context.Context, modelID, prompt string) (string, error) {
	p, br, err := c.providerFor(modelID)
	if err != nil {
		return "", err
	}
	actx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := resilience.DoVal(actx, br, func(ctx context.Context) (string, error) {
		return p.GenerateText(ctx, modelID, prompt)
	})
	if err != nil {
		return "", eris.Wrapf(err, "generate: %s call failed for model %s", p.Name(), modelID)
	}
	if strings.TrimSpace(text) == "" {
		// An empty completion is a provider failure, not a valid analysis.
		return "", eris.Errorf("generate: %s returned empty text for model %s", p.Name(), modelID)
	}
	zap.L().Debug("generate: model responded",
		zap.String("model", modelID),
		zap.Int("chars", len(text)),
		zap.Duration("took", time.Since(start)))
	return text, nil
}

func (c *Client) providerFor(modelID string) (Provider, *resilience.Breaker, error) {
	name := providerName(modelID)
	p, ok := c.providers[name]
	if !ok {
		return nil, nil, eris.Errorf("generate: no %s provider configured for model %s", name, modelID)
	}
	return p, c.breakers[name], nil
}
