package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rival-intel/internal/analysis"
	"github.com/sells-group/rival-intel/internal/generate"
	"github.com/sells-group/rival-intel/internal/registry"
	"github.com/sells-group/rival-intel/internal/resilience"
	"github.com/sells-group/rival-intel/internal/scrape"
	"github.com/sells-group/rival-intel/internal/store"
	"github.com/sells-group/rival-intel/pkg/anthropic"
	"github.com/sells-group/rival-intel/pkg/firecrawl"
	"github.com/sells-group/rival-intel/pkg/gemini"
	"github.com/sells-group/rival-intel/pkg/jina"
)

// analysisEnv holds the initialized store, registry, and analyzer needed by
// the analyze/batch/serve commands.
type analysisEnv struct {
	Store    store.Store // nil when persistence is disabled
	Registry *registry.Registry
	Analyzer *analysis.Analyzer
}

// Close releases resources held by the environment.
func (e *analysisEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens the configured database backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "rival-intel.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initRegistry loads the model catalog, from file when configured.
func initRegistry() (*registry.Registry, error) {
	options := registry.DefaultCatalog()
	if cfg.Models.Catalog != "" {
		loaded, err := registry.LoadCatalog(cfg.Models.Catalog)
		if err != nil {
			return nil, eris.Wrap(err, "load model catalog")
		}
		options = loaded
	}
	return registry.New(options)
}

// validateKeys checks that required API keys are configured and warns about
// optional missing ones.
func validateKeys() error {
	if cfg.Gemini.Key == "" {
		return eris.New("missing required API key RIVAL_GEMINI_KEY (generation)")
	}

	if cfg.Firecrawl.Key == "" {
		zap.L().Warn("RIVAL_FIRECRAWL_KEY not set, firecrawl scraper disabled")
	}
	if cfg.Anthropic.Key == "" {
		zap.L().Warn("RIVAL_ANTHROPIC_KEY not set, claude models will fall back to the default")
	}

	return nil
}

// initAnalysis sets up the store, scrapers, generation client, and analyzer.
// Callers should defer env.Close(). With persist false no store is opened and
// results are not saved.
func initAnalysis(ctx context.Context, persist bool) (*analysisEnv, error) {
	if err := validateKeys(); err != nil {
		return nil, err
	}

	reg, err := initRegistry()
	if err != nil {
		return nil, err
	}

	var st store.Store
	if persist {
		st, err = initStore(ctx)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
	}

	// Scrape chain: Firecrawl primary when configured, Jina Reader fallback.
	var scrapers []scrape.Scraper
	if cfg.Firecrawl.Key != "" {
		fcClient := firecrawl.NewClient(cfg.Firecrawl.Key, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL))
		scrapers = append(scrapers, scrape.NewFirecrawlAdapter(fcClient))
	}
	jinaClient := jina.NewClient(cfg.Jina.Key, jina.WithBaseURL(cfg.Jina.BaseURL))
	scrapers = append(scrapers, scrape.NewJinaAdapter(jinaClient))

	chain := scrape.NewChain(scrapers...)
	fetcher := scrape.NewFetcher(chain, cfg.Scrape.MaxContentChars, cfg.Scrape.Timeout())

	geminiClient, err := gemini.NewClient(ctx, cfg.Gemini.Key, gemini.WithRequestsPerMinute(cfg.Gemini.RequestsPerMinute))
	if err != nil {
		if st != nil {
			_ = st.Close()
		}
		return nil, eris.Wrap(err, "init gemini client")
	}

	providers := []generate.Provider{generate.NewGeminiProvider(geminiClient)}
	if cfg.Anthropic.Key != "" {
		providers = append(providers, generate.NewAnthropicProvider(anthropic.NewClient(cfg.Anthropic.Key)))
	}

	gen := generate.NewClient(reg.Default().ID, providers,
		generate.WithRequestTimeout(cfg.Generation.RequestTimeout()),
		generate.WithBreakerConfig(resilience.BreakerConfig{
			FailureThreshold: cfg.Generation.Breaker.FailureThreshold,
			ResetTimeout:     cfg.Generation.Breaker.ResetTimeout(),
		}),
	)

	var saver analysis.Saver
	if st != nil {
		saver = st
	}

	return &analysisEnv{
		Store:    st,
		Registry: reg,
		Analyzer: analysis.New(reg, fetcher, gen, saver),
	}, nil
}
