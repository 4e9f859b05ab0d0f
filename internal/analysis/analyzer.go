package analysis

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rival-intel/internal/generate"
	"github.com/sells-group/rival-intel/internal/model"
	"github.com/sells-group/rival-intel/internal/registry"
)

// Fetcher retrieves and normalizes competitor page content.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*model.FetchResult, error)
}

// Generator turns a prompt into analysis text using a concrete model.
type Generator interface {
	Generate(ctx context.Context, modelID, prompt string) (*generate.Result, error)
}

// Saver persists a completed analysis and returns the competitor id.
type Saver interface {
	SaveAnalysis(ctx context.Context, competitorName, targetURL string, weaknesses []model.Weakness) (string, error)
}

// Request identifies one competitor analysis run. Model is optional; empty
// selects the registry default.
type Request struct {
	CompetitorName string
	TargetURL      string
	Model          string
}

// Analyzer runs the analysis pipeline for one competitor: resolve the model,
// fetch page content, build the prompt, generate, parse, persist. Stages run
// strictly in order and the first failure ends the run with that stage's
// error. Persistence is the exception: once a parsed result exists it is
// returned to the caller even when saving it fails.
type Analyzer struct {
	registry  *registry.Registry
	fetcher   Fetcher
	generator Generator
	saver     Saver
	now       func() time.Time
}

// New assembles an analyzer. A nil saver disables persistence, which keeps
// one-shot CLI runs free of any database requirement.
func New(reg *registry.Registry, fetcher Fetcher, generator Generator, saver Saver) *Analyzer {
	return &Analyzer{
		registry:  reg,
		fetcher:   fetcher,
		generator: generator,
		saver:     saver,
		now:       time.Now,
	}
}

func (a *Analyzer) Analyze(ctx context.Context, req Request) (*model.AnalysisResult, error) {
	log := zap.L().With(
		zap.String("competitor", req.CompetitorName),
		zap.String("url", req.TargetURL),
	)
	start := time.Now()

	modelID, _, err := a.registry.Resolve(req.Model)
	if err != nil {
		return nil, eris.Wrap(err, "analysis: resolve model")
	}
	log = log.With(zap.String("model", modelID))

	fetchStart := time.Now()
	fetched, err := a.fetcher.Fetch(ctx, req.TargetURL)
	if err != nil {
		return nil, eris.Wrap(err, "analysis: fetch content")
	}
	log.Info("analysis: content fetched",
		zap.Int("length", fetched.Length),
		zap.Bool("truncated", fetched.Truncated),
		zap.Duration("took", time.Since(fetchStart)))

	prompt := BuildPrompt(req.CompetitorName, fetched.Text)
	log.Debug("analysis: prompt built", zap.Int("prompt_chars", len(prompt)))

	genStart := time.Now()
	gen, err := a.generator.Generate(ctx, modelID, prompt)
	if err != nil {
		return nil, eris.Wrap(err, "analysis: generate")
	}
	log.Info("analysis: response generated",
		zap.String("model_used", gen.ModelUsed),
		zap.Bool("used_fallback", gen.UsedFallback),
		zap.Int("response_chars", len(gen.Text)),
		zap.Duration("took", time.Since(genStart)))

	weaknesses, err := ParseWeaknesses(gen.Text)
	if err != nil {
		return nil, eris.Wrap(err, "analysis: parse response")
	}

	result := &model.AnalysisResult{
		CompetitorName:   req.CompetitorName,
		TargetURL:        req.TargetURL,
		Weaknesses:       weaknesses,
		AnalyzedAt:       a.now().UTC(),
		RawContentLength: fetched.Length,
		ModelUsed:        gen.ModelUsed,
		UsedFallback:     gen.UsedFallback,
	}

	if a.saver != nil {
		if id, err := a.saver.SaveAnalysis(ctx, req.CompetitorName, req.TargetURL, weaknesses); err != nil {
			// The caller still gets the full result; the save failure only
			// surfaces in logs and in the missing history row.
			log.Error("analysis: persistence failed", zap.Error(err))
		} else {
			log.Info("analysis: persisted", zap.String("competitor_id", id))
		}
	}

	log.Info("analysis: complete",
		zap.Int("weaknesses", len(weaknesses)),
		zap.Duration("took", time.Since(start)))
	return result, nil
}
