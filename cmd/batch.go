package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/rival-intel/internal/analysis"
	"github.com/sells-group/rival-intel/internal/model"
)

var (
	batchCSV         string
	batchLimit       int
	batchConcurrency int
	batchModel       string
	batchOutput      string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyze competitors from a CSV file",
	Long: `Reads a two-column CSV (name,url) and analyzes each competitor.

Individual failures are logged and skipped; the batch never aborts on one
bad target.

Examples:
  # Analyze every row, two at a time
  rival-intel batch --csv competitors.csv

  # First five rows only, results to a file
  rival-intel batch --csv competitors.csv --limit 5 --output results.json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		targets, err := parseTargetsCSV(batchCSV)
		if err != nil {
			return eris.Wrap(err, "batch: parse csv")
		}
		zap.L().Info("parsed csv", zap.Int("targets", len(targets)))

		if batchLimit > 0 && batchLimit < len(targets) {
			targets = targets[:batchLimit]
		}

		env, err := initAnalysis(ctx, true)
		if err != nil {
			return eris.Wrap(err, "batch: init analysis")
		}
		defer env.Close()

		results := runTargets(ctx, env, targets, batchModel, batchConcurrency)
		return writeResults(results, batchOutput)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchCSV, "csv", "", "path to competitors CSV file (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max targets to process (0 = all)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 2, "max targets to analyze concurrently")
	batchCmd.Flags().StringVar(&batchModel, "model", "", "generation model id for every target")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "write results JSON to file (default: stdout)")
	_ = batchCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(batchCmd)
}

// target is one competitor to analyze.
type target struct {
	Name string
	URL  string
}

// runTargets analyzes targets concurrently, never aborting the whole run on
// an individual failure. Results come back in completion order.
func runTargets(ctx context.Context, env *analysisEnv, targets []target, modelID string, concurrency int) []*model.AnalysisResult {
	if concurrency < 1 {
		concurrency = 1
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var mu sync.Mutex
	var results []*model.AnalysisResult
	var succeeded, failed atomic.Int64

	for _, tgt := range targets {
		g.Go(func() error {
			result, runErr := env.Analyzer.Analyze(gCtx, analysis.Request{
				CompetitorName: tgt.Name,
				TargetURL:      tgt.URL,
				Model:          modelID,
			})
			if runErr != nil {
				failed.Add(1)
				zap.L().Error("target failed",
					zap.String("competitor", tgt.Name),
					zap.Error(runErr),
				)
				return nil // keep going
			}

			succeeded.Add(1)
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()

	zap.L().Info("targets complete",
		zap.Int("total", len(targets)),
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return results
}

// parseTargetsCSV reads a name,url CSV. A header row is skipped when the
// second column does not look like a URL. Blank rows are ignored.
func parseTargetsCSV(path string) ([]target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open csv")
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "read csv")
	}

	var targets []target
	for i, rec := range records {
		if len(rec) < 2 {
			return nil, eris.Errorf("row %d: expected name,url columns, got %d", i+1, len(rec))
		}
		name := strings.TrimSpace(rec[0])
		url := strings.TrimSpace(rec[1])
		if name == "" && url == "" {
			continue
		}
		if i == 0 && !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			continue // header row
		}
		if name == "" || url == "" {
			return nil, eris.Errorf("row %d: name and url are both required", i+1)
		}
		targets = append(targets, target{Name: name, URL: url})
	}

	if len(targets) == 0 {
		return nil, eris.New("csv contains no targets")
	}
	return targets, nil
}

// writeResults writes results to the output file or stdout.
func writeResults(results []*model.AnalysisResult, output string) error {
	w := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return eris.Wrap(err, "batch: create output file")
		}
		defer f.Close() //nolint:errcheck
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
