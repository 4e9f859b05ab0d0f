package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rival-intel/internal/analysis"
)

var (
	analyzeName        string
	analyzeURL         string
	analyzeModel       string
	analyzeConcurrency int
	analyzeNoSave      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [name=url ...]",
	Short: "Analyze one or more competitor websites",
	Long: `Runs the analysis pipeline and prints the result JSON to stdout.

Single competitor via flags, or several as positional name=url pairs:

  rival-intel analyze --name "Acme Corp" --url https://acme.example.com
  rival-intel analyze "Acme Corp=https://acme.example.com" "Globex=https://globex.example.com"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		targets, err := analyzeTargets(args)
		if err != nil {
			return err
		}

		env, err := initAnalysis(ctx, !analyzeNoSave)
		if err != nil {
			return err
		}
		defer env.Close()

		// Single target keeps the plain object output.
		if len(targets) == 1 {
			result, err := env.Analyzer.Analyze(ctx, analysis.Request{
				CompetitorName: targets[0].Name,
				TargetURL:      targets[0].URL,
				Model:          analyzeModel,
			})
			if err != nil {
				return eris.Wrap(err, "analyze")
			}

			zap.L().Info("analysis complete",
				zap.String("competitor", result.CompetitorName),
				zap.Int("weaknesses", len(result.Weaknesses)),
				zap.String("model", result.ModelUsed),
			)

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		results := runTargets(ctx, env, targets, analyzeModel, analyzeConcurrency)
		return writeResults(results, "")
	},
}

// analyzeTargets resolves the target list from positional name=url args or
// the --name/--url flags.
func analyzeTargets(args []string) ([]target, error) {
	if len(args) == 0 {
		if analyzeName == "" || analyzeURL == "" {
			return nil, eris.New("either --name and --url, or name=url arguments are required")
		}
		return []target{{Name: analyzeName, URL: analyzeURL}}, nil
	}

	targets := make([]target, 0, len(args))
	for _, arg := range args {
		name, url, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		url = strings.TrimSpace(url)
		if !ok || name == "" || url == "" {
			return nil, eris.Errorf("invalid target %q: expected name=url", arg)
		}
		targets = append(targets, target{Name: name, URL: url})
	}
	return targets, nil
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeName, "name", "", "competitor name")
	analyzeCmd.Flags().StringVar(&analyzeURL, "url", "", "competitor website URL")
	analyzeCmd.Flags().StringVar(&analyzeModel, "model", "", "generation model id (default from catalog)")
	analyzeCmd.Flags().IntVar(&analyzeConcurrency, "concurrency", 2, "max targets to analyze concurrently")
	analyzeCmd.Flags().BoolVar(&analyzeNoSave, "no-save", false, "skip persisting results")
	rootCmd.AddCommand(analyzeCmd)
}
