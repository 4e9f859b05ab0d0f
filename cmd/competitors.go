package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/rival-intel/internal/model"
)

var competitorsCmd = &cobra.Command{
	Use:   "competitors",
	Short: "Inspect analyzed competitors",
	Long:  "Commands for listing, viewing, and deleting competitors and their insights.",
}

// -- competitors list --

var competitorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List analyzed competitors",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		summaries, err := st.ListCompetitors(ctx)
		if err != nil {
			return eris.Wrap(err, "competitors list")
		}

		if len(summaries) == 0 {
			fmt.Fprintln(os.Stderr, "No competitors found.")
			return nil
		}

		formatCompetitorsList(os.Stdout, summaries)
		return nil
	},
}

// -- competitors show --

var competitorsShowCmd = &cobra.Command{
	Use:   "show <competitor-id>",
	Short: "Show a competitor and all its insights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		competitor, err := st.GetCompetitor(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "competitors show")
		}
		if competitor == nil {
			return eris.Errorf("competitor %s not found", args[0])
		}

		insights, err := st.ListInsights(ctx, competitor.ID)
		if err != nil {
			return eris.Wrap(err, "competitors show: insights")
		}

		detail := struct {
			model.Competitor
			Insights []model.Insight `json:"insights"`
		}{Competitor: *competitor, Insights: insights}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(detail)
	},
}

// -- competitors delete --

var competitorsDeleteCmd = &cobra.Command{
	Use:   "delete <competitor-id>",
	Short: "Delete a competitor and its insights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if err := st.DeleteCompetitor(ctx, args[0]); err != nil {
			return eris.Wrap(err, "competitors delete")
		}

		fmt.Printf("Deleted competitor %s\n", args[0])
		return nil
	},
}

func init() {
	competitorsCmd.AddCommand(competitorsListCmd)
	competitorsCmd.AddCommand(competitorsShowCmd)
	competitorsCmd.AddCommand(competitorsDeleteCmd)
	rootCmd.AddCommand(competitorsCmd)
}

// formatCompetitorsList writes a tabular list of competitors to w.
func formatCompetitorsList(out io.Writer, summaries []model.CompetitorSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tURL\tINSIGHTS\tUPDATED")
	_, _ = fmt.Fprintln(w, "--\t----\t---\t--------\t-------")

	for _, s := range summaries {
		name := s.Name
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		url := s.TargetURL
		if len(url) > 40 {
			url = url[:37] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			truncateID(s.ID),
			name,
			url,
			s.InsightCount,
			s.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
