package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/rival-intel/internal/model"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the allow-listed generation models",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := initRegistry()
		if err != nil {
			return err
		}
		formatModelsList(os.Stdout, reg.List(), reg.Default().ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

// formatModelsList writes a tabular model catalog to w.
func formatModelsList(out io.Writer, options []model.ModelOption, defaultID string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tDAILY QUOTA\tNOTE")
	_, _ = fmt.Fprintln(w, "--\t----\t-----------\t----")

	for _, opt := range options {
		id := opt.ID
		if opt.ID == defaultID {
			id += " (default)"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, opt.Name, opt.DailyQuota, opt.Note)
	}
	_ = w.Flush()
}
