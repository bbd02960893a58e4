package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/claims-cli/internal/claims"
	"github.com/sells-group/claims-cli/internal/ingest"
	"github.com/sells-group/claims-cli/internal/pipeline"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean a claims extract and report what was dropped",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		applyInputFlags(cmd, &cfg.Inputs)
		if cfg.Inputs.ClaimsPath == "" {
			return eris.New("clean: --claims is required")
		}
		out, _ := cmd.Flags().GetString("out")

		opts, err := pipeline.OptionsFromConfig(cfg.Analysis)
		if err != nil {
			return err
		}

		raw, err := ingest.LoadRawTable(ctx, cfg.Inputs.ClaimsPath)
		if err != nil {
			return err
		}
		tbl, err := claims.Clean(ctx, raw, opts.Clean)
		if err != nil {
			return eris.Wrap(err, "clean")
		}

		if out != "" {
			if err := writeCleanCSV(out, tbl); err != nil {
				return err
			}
			zap.L().Info("clean: table written", zap.String("path", out), zap.Int("rows", tbl.Len()))
		}

		formatCleanStats(os.Stdout, tbl.Stats)
		return nil
	},
}

func init() {
	addInputFlags(cleanCmd)
	cleanCmd.Flags().String("out", "", "write the cleaned table as CSV to this path")
	rootCmd.AddCommand(cleanCmd)
}

// writeCleanCSV writes tbl in raw extract vocabulary. Cleaning the output
// again is a no-op.
func writeCleanCSV(path string, tbl *claims.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "clean: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	raw := tbl.Raw()
	w := csv.NewWriter(f)
	if err := w.Write(raw.Header); err != nil {
		return eris.Wrap(err, "clean: write header")
	}
	if err := w.WriteAll(raw.Rows); err != nil {
		return eris.Wrap(err, "clean: write rows")
	}
	return nil
}

// formatCleanStats writes row counts and drop reasons to w.
func formatCleanStats(out io.Writer, s claims.Stats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Rows read:\t%d\n", s.RawRows)
	_, _ = fmt.Fprintf(w, "Rows retained:\t%d\n", s.Retained)
	_, _ = fmt.Fprintf(w, "Rows dropped:\t%d\n", s.DroppedTotal())

	reasons := make([]string, 0, len(s.Dropped))
	for r := range s.Dropped {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		_, _ = fmt.Fprintf(w, "  %s:\t%d\n", r, s.Dropped[r])
	}
	_, _ = fmt.Fprintf(w, "Unparsed dates:\t%d\n", s.UnparsedDates)
	if s.ShortRows > 0 {
		_, _ = fmt.Fprintf(w, "Short rows:\t%d\n", s.ShortRows)
	}
	_ = w.Flush()
}
