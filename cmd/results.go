package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/claims-cli/internal/pipeline"
	"github.com/sells-group/claims-cli/internal/store"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect cached analysis results",
	Long:  "Commands for listing and viewing results saved by analyze.",
}

// -- results list --

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached results, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		outcome, _ := cmd.Flags().GetString("outcome")
		limit, _ := cmd.Flags().GetInt("limit")

		sums, err := st.ListResults(ctx, store.ListFilter{Outcome: outcome, Limit: limit})
		if err != nil {
			return eris.Wrap(err, "results list")
		}

		if len(sums) == 0 {
			fmt.Fprintln(os.Stderr, "No results found.")
			return nil
		}

		formatResultsList(os.Stdout, sums)
		return nil
	},
}

// -- results show --

var resultsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a cached result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, _ := cmd.Flags().GetString("format")
		if format != "json" && format != "yaml" {
			return eris.Errorf("results show: unsupported format %q", format)
		}

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		res, err := st.GetResult(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "results show")
		}
		return writeResult(os.Stdout, res, format)
	},
}

func init() {
	resultsListCmd.Flags().String("outcome", "", "filter by outcome (success, partial, failed)")
	resultsListCmd.Flags().Int("limit", 20, "max number of results to display")

	resultsShowCmd.Flags().String("format", "json", "output format (json, yaml)")

	resultsCmd.AddCommand(resultsListCmd)
	resultsCmd.AddCommand(resultsShowCmd)
	rootCmd.AddCommand(resultsCmd)
}

// writeResult encodes r as indented JSON, or as YAML with the same keys.
func writeResult(out io.Writer, r *pipeline.Result, format string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return eris.Wrap(err, "encode result")
	}
	if format == "json" {
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	// YAML is a superset of JSON, so decoding the JSON keeps the json tags
	// as YAML keys.
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return eris.Wrap(err, "decode result")
	}
	clearStyle(&doc)
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return eris.Wrap(err, "encode yaml")
	}
	return enc.Close()
}

// clearStyle drops the flow/quoted styles inherited from JSON so the output
// reads as block YAML.
func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
}

// formatResultsList writes a tabular list of results to w.
func formatResultsList(out io.Writer, sums []store.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSOURCE\tOUTCOME\tRAW\tRETAINED\tERRORS\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t------\t-------\t---\t--------\t------\t-------")

	for _, s := range sums {
		source := s.Source
		if len(source) > 30 {
			source = "..." + source[len(source)-27:]
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			truncateID(s.RunID),
			source,
			s.Outcome,
			s.RawRows,
			s.Retained,
			s.StageErrors,
			s.CreatedAt.Format("2006-01-02 15:04"),
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
