package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/claims-cli/internal/census"
	"github.com/sells-group/claims-cli/internal/config"
	"github.com/sells-group/claims-cli/internal/geo"
	"github.com/sells-group/claims-cli/internal/ingest"
	"github.com/sells-group/claims-cli/internal/pipeline"
	"github.com/sells-group/claims-cli/internal/render"
	"github.com/sells-group/claims-cli/internal/report"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full analysis over a claims extract",
	Long: `Cleans the claims extract, then runs the geographic, ranking, time series,
association and histogram stages concurrently. A failing stage is reported
without discarding the others. The result is cached under its run ID unless
--no-cache is set or store.driver is none.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyInputFlags(cmd, &cfg.Inputs)
		noCache, _ := cmd.Flags().GetBool("no-cache")
		reportPath, _ := cmd.Flags().GetString("report")
		if reportPath == "" {
			reportPath = cfg.Output.ReportPath
		}
		plotsDir, _ := cmd.Flags().GetString("plots")
		if plotsDir == "" {
			plotsDir = cfg.Output.PlotsDir
		}
		metricsOut, _ := cmd.Flags().GetString("metrics-out")

		opts, err := pipeline.OptionsFromConfig(cfg.Analysis)
		if err != nil {
			return err
		}
		durationSince, err := cfg.Analysis.DurationSinceTime()
		if err != nil {
			return err
		}
		windows, err := renderWindows(cfg.Output.TSWindows)
		if err != nil {
			return err
		}

		in, err := loadInputs(ctx, cfg.Inputs)
		if err != nil {
			return err
		}

		runner := pipeline.NewRunner(opts)
		res, err := runner.Run(ctx, in)
		if err != nil {
			writeMetrics(runner, metricsOut)
			return eris.Wrap(err, "analyze")
		}

		if !noCache {
			cacheResult(ctx, cfg.Store, cfg.Inputs.ClaimsPath, res)
		}

		if reportPath != "" {
			if err := report.Write(reportPath, res, report.Options{TopN: cfg.Output.TopN, DurationSince: durationSince}); err != nil {
				return err
			}
		}
		if plotsDir != "" {
			if _, err := render.New(plotsDir).RenderAll(res, render.Options{
				TopN:          cfg.Output.TopN,
				DurationSince: durationSince,
				Windows:       windows,
				ZIPs:          in.ZIPs,
				Counties:      in.Counties,
			}); err != nil {
				return err
			}
		}
		writeMetrics(runner, metricsOut)

		formatAnalyzeSummary(os.Stdout, res)
		return nil
	},
}

func init() {
	addInputFlags(analyzeCmd)
	analyzeCmd.Flags().String("zips", "", "ZIP code boundaries (.shp, .zip or .geojson)")
	analyzeCmd.Flags().String("counties", "", "county boundaries (.shp, .zip or .geojson)")
	analyzeCmd.Flags().String("population", "", "ZCTA population table (CSV, XLSX or Census API JSON)")
	analyzeCmd.Flags().String("report", "", "write an XLSX workbook to this path")
	analyzeCmd.Flags().String("plots", "", "write PNG charts into this directory")
	analyzeCmd.Flags().String("metrics-out", "", "write run metrics in Prometheus text format to this path")
	analyzeCmd.Flags().Bool("no-cache", false, "do not save the result to the store")
	rootCmd.AddCommand(analyzeCmd)
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("claims", "", "claims extract (CSV, XLSX or zipped CSV)")
}

// applyInputFlags overrides configured input paths with any flags set on cmd.
func applyInputFlags(cmd *cobra.Command, in *config.InputsConfig) {
	for flag, dst := range map[string]*string{
		"claims":     &in.ClaimsPath,
		"zips":       &in.ZipPath,
		"counties":   &in.CountyPath,
		"population": &in.PopulationPath,
	} {
		f := cmd.Flags().Lookup(flag)
		if f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
}

// loadInputs reads every configured input. Boundary and population paths are
// optional; the claims path is not.
func loadInputs(ctx context.Context, ic config.InputsConfig) (pipeline.Inputs, error) {
	var in pipeline.Inputs
	if ic.ClaimsPath == "" {
		return in, eris.New("analyze: --claims is required")
	}

	raw, err := ingest.LoadRawTable(ctx, ic.ClaimsPath)
	if err != nil {
		return in, err
	}
	in.Raw = raw

	if ic.ZipPath != "" {
		if in.ZIPs, err = geo.LoadZIPBoundaries(ctx, ic.ZipPath, ic.ZipKeyField); err != nil {
			return in, err
		}
	}
	if ic.CountyPath != "" {
		if in.Counties, err = geo.LoadCountyBoundaries(ctx, ic.CountyPath, ic.CountyKeyField); err != nil {
			return in, err
		}
	}
	if ic.PopulationPath != "" {
		if in.Population, err = census.LoadPopulation(ctx, ic.PopulationPath); err != nil {
			return in, err
		}
	}
	return in, nil
}

// cacheResult saves res to the configured store. Cache failures are logged,
// not returned: the run itself succeeded.
func cacheResult(ctx context.Context, sc config.StoreConfig, source string, res *pipeline.Result) {
	st, err := initStore(ctx, sc)
	if errors.Is(err, errNoStore) {
		return
	}
	if err != nil {
		zap.L().Warn("analyze: result cache unavailable", zap.Error(err))
		return
	}
	defer st.Close() //nolint:errcheck

	if err := st.SaveResult(ctx, source, res); err != nil {
		zap.L().Warn("analyze: cache result failed", zap.String("run_id", res.RunID), zap.Error(err))
		return
	}
	zap.L().Info("analyze: result cached", zap.String("run_id", res.RunID), zap.String("driver", sc.Driver))
}

// renderWindows converts configured time series windows into chart windows.
func renderWindows(ws []config.TSWindow) ([]render.Window, error) {
	out := make([]render.Window, 0, len(ws))
	for _, w := range ws {
		start, end, err := w.Bounds()
		if err != nil {
			return nil, err
		}
		out = append(out, render.Window{
			Name:    w.Name,
			Start:   start,
			End:     end,
			Monthly: w.Has("monthly"),
			Daily:   w.Has("daily"),
		})
	}
	return out, nil
}

func writeMetrics(runner *pipeline.Runner, path string) {
	if path == "" {
		return
	}
	if err := runner.Metrics().WriteTextfile(path); err != nil {
		zap.L().Warn("analyze: write metrics failed", zap.String("path", path), zap.Error(err))
	}
}

// formatAnalyzeSummary writes a short run summary to w.
func formatAnalyzeSummary(out io.Writer, r *pipeline.Result) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Run:\t%s\n", r.RunID)
	_, _ = fmt.Fprintf(w, "Outcome:\t%s\n", r.Outcome())
	_, _ = fmt.Fprintf(w, "Duration:\t%s\n", r.Duration())
	_, _ = fmt.Fprintf(w, "Rows read:\t%d\n", r.Cleaning.RawRows)
	_, _ = fmt.Fprintf(w, "Rows retained:\t%d\n", r.Cleaning.Retained)
	_, _ = fmt.Fprintf(w, "ZIP codes:\t%d\n", len(r.Geography.ZIPs))
	_, _ = fmt.Fprintf(w, "Counties:\t%d\n", len(r.Geography.Counties))
	_, _ = fmt.Fprintf(w, "Days with claims:\t%d\n", r.TimeSeries.Daily.Len())

	for _, rk := range r.Rankings {
		if top := rk.Top(1); len(top) > 0 {
			_, _ = fmt.Fprintf(w, "Top %s:\t%s (%d)\n", rk.Key, top[0].Label, top[0].Count)
		}
	}
	if r.Association.Full != nil {
		_, _ = fmt.Fprintf(w, "Hearing model:\t%d rows, %d positives\n", r.Association.TrainingRows, r.Association.Positives)
	}

	stages := make([]string, 0, len(r.Errors))
	for s := range r.Errors {
		stages = append(stages, s)
	}
	sort.Strings(stages)
	for _, s := range stages {
		_, _ = fmt.Fprintf(w, "Stage %s failed:\t%s\n", s, r.Errors[s])
	}
	_ = w.Flush()
}
