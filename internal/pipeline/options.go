package pipeline

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/claims-cli/internal/analysis"
	"github.com/sells-group/claims-cli/internal/claims"
	"github.com/sells-group/claims-cli/internal/config"
)

// Options carries the per-stage settings of one run.
type Options struct {
	Clean         claims.Options
	Geo           analysis.GeoOptions
	Association   analysis.AssociationOptions
	Fields        []claims.ClassificationField
	HistogramBins int
}

// DefaultOptions returns the settings used when no config file is present.
func DefaultOptions() Options {
	return Options{
		Clean:         claims.DefaultOptions(),
		Geo:           analysis.DefaultGeoOptions(),
		Association:   analysis.DefaultAssociationOptions(),
		Fields:        claims.ClassificationFields,
		HistogramBins: analysis.DefaultHistogramBins,
	}
}

// OptionsFromConfig maps the analysis section of the config onto Options.
func OptionsFromConfig(cfg config.AnalysisConfig) (Options, error) {
	minDate, err := cfg.MinAccidentTime()
	if err != nil {
		return Options{}, eris.Wrap(err, "pipeline: options")
	}

	opts := DefaultOptions()
	opts.Clean = claims.Options{
		MinAccidentDate: minDate,
		MaxAssemblyDays: cfg.MaxAssemblyDays,
	}
	opts.Geo.PopulationThreshold = cfg.PopulationThreshold
	opts.Association = analysis.AssociationOptions{
		MinWage:        cfg.MinWage,
		MaxWage:        cfg.MaxWage,
		MinAge:         cfg.MinAge,
		MaxAge:         cfg.MaxAge,
		HearingProcess: cfg.HearingProcess,
		Fit: analysis.FitOptions{
			MaxIterations: cfg.Regression.MaxIterations,
			Tolerance:     cfg.Regression.Tolerance,
			L2:            cfg.Regression.L2,
		},
	}
	if cfg.HistogramBins > 0 {
		opts.HistogramBins = cfg.HistogramBins
	}
	return opts, nil
}
