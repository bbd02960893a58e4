package config

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Inputs   InputsConfig   `yaml:"inputs" mapstructure:"inputs"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the result cache backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver" validate:"oneof=sqlite postgres none"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url" validate:"required_if=Driver postgres"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path" validate:"required_if=Driver sqlite"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns" validate:"gte=0"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns" validate:"gte=0"`
}

// InputsConfig points at the local files handed to the pipeline.
type InputsConfig struct {
	ClaimsPath     string `yaml:"claims_path" mapstructure:"claims_path"`
	ZipPath        string `yaml:"zip_path" mapstructure:"zip_path"`
	ZipKeyField    string `yaml:"zip_key_field" mapstructure:"zip_key_field" validate:"required"`
	CountyPath     string `yaml:"county_path" mapstructure:"county_path"`
	CountyKeyField string `yaml:"county_key_field" mapstructure:"county_key_field" validate:"required"`
	PopulationPath string `yaml:"population_path" mapstructure:"population_path"`
}

// AnalysisConfig holds the domain cutoffs used by cleaning and modelling.
type AnalysisConfig struct {
	MinAccidentDate     string  `yaml:"min_accident_date" mapstructure:"min_accident_date" validate:"required,datetime=2006-01-02"`
	MaxAssemblyDays     int     `yaml:"max_assembly_days" mapstructure:"max_assembly_days" validate:"gt=0"`
	PopulationThreshold float64 `yaml:"population_threshold" mapstructure:"population_threshold" validate:"gte=0"`
	MinWage             float64 `yaml:"min_wage" mapstructure:"min_wage"`
	MaxWage             float64 `yaml:"max_wage" mapstructure:"max_wage" validate:"gtefield=MinWage"`
	MinAge              float64 `yaml:"min_age" mapstructure:"min_age"`
	MaxAge              float64 `yaml:"max_age" mapstructure:"max_age" validate:"gtefield=MinAge"`
	HearingProcess      string  `yaml:"hearing_process" mapstructure:"hearing_process" validate:"required"`
	HistogramBins       int     `yaml:"histogram_bins" mapstructure:"histogram_bins" validate:"gt=0"`
	DurationSince       string  `yaml:"duration_since" mapstructure:"duration_since" validate:"omitempty,datetime=2006-01-02"`

	Regression RegressionConfig `yaml:"regression" mapstructure:"regression"`
}

// RegressionConfig holds solver settings for the logistic fits.
type RegressionConfig struct {
	MaxIterations int     `yaml:"max_iterations" mapstructure:"max_iterations" validate:"gt=0"`
	Tolerance     float64 `yaml:"tolerance" mapstructure:"tolerance" validate:"gt=0"`
	L2            float64 `yaml:"l2" mapstructure:"l2" validate:"gte=0"`
}

// OutputConfig configures where collaborators write artifacts.
type OutputConfig struct {
	ReportPath string `yaml:"report_path" mapstructure:"report_path"`
	PlotsDir   string `yaml:"plots_dir" mapstructure:"plots_dir"`
	TopN       int    `yaml:"top_n" mapstructure:"top_n" validate:"gt=0"`
	// TSWindows are extra date ranges drawn as their own claim count charts.
	TSWindows []TSWindow `yaml:"ts_windows" mapstructure:"ts_windows" validate:"dive"`
}

// TSWindow is one inclusive date range of claim count charts. Series holds
// "monthly", "daily" or both.
type TSWindow struct {
	Name   string   `yaml:"name" mapstructure:"name" validate:"required"`
	Start  string   `yaml:"start" mapstructure:"start" validate:"required,datetime=2006-01-02"`
	End    string   `yaml:"end" mapstructure:"end" validate:"required,datetime=2006-01-02"`
	Series []string `yaml:"series" mapstructure:"series" validate:"min=1,dive,oneof=monthly daily"`
}

// Bounds parses Start and End.
func (w TSWindow) Bounds() (time.Time, time.Time, error) {
	start, err := time.Parse(time.DateOnly, w.Start)
	if err != nil {
		return time.Time{}, time.Time{}, eris.Wrapf(err, "config: parse ts window %s start", w.Name)
	}
	end, err := time.Parse(time.DateOnly, w.End)
	if err != nil {
		return time.Time{}, time.Time{}, eris.Wrapf(err, "config: parse ts window %s end", w.Name)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, eris.Errorf("config: ts window %s ends before it starts", w.Name)
	}
	return start, end, nil
}

// Has reports whether the window draws the named series.
func (w TSWindow) Has(series string) bool {
	for _, s := range w.Series {
		if s == series {
			return true
		}
	}
	return false
}

// ServerConfig configures the read-only results API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=json console"`
}

// MinAccidentTime parses MinAccidentDate. Load validates the layout, so the
// error path only triggers on hand-built configs.
func (a AnalysisConfig) MinAccidentTime() (time.Time, error) {
	t, err := time.Parse(time.DateOnly, a.MinAccidentDate)
	if err != nil {
		return time.Time{}, eris.Wrap(err, "config: parse min_accident_date")
	}
	return t, nil
}

// DurationSinceTime parses DurationSince. The zero time means no lower bound.
func (a AnalysisConfig) DurationSinceTime() (time.Time, error) {
	if a.DurationSince == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, a.DurationSince)
	if err != nil {
		return time.Time{}, eris.Wrap(err, "config: parse duration_since")
	}
	return t, nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CLAIMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "data/analysis.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("inputs.claims_path", "data/full.csv")
	v.SetDefault("inputs.zip_key_field", "ZCTA5CE10")
	v.SetDefault("inputs.county_key_field", "name")
	v.SetDefault("analysis.min_accident_date", "2000-01-01")
	v.SetDefault("analysis.max_assembly_days", 500)
	v.SetDefault("analysis.population_threshold", 1000)
	v.SetDefault("analysis.min_wage", 50)
	v.SetDefault("analysis.max_wage", 5000)
	v.SetDefault("analysis.min_age", 18)
	v.SetDefault("analysis.max_age", 65)
	v.SetDefault("analysis.hearing_process", "4A. HEARING - JUDGE")
	v.SetDefault("analysis.histogram_bins", 300)
	v.SetDefault("analysis.duration_since", "2019-07-01")
	v.SetDefault("analysis.regression.max_iterations", 100)
	v.SetDefault("analysis.regression.tolerance", 1e-8)
	v.SetDefault("analysis.regression.l2", 0)
	v.SetDefault("output.plots_dir", "plots")
	v.SetDefault("output.top_n", 10)
	v.SetDefault("output.ts_windows", []map[string]any{
		{"name": "overall", "start": "2000-01-01", "end": "2022-05-01", "series": []string{"monthly", "daily"}},
		{"name": "recent", "start": "2016-01-01", "end": "2022-05-01", "series": []string{"monthly", "daily"}},
		{"name": "past_year", "start": "2021-01-01", "end": "2022-05-01", "series": []string{"daily"}},
	})
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct-level constraints on the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return eris.Wrap(err, "config: validate")
	}
	for _, w := range c.Output.TSWindows {
		if _, _, err := w.Bounds(); err != nil {
			return err
		}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
