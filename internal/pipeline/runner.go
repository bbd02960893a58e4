// Package pipeline runs the claims analysis stages over one extract.
package pipeline

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/claims-cli/internal/analysis"
	"github.com/sells-group/claims-cli/internal/census"
	"github.com/sells-group/claims-cli/internal/claims"
	"github.com/sells-group/claims-cli/internal/geo"
	"github.com/sells-group/claims-cli/internal/monitoring"
)

// Inputs are the tables handed to a run. Any boundary or population table
// may be nil; the geographic stage then produces empty aggregates.
type Inputs struct {
	Raw        claims.RawTable
	ZIPs       *geo.Table
	Counties   *geo.Table
	Population *census.Table
}

// Runner cleans an extract and runs the downstream stages concurrently.
type Runner struct {
	opts    Options
	clock   clockwork.Clock
	metrics *monitoring.Metrics
	newID   func() string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithClock sets the clock used for run and stage timing.
func WithClock(c clockwork.Clock) RunnerOption {
	return func(r *Runner) { r.clock = c }
}

// WithMetrics sets the metrics sink. Runners create their own by default.
func WithMetrics(m *monitoring.Metrics) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// WithIDFunc overrides run ID generation.
func WithIDFunc(fn func() string) RunnerOption {
	return func(r *Runner) { r.newID = fn }
}

// NewRunner creates a Runner.
func NewRunner(opts Options, options ...RunnerOption) *Runner {
	r := &Runner{
		opts:  opts,
		clock: clockwork.NewRealClock(),
		newID: uuid.NewString,
	}
	for _, o := range options {
		o(r)
	}
	if r.metrics == nil {
		r.metrics = monitoring.NewMetrics()
	}
	return r
}

// Metrics returns the metrics sink the runner records into.
func (r *Runner) Metrics() *monitoring.Metrics {
	return r.metrics
}

// Run cleans in.Raw and runs the geographic, ranking, time series,
// association and histogram stages over the cleaned table.
//
// Only schema violations (and cancellation) fail the run. A stage error is
// recorded in Result.Errors and leaves the other stages' outputs intact.
func (r *Runner) Run(ctx context.Context, in Inputs) (*Result, error) {
	result := &Result{
		RunID:     r.newID(),
		StartedAt: r.clock.Now(),
	}
	log := zap.L().With(zap.String("run_id", result.RunID))
	log.Info("pipeline: starting run", zap.Int("raw_rows", len(in.Raw.Rows)))

	if err := claims.ValidateClassificationFields(r.opts.Fields); err != nil {
		r.metrics.ObserveRun(OutcomeFailed)
		return nil, eris.Wrap(err, "pipeline: validate classification fields")
	}

	var mu sync.Mutex
	trackStage := func(name string, fn func() error) {
		start := r.clock.Now()
		err := fn()
		d := r.clock.Since(start)

		sr := StageResult{Name: name, DurationMS: d.Milliseconds()}
		if err != nil {
			sr.Error = err.Error()
			log.Error("pipeline: stage failed",
				zap.String("stage", name),
				zap.Int64("duration_ms", sr.DurationMS),
				zap.Error(err),
			)
		} else {
			log.Info("pipeline: stage complete",
				zap.String("stage", name),
				zap.Int64("duration_ms", sr.DurationMS),
			)
		}
		r.metrics.ObserveStage(name, d, err)

		mu.Lock()
		result.recordStage(sr, err)
		mu.Unlock()
	}

	// Cleaning gates everything else.
	var tbl *claims.Table
	var cleanErr error
	trackStage(StageCleaning, func() error {
		tbl, cleanErr = claims.Clean(ctx, in.Raw, r.opts.Clean)
		return cleanErr
	})
	if cleanErr != nil {
		r.metrics.ObserveRun(OutcomeFailed)
		return nil, eris.Wrap(cleanErr, "pipeline: clean")
	}
	result.Table = tbl
	result.Cleaning = tbl.Stats
	r.metrics.ObserveCleaning(tbl.Stats.RawRows, tbl.Stats.Retained, tbl.Stats.UnparsedDates, tbl.Stats.Dropped)

	var (
		geography   analysis.Geography
		rankings    []analysis.CategoryRanking
		series      analysis.TimeSeriesSet
		association analysis.Association
		histogram   analysis.Histogram
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		trackStage(StageGeographic, func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			geography = analysis.AggregateGeography(tbl, in.ZIPs, in.Counties, in.Population, r.opts.Geo)
			return nil
		})
		return nil
	})

	g.Go(func() error {
		trackStage(StageRanking, func() error {
			var err error
			rankings, err = analysis.RankCategories(tbl, r.opts.Fields)
			return err
		})
		return nil
	})

	g.Go(func() error {
		trackStage(StageTimeSeries, func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			series = analysis.BuildTimeSeries(tbl)
			return nil
		})
		return nil
	})

	g.Go(func() error {
		trackStage(StageAssociation, func() error {
			var err error
			association, err = analysis.AnalyzeAssociation(gCtx, tbl, r.opts.Association)
			return err
		})
		return nil
	})

	g.Go(func() error {
		trackStage(StageHistogram, func() error {
			var err error
			histogram, err = analysis.DurationHistogram(tbl, r.opts.HistogramBins)
			return err
		})
		return nil
	})

	// Stage goroutines never return errors; failures live in result.Errors.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		r.metrics.ObserveRun(OutcomeFailed)
		return nil, eris.Wrap(err, "pipeline: run cancelled")
	}

	result.Geography = geography
	result.Rankings = rankings
	result.TimeSeries = series
	result.Association = association
	result.Histogram = histogram
	sortStages(result.Stages)
	result.FinishedAt = r.clock.Now()

	outcome := result.Outcome()
	r.metrics.ObserveRun(outcome)
	log.Info("pipeline: run complete",
		zap.String("outcome", outcome),
		zap.Int("retained", tbl.Stats.Retained),
		zap.Int("stage_errors", len(result.Errors)),
		zap.Duration("duration", result.Duration()),
	)

	return result, nil
}

var stageOrder = map[string]int{
	StageCleaning:    0,
	StageGeographic:  1,
	StageRanking:     2,
	StageTimeSeries:  3,
	StageAssociation: 4,
	StageHistogram:   5,
}

func sortStages(stages []StageResult) {
	sort.SliceStable(stages, func(i, j int) bool {
		return stageOrder[stages[i].Name] < stageOrder[stages[j].Name]
	})
}
