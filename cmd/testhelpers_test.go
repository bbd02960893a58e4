//go:build !integration

package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/claims-cli/internal/analysis"
	"github.com/sells-group/claims-cli/internal/claims"
	"github.com/sells-group/claims-cli/internal/config"
	"github.com/sells-group/claims-cli/internal/pipeline"
	"github.com/sells-group/claims-cli/internal/store"
)

var started = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func sampleResult(runID string) *pipeline.Result {
	return &pipeline.Result{
		RunID:      runID,
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
		Cleaning: claims.Stats{
			RawRows:  31,
			Retained: 30,
			Dropped:  map[string]int{claims.DropBeforeMinDate: 1},
		},
		Geography: analysis.Geography{
			ZIPs:     []analysis.GeoAggregate{{Key: "10001", Count: 10, Population: 21102, ClaimsPerCapita: 10.0 / 21102 * 1000}},
			Counties: []analysis.GeoAggregate{{Key: "NEW YORK", Count: 10}, {Key: "KINGS", Count: 20}},
		},
		Rankings: []analysis.CategoryRanking{{
			Key:    "wcio_nature_of_injury",
			Field:  claims.ColWCIONature,
			Counts: []analysis.CategoryCount{{Label: "STRAIN OR TEAR", Count: 20}, {Label: "CONTUSION", Count: 10}},
		}},
		TimeSeries: analysis.TimeSeriesSet{
			Daily: analysis.TimeSeries{Name: analysis.SeriesDaily, Points: []analysis.DatePoint{
				{Date: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Value: 30},
			}},
		},
	}
}

func sqliteConfig(t *testing.T) config.StoreConfig {
	t.Helper()
	return config.StoreConfig{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "cache", "analysis.db")}
}

func newTestStore(t *testing.T, results ...*pipeline.Result) store.Store {
	t.Helper()
	st, err := initStore(context.Background(), sqliteConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	for _, r := range results {
		require.NoError(t, st.SaveResult(context.Background(), "data/full.csv", r))
	}
	return st
}
