package store

import (
	"time"

	"github.com/twpayne/go-geom"

	"github.com/sells-group/claims-cli/internal/analysis"
	"github.com/sells-group/claims-cli/internal/claims"
	"github.com/sells-group/claims-cli/internal/geo"
	"github.com/sells-group/claims-cli/internal/pipeline"
)

var started = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func sampleResult(runID string, at time.Time) *pipeline.Result {
	d1 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	return &pipeline.Result{
		RunID:      runID,
		StartedAt:  at,
		FinishedAt: at.Add(2 * time.Second),
		Cleaning: claims.Stats{
			RawRows:  31,
			Retained: 30,
			Dropped:  map[string]int{claims.DropBeforeMinDate: 1},
		},
		Geography: analysis.Geography{
			ZIPs: []analysis.GeoAggregate{{
				Key:             "10001",
				Boundary:        &geo.Boundary{Key: "10001", Geometry: geom.NewPointFlat(geom.XY, []float64{-73.99, 40.75}).SetSRID(geo.SRID)},
				Count:           10,
				Population:      21102,
				ClaimsPerCapita: 10.0 / 21102 * 1000,
			}},
			Counties: []analysis.GeoAggregate{{Key: "NEW YORK", Count: 10}},
		},
		Rankings: []analysis.CategoryRanking{{
			Key:    "wcio_nature_of_injury",
			Field:  claims.ColWCIONature,
			Counts: []analysis.CategoryCount{{Label: "STRAIN OR TEAR", Count: 20}, {Label: "CONTUSION", Count: 10}},
		}},
		TimeSeries: analysis.TimeSeriesSet{
			Daily: analysis.TimeSeries{Name: analysis.SeriesDaily, Points: []analysis.DatePoint{
				{Date: d1, Value: 2},
				{Date: d1.AddDate(0, 0, 1), Value: 1},
			}},
		},
		Histogram: analysis.Histogram{Column: "accident_to_assembly", Min: 3, Max: 22, Total: 30},
		Stages:    []pipeline.StageResult{{Name: pipeline.StageCleaning, DurationMS: 4}},
	}
}
