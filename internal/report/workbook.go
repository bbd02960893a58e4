// Package report writes a pipeline result to an XLSX workbook, one sheet per
// output table.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/claims-cli/internal/analysis"
	"github.com/sells-group/claims-cli/internal/pipeline"
)

// Sheet names, in workbook order.
const (
	SheetSummary   = "summary"
	SheetZIPs      = "zip_codes"
	SheetCounties  = "counties"
	SheetRankings  = "rankings"
	SheetMonthly   = "claims_by_month"
	SheetDuration  = "accident_to_assembly"
	SheetCrossTab  = "representation_outcomes"
	SheetModels    = "hearing_models"
	SheetHistogram = "duration_histogram"
)

// Options configures the workbook.
type Options struct {
	// TopN limits each ranking to its first N labels; 0 keeps all.
	TopN int
	// DurationSince drops duration points before it; zero keeps all.
	DurationSince time.Time
}

// Write builds the workbook for r and saves it to path.
func Write(path string, r *pipeline.Result, opts Options) error {
	f, err := Build(r, opts)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	zap.L().Info("report: workbook written", zap.String("path", path), zap.Int("sheets", len(f.Sheets)))
	return nil
}

// Build renders r into an in-memory workbook.
func Build(r *pipeline.Result, opts Options) (*xlsx.File, error) {
	if r == nil {
		return nil, eris.New("report: nil result")
	}

	f := xlsx.NewFile()
	builders := []struct {
		name string
		fill func(*xlsx.Sheet)
	}{
		{SheetSummary, func(s *xlsx.Sheet) { fillSummary(s, r) }},
		{SheetZIPs, func(s *xlsx.Sheet) { fillZIPs(s, r.Geography.ZIPs) }},
		{SheetCounties, func(s *xlsx.Sheet) { fillCounties(s, r.Geography.Counties) }},
		{SheetRankings, func(s *xlsx.Sheet) { fillRankings(s, r.Rankings, opts.TopN) }},
		{SheetMonthly, func(s *xlsx.Sheet) { fillSeries(s, "month", r.TimeSeries.Monthly) }},
		{SheetDuration, func(s *xlsx.Sheet) { fillDuration(s, r.TimeSeries, opts.DurationSince) }},
		{SheetCrossTab, func(s *xlsx.Sheet) { fillCrossTab(s, r.Association.CrossTab) }},
		{SheetModels, func(s *xlsx.Sheet) { fillModels(s, r.Association) }},
		{SheetHistogram, func(s *xlsx.Sheet) { fillHistogram(s, r.Histogram) }},
	}
	for _, b := range builders {
		sheet, err := f.AddSheet(b.name)
		if err != nil {
			return nil, eris.Wrapf(err, "report: add sheet %s", b.name)
		}
		b.fill(sheet)
	}
	return f, nil
}

func fillSummary(s *xlsx.Sheet, r *pipeline.Result) {
	addStrings(s, "field", "value")
	addStrings(s, "run_id", r.RunID)
	addStrings(s, "started_at", r.StartedAt.UTC().Format(time.RFC3339))
	addStrings(s, "finished_at", r.FinishedAt.UTC().Format(time.RFC3339))
	addStrings(s, "outcome", r.Outcome())
	addInt(s, "raw_rows", r.Cleaning.RawRows)
	addInt(s, "retained", r.Cleaning.Retained)
	addInt(s, "unparsed_dates", r.Cleaning.UnparsedDates)
	addInt(s, "short_rows", r.Cleaning.ShortRows)
	for _, reason := range sortedKeys(r.Cleaning.Dropped) {
		addInt(s, "dropped:"+reason, r.Cleaning.Dropped[reason])
	}
	for _, stage := range sortedKeys(r.Errors) {
		addStrings(s, "error:"+stage, r.Errors[stage])
	}
}

func fillZIPs(s *xlsx.Sheet, aggs []analysis.GeoAggregate) {
	addStrings(s, "zip_code", "claims", "population", "claims_per_1000")
	for _, a := range aggs {
		row := s.AddRow()
		row.AddCell().SetString(a.Key)
		row.AddCell().SetInt(a.Count)
		row.AddCell().SetFloat(a.Population)
		row.AddCell().SetFloat(a.ClaimsPerCapita)
	}
}

func fillCounties(s *xlsx.Sheet, aggs []analysis.GeoAggregate) {
	addStrings(s, "county", "claims")
	for _, a := range aggs {
		row := s.AddRow()
		row.AddCell().SetString(a.Key)
		row.AddCell().SetInt(a.Count)
	}
}

func fillRankings(s *xlsx.Sheet, rankings []analysis.CategoryRanking, topN int) {
	addStrings(s, "field", "rank", "label", "claims")
	for _, rk := range rankings {
		for i, c := range rk.Top(topN) {
			row := s.AddRow()
			row.AddCell().SetString(rk.Key)
			row.AddCell().SetInt(i + 1)
			row.AddCell().SetString(c.Label)
			row.AddCell().SetInt(c.Count)
		}
	}
}

func fillSeries(s *xlsx.Sheet, dateHeader string, ts analysis.TimeSeries) {
	addStrings(s, dateHeader, "claims")
	for _, p := range ts.Points {
		row := s.AddRow()
		row.AddCell().SetString(p.Date.Format(time.DateOnly))
		row.AddCell().SetInt(int(p.Value))
	}
}

func fillDuration(s *xlsx.Sheet, set analysis.TimeSeriesSet, since time.Time) {
	addStrings(s, "assembly_date", "mean_days", "median_days")
	mean := set.MeanDuration.Since(since)
	median := set.MedianDuration.Since(since)
	for i, p := range mean.Points {
		row := s.AddRow()
		row.AddCell().SetString(p.Date.Format(time.DateOnly))
		row.AddCell().SetFloat(p.Value)
		if i < len(median.Points) {
			row.AddCell().SetFloat(median.Points[i].Value)
		}
	}
}

func fillCrossTab(s *xlsx.Sheet, ct analysis.CrossTab) {
	header := s.AddRow()
	header.AddCell().SetString("highest_process")
	for _, rep := range ct.Representation {
		header.AddCell().SetString(fmt.Sprintf("representation=%d", rep))
	}
	for i, outcome := range ct.Outcomes {
		row := s.AddRow()
		row.AddCell().SetString(outcome)
		for j := range ct.Representation {
			row.AddCell().SetFloat(ct.Proportions[i][j])
		}
	}
}

func fillModels(s *xlsx.Sheet, a analysis.Association) {
	addStrings(s, "model", "term", "coefficient")
	addModel(s, "simple", a.Simple)
	addModel(s, "full", a.Full)
	addInt(s, "training_rows", a.TrainingRows)
	addInt(s, "positives", a.Positives)
}

func addModel(s *xlsx.Sheet, name string, m *analysis.LogisticModel) {
	if m == nil {
		addStrings(s, name, "not fitted")
		return
	}
	addCoef(s, name, "intercept", m.Intercept)
	for i, f := range m.Features {
		addCoef(s, name, f, m.Coefficients[i])
	}
}

func addCoef(s *xlsx.Sheet, model, term string, v float64) {
	row := s.AddRow()
	row.AddCell().SetString(model)
	row.AddCell().SetString(term)
	row.AddCell().SetFloat(v)
}

func fillHistogram(s *xlsx.Sheet, h analysis.Histogram) {
	addStrings(s, "lower", "upper", "claims")
	for _, b := range h.Bins {
		row := s.AddRow()
		row.AddCell().SetFloat(b.Lower)
		row.AddCell().SetFloat(b.Upper)
		row.AddCell().SetInt(b.Count)
	}
}

func addStrings(s *xlsx.Sheet, values ...string) {
	row := s.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func addInt(s *xlsx.Sheet, label string, v int) {
	row := s.AddRow()
	row.AddCell().SetString(label)
	row.AddCell().SetInt(v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
