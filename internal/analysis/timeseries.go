package analysis

import (
	"sort"
	"time"

	"github.com/sells-group/claims-cli/internal/claims"
)

// DatePoint is one observation of a date-indexed series.
type DatePoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// TimeSeries is a sparse series ordered by ascending date. Dates with no
// claims are absent rather than present with 0.
type TimeSeries struct {
	Name   string      `json:"name"`
	Points []DatePoint `json:"points"`
}

// Between returns the points with start <= date <= end. The result shares
// storage with s.
func (s TimeSeries) Between(start, end time.Time) TimeSeries {
	lo := sort.Search(len(s.Points), func(i int) bool { return !s.Points[i].Date.Before(start) })
	hi := sort.Search(len(s.Points), func(i int) bool { return s.Points[i].Date.After(end) })
	if hi < lo {
		hi = lo
	}
	return TimeSeries{Name: s.Name, Points: s.Points[lo:hi]}
}

// Since returns the points dated on or after start.
func (s TimeSeries) Since(start time.Time) TimeSeries {
	lo := sort.Search(len(s.Points), func(i int) bool { return !s.Points[i].Date.Before(start) })
	return TimeSeries{Name: s.Name, Points: s.Points[lo:]}
}

// Value returns the value recorded for date d.
func (s TimeSeries) Value(d time.Time) (float64, bool) {
	i := sort.Search(len(s.Points), func(i int) bool { return !s.Points[i].Date.Before(d) })
	if i < len(s.Points) && s.Points[i].Date.Equal(d) {
		return s.Points[i].Value, true
	}
	return 0, false
}

// Len returns the number of points.
func (s TimeSeries) Len() int { return len(s.Points) }

// Series names.
const (
	SeriesDaily          = "claims_by_day"
	SeriesMonthly        = "claims_by_month"
	SeriesMeanDuration   = "mean_accident_to_assembly"
	SeriesMedianDuration = "median_accident_to_assembly"
)

// TimeSeriesSet is the output of BuildTimeSeries.
type TimeSeriesSet struct {
	Daily          TimeSeries `json:"daily"`
	Monthly        TimeSeries `json:"monthly"`
	MeanDuration   TimeSeries `json:"mean_duration"`
	MedianDuration TimeSeries `json:"median_duration"`
}

// BuildTimeSeries counts claims by accident date and accident month, and
// summarizes accident_to_assembly by assembly date.
func BuildTimeSeries(tbl *claims.Table) TimeSeriesSet {
	daily := make(map[time.Time]float64)
	monthly := make(map[time.Time]float64)
	durations := make(map[time.Time][]float64)

	for i := range tbl.Claims {
		c := &tbl.Claims[i]
		if c.AccidentDate != nil {
			daily[*c.AccidentDate]++
			monthly[c.AccidentMonth]++
		}
		if c.AssemblyDate != nil {
			durations[*c.AssemblyDate] = append(durations[*c.AssemblyDate], float64(c.AccidentToAssembly))
		}
	}

	means := make(map[time.Time]float64, len(durations))
	medians := make(map[time.Time]float64, len(durations))
	for d, vals := range durations {
		means[d] = Mean(vals)
		medians[d] = Median(vals)
	}

	return TimeSeriesSet{
		Daily:          seriesFromMap(SeriesDaily, daily),
		Monthly:        seriesFromMap(SeriesMonthly, monthly),
		MeanDuration:   seriesFromMap(SeriesMeanDuration, means),
		MedianDuration: seriesFromMap(SeriesMedianDuration, medians),
	}
}

func seriesFromMap(name string, m map[time.Time]float64) TimeSeries {
	points := make([]DatePoint, 0, len(m))
	for d, v := range m {
		points = append(points, DatePoint{Date: d, Value: v})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return TimeSeries{Name: name, Points: points}
}
