package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/claims-cli/internal/claims"
)

func TestBuildTimeSeries_Counts(t *testing.T) {
	tbl := table(
		claim(day(2020, 3, 15), 2),
		claim(day(2020, 1, 10), 5),
		claim(day(2020, 1, 10), 3),
		claim(day(2020, 1, 31), 1),
	)

	ts := BuildTimeSeries(tbl)

	require.Equal(t, 3, ts.Daily.Len())
	assert.Equal(t, day(2020, 1, 10), ts.Daily.Points[0].Date)
	assert.InDelta(t, 2, ts.Daily.Points[0].Value, 0)

	require.Equal(t, 2, ts.Monthly.Len())
	assert.Equal(t, DatePoint{Date: day(2020, 1, 1), Value: 3}, ts.Monthly.Points[0])
	assert.Equal(t, DatePoint{Date: day(2020, 3, 1), Value: 1}, ts.Monthly.Points[1])

	_, ok := ts.Daily.Value(day(2020, 2, 1))
	assert.False(t, ok, "series are sparse")
}

func TestBuildTimeSeries_DailyCompleteness(t *testing.T) {
	var cs []claims.Claim
	for i := 0; i < 300; i++ {
		cs = append(cs, claim(day(2019, 1, 1).AddDate(0, 0, (i*7)%45), i%30))
	}
	tbl := table(cs...)
	ts := BuildTimeSeries(tbl)

	want := make(map[string]int)
	for _, c := range cs {
		want[c.AccidentDate.Format("2006-01-02")]++
	}
	assert.Equal(t, len(want), ts.Daily.Len())
	for i, p := range ts.Daily.Points {
		assert.InDelta(t, want[p.Date.Format("2006-01-02")], p.Value, 0)
		if i > 0 {
			assert.True(t, ts.Daily.Points[i-1].Date.Before(p.Date))
		}
	}
}

func TestBuildTimeSeries_DurationByAssemblyDate(t *testing.T) {
	// All four assembled 2020-02-10.
	tbl := table(
		claim(day(2020, 2, 1), 9),
		claim(day(2020, 2, 8), 2),
		claim(day(2020, 1, 11), 30),
		claim(day(2020, 2, 10), 0),
	)

	ts := BuildTimeSeries(tbl)

	mean, ok := ts.MeanDuration.Value(day(2020, 2, 10))
	require.True(t, ok)
	assert.InDelta(t, 41.0/4, mean, 1e-12)

	median, ok := ts.MedianDuration.Value(day(2020, 2, 10))
	require.True(t, ok)
	assert.InDelta(t, 5.5, median, 1e-12)
}

func TestTimeSeries_BetweenInclusive(t *testing.T) {
	s := TimeSeries{Name: "x", Points: []DatePoint{
		{day(2020, 1, 1), 1}, {day(2020, 1, 5), 2}, {day(2020, 1, 9), 3}, {day(2020, 2, 1), 4},
	}}

	v := s.Between(day(2020, 1, 5), day(2020, 1, 9))
	require.Equal(t, 2, v.Len())
	assert.InDelta(t, 2, v.Points[0].Value, 0)
	assert.InDelta(t, 3, v.Points[1].Value, 0)
	assert.Same(t, &s.Points[1], &v.Points[0], "range is a view")

	assert.Equal(t, 0, s.Between(day(2020, 1, 6), day(2020, 1, 8)).Len())
	assert.Equal(t, 0, s.Between(day(2021, 1, 1), day(2020, 1, 1)).Len())
	assert.Equal(t, 4, s.Between(day(1999, 1, 1), day(2030, 1, 1)).Len())
}

func TestTimeSeries_Since(t *testing.T) {
	s := TimeSeries{Points: []DatePoint{{day(2019, 6, 30), 1}, {day(2019, 7, 1), 2}, {day(2019, 8, 1), 3}}}
	assert.Equal(t, 2, s.Since(day(2019, 7, 1)).Len())
	assert.Equal(t, 0, s.Since(day(2020, 1, 1)).Len())
}
