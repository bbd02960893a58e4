// Package render draws PNG charts of a pipeline result with gonum/plot.
package render

import (
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/sells-group/claims-cli/internal/analysis"
	"github.com/sells-group/claims-cli/internal/geo"
	"github.com/sells-group/claims-cli/internal/pipeline"
)

var (
	lineColors = []color.Color{
		color.RGBA{R: 31, G: 119, B: 180, A: 255},
		color.RGBA{R: 255, G: 127, B: 14, A: 255},
		color.RGBA{R: 44, G: 160, B: 44, A: 255},
	}
	barColor     = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	missingColor = color.Gray{Y: 220}
)

// Renderer writes charts into Dir.
type Renderer struct {
	Dir    string
	Width  vg.Length
	Height vg.Length
}

// New returns a Renderer with 12x6 inch charts.
func New(dir string) *Renderer {
	return &Renderer{Dir: dir, Width: 12 * vg.Inch, Height: 6 * vg.Inch}
}

// Options selects what RenderAll draws.
type Options struct {
	TopN          int
	DurationSince time.Time
	// Windows adds date-clipped copies of the claim count series.
	Windows []Window
	// Boundary tables for the choropleths. Results read back from the cache
	// carry no geometry, so maps are only drawn when these are set.
	ZIPs     *geo.Table
	Counties *geo.Table
}

// Window is a date range drawn as its own claim count charts, named
// claims_by_month_<Name> and claims_by_day_<Name>.
type Window struct {
	Name    string
	Start   time.Time
	End     time.Time
	Monthly bool
	Daily   bool
}

func (w Window) label() string {
	return w.Start.Format(time.DateOnly) + " to " + w.End.Format(time.DateOnly)
}

// RenderAll draws every chart r has data for and returns the written paths.
func (r *Renderer) RenderAll(res *pipeline.Result, opts Options) ([]string, error) {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "render: create %s", r.Dir)
	}

	var paths []string
	keep := func(path string, err error) error {
		if err != nil {
			return err
		}
		if path != "" {
			paths = append(paths, path)
		}
		return nil
	}

	ts := res.TimeSeries
	if err := keep(r.TimeSeries("claims_by_month", "Claims by accident month", ts.Monthly)); err != nil {
		return paths, err
	}
	if err := keep(r.TimeSeries("claims_by_day", "Claims by accident date", ts.Daily)); err != nil {
		return paths, err
	}
	for _, w := range opts.Windows {
		if w.Monthly {
			if err := keep(r.TimeSeries("claims_by_month_"+w.Name, "Claims by accident month, "+w.label(),
				ts.Monthly.Between(w.Start, w.End))); err != nil {
				return paths, err
			}
		}
		if w.Daily {
			if err := keep(r.TimeSeries("claims_by_day_"+w.Name, "Claims by accident date, "+w.label(),
				ts.Daily.Between(w.Start, w.End))); err != nil {
				return paths, err
			}
		}
	}
	if err := keep(r.TimeSeries("accident_to_assembly", "Days from accident to assembly",
		ts.MeanDuration.Since(opts.DurationSince), ts.MedianDuration.Since(opts.DurationSince))); err != nil {
		return paths, err
	}
	for _, rk := range res.Rankings {
		if err := keep(r.Ranking(rk, opts.TopN)); err != nil {
			return paths, err
		}
	}
	if err := keep(r.Histogram(res.Histogram)); err != nil {
		return paths, err
	}
	if err := keep(r.Choropleth("zip_claims", "Claims by ZIP code", opts.ZIPs,
		res.Geography.ZIPs, func(a analysis.GeoAggregate) float64 { return float64(a.Count) })); err != nil {
		return paths, err
	}
	if err := keep(r.Choropleth("zip_claims_per_capita", "Claims per 1000 residents by ZIP", opts.ZIPs,
		res.Geography.ZIPs, func(a analysis.GeoAggregate) float64 { return a.ClaimsPerCapita })); err != nil {
		return paths, err
	}
	if err := keep(r.Choropleth("county_claims", "Claims by county", opts.Counties,
		res.Geography.Counties, func(a analysis.GeoAggregate) float64 { return float64(a.Count) })); err != nil {
		return paths, err
	}

	zap.L().Info("render: charts written", zap.String("dir", r.Dir), zap.Int("charts", len(paths)))
	return paths, nil
}

// TimeSeries draws one line per non-empty series against a date axis. It
// returns "" when every series is empty.
func (r *Renderer) TimeSeries(name, title string, series ...analysis.TimeSeries) (string, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	p.Y.Label.Text = "value"
	p.Add(plotter.NewGrid())

	drawn := 0
	for i, s := range series {
		if s.Len() == 0 {
			continue
		}
		pts := make(plotter.XYs, s.Len())
		for j, pt := range s.Points {
			pts[j].X = float64(pt.Date.Unix())
			pts[j].Y = pt.Value
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return "", eris.Wrapf(err, "render: line %s", s.Name)
		}
		line.Color = lineColors[i%len(lineColors)]
		line.Width = vg.Points(1)
		p.Add(line)
		if s.Name != "" {
			p.Legend.Add(s.Name, line)
		}
		drawn++
	}
	if drawn == 0 {
		return "", nil
	}
	p.Legend.Top = true
	return r.save(p, name)
}

// Ranking draws the top n labels of rk as a horizontal bar chart, largest on
// top.
func (r *Renderer) Ranking(rk analysis.CategoryRanking, n int) (string, error) {
	top := rk.Top(n)
	if len(top) == 0 {
		return "", nil
	}

	values := make(plotter.Values, len(top))
	labels := make([]string, len(top))
	for i, c := range top {
		// Reverse so the largest bar sits at the top of the axis.
		j := len(top) - 1 - i
		values[j] = float64(c.Count)
		labels[j] = truncateLabel(c.Label, 40)
	}

	bars, err := plotter.NewBarChart(values, vg.Points(14))
	if err != nil {
		return "", eris.Wrapf(err, "render: bars %s", rk.Key)
	}
	bars.Horizontal = true
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)

	p := plot.New()
	p.Title.Text = "Top " + rk.Key
	p.X.Label.Text = "claims"
	p.Add(bars)
	p.NominalY(labels...)
	return r.save(p, "top_"+rk.Key)
}

// Histogram draws the precomputed bins of h.
func (r *Renderer) Histogram(h analysis.Histogram) (string, error) {
	if len(h.Bins) == 0 {
		return "", nil
	}

	bins := make([]plotter.HistogramBin, len(h.Bins))
	for i, b := range h.Bins {
		bins[i] = plotter.HistogramBin{Min: b.Lower, Max: b.Upper, Weight: float64(b.Count)}
	}
	hist := &plotter.Histogram{
		Bins:      bins,
		Width:     h.Bins[0].Upper - h.Bins[0].Lower,
		FillColor: barColor,
		LineStyle: plotter.DefaultLineStyle,
	}
	hist.LineStyle.Width = vg.Length(0)

	p := plot.New()
	p.Title.Text = "Distribution of " + h.Column
	p.X.Label.Text = "days"
	p.Y.Label.Text = "claims"
	p.Add(hist)
	return r.save(p, "duration_histogram")
}

// Choropleth fills each polygon of tbl by value(aggregate), shading
// boundaries without an aggregate in gray. It returns "" when tbl is nil or
// holds no polygons.
func (r *Renderer) Choropleth(name, title string, tbl *geo.Table, aggs []analysis.GeoAggregate, value func(analysis.GeoAggregate) float64) (string, error) {
	if tbl.Len() == 0 {
		return "", nil
	}

	values := make(map[string]float64, len(aggs))
	maxV := 0.0
	for _, a := range aggs {
		v := value(a)
		values[a.Key] = v
		maxV = math.Max(maxV, v)
	}

	p := plot.New()
	p.Title.Text = title
	p.HideAxes()

	drawn := 0
	for _, b := range tbl.Boundaries {
		rings := outerRings(b)
		if len(rings) == 0 {
			continue
		}
		var fill color.Color = missingColor
		if v, ok := values[b.Key]; ok {
			fill = shade(v, maxV)
		}
		poly, err := plotter.NewPolygon(rings...)
		if err != nil {
			return "", eris.Wrapf(err, "render: polygon %s", b.Key)
		}
		poly.Color = fill
		poly.LineStyle.Width = vg.Points(0.2)
		poly.LineStyle.Color = color.White
		p.Add(poly)
		drawn++
	}
	if drawn == 0 {
		return "", nil
	}
	if ext := tbl.Bounds(); ext != nil {
		p.X.Min, p.X.Max = ext.Min(0), ext.Max(0)
		p.Y.Min, p.Y.Max = ext.Min(1), ext.Max(1)
	}
	return r.save(p, name)
}

// outerRings returns the exterior ring of every polygon in b.
func outerRings(b geo.Boundary) []plotter.XYer {
	var polys []*geom.Polygon
	switch g := b.Geometry.(type) {
	case *geom.Polygon:
		polys = append(polys, g)
	case *geom.MultiPolygon:
		for i := 0; i < g.NumPolygons(); i++ {
			polys = append(polys, g.Polygon(i))
		}
	}

	var rings []plotter.XYer
	for _, poly := range polys {
		if poly.NumLinearRings() == 0 {
			continue
		}
		coords := poly.LinearRing(0).Coords()
		if len(coords) < 3 {
			continue
		}
		xys := make(plotter.XYs, len(coords))
		for i, c := range coords {
			xys[i].X, xys[i].Y = c.X(), c.Y()
		}
		rings = append(rings, xys)
	}
	return rings
}

func (r *Renderer) save(p *plot.Plot, name string) (string, error) {
	path := filepath.Join(r.Dir, fileName(name)+".png")
	if err := p.Save(r.Width, r.Height, path); err != nil {
		return "", eris.Wrapf(err, "render: save %s", path)
	}
	return path, nil
}

// shade maps v in [0, maxV] onto a yellow-to-red ramp.
func shade(v, maxV float64) color.Color {
	t := 0.0
	if maxV > 0 {
		t = math.Min(math.Max(v/maxV, 0), 1)
	}
	return color.RGBA{
		R: uint8(255 - 75*t),
		G: uint8(237 - 237*t),
		B: uint8(160 - 122*t),
		A: 255,
	}
}

func fileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, name)
}

func truncateLabel(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n-3]) + "..."
}
