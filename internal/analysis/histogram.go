package analysis

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sells-group/claims-cli/internal/claims"
)

// DefaultHistogramBins is the bin count of the duration distribution.
const DefaultHistogramBins = 300

// Bin is one histogram bucket [Lower, Upper). The last bin also includes
// its upper edge.
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram is an equal-width distribution over [Min, Max].
type Histogram struct {
	Column string  `json:"column"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Total  int     `json:"total"`
	Bins   []Bin   `json:"bins"`
}

// BuildHistogram buckets values into n equal-width bins spanning their range.
// A constant sample gets n bins of width 1 starting at the value.
func BuildHistogram(column string, values []float64, n int) (Histogram, error) {
	if n <= 0 {
		return Histogram{}, eris.Errorf("analysis: histogram needs a positive bin count, got %d", n)
	}
	h := Histogram{Column: column, Total: len(values)}
	if len(values) == 0 {
		return h, nil
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	h.Min, h.Max = sorted[0], sorted[len(sorted)-1]

	hi := h.Max
	if hi == h.Min {
		hi = h.Min + float64(n)
	}
	dividers := floats.Span(make([]float64, n+1), h.Min, hi)
	edges := make([]float64, len(dividers))
	copy(edges, dividers)
	// stat.Histogram excludes the last divider; nudge it so Max lands in the last bin.
	dividers[n] = math.Nextafter(dividers[n], math.Inf(1))

	counts := stat.Histogram(nil, dividers, sorted, nil)
	h.Bins = make([]Bin, n)
	for i := range h.Bins {
		h.Bins[i] = Bin{Lower: edges[i], Upper: edges[i+1], Count: int(counts[i])}
	}
	return h, nil
}

// DurationHistogram is BuildHistogram over accident_to_assembly.
func DurationHistogram(tbl *claims.Table, bins int) (Histogram, error) {
	values := make([]float64, len(tbl.Claims))
	for i := range tbl.Claims {
		values[i] = float64(tbl.Claims[i].AccidentToAssembly)
	}
	return BuildHistogram("accident_to_assembly", values, bins)
}
