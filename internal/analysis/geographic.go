// Package analysis computes the derived views over a cleaned claim table:
// geographic aggregates, category rankings, time series, the representation
// association models and the duration histogram. Every function reads the
// table without modifying it.
package analysis

import (
	"math"

	"go.uber.org/zap"

	"github.com/sells-group/claims-cli/internal/census"
	"github.com/sells-group/claims-cli/internal/claims"
	"github.com/sells-group/claims-cli/internal/geo"
)

// DefaultPopulationThreshold is the population below which a ZIP's per-capita
// rate is suppressed.
const DefaultPopulationThreshold = 1000

// GeoAggregate is the claim count for one boundary.
type GeoAggregate struct {
	Key             string        `json:"key"`
	Boundary        *geo.Boundary `json:"-"`
	Count           int           `json:"count"`
	Population      float64       `json:"population"`
	ClaimsPerCapita float64       `json:"claims_per_capita"`
}

// Geography holds the joined aggregates in boundary-table order.
type Geography struct {
	// ZIPCounts is every ZIP boundary matched by at least one claim.
	ZIPCounts []GeoAggregate `json:"zip_counts"`
	// ZIPs is ZIPCounts further joined onto the population table.
	ZIPs     []GeoAggregate `json:"zips"`
	Counties []GeoAggregate `json:"counties"`
}

// GeoOptions configures AggregateGeography.
type GeoOptions struct {
	PopulationThreshold float64
}

// DefaultGeoOptions returns the 1000-resident threshold.
func DefaultGeoOptions() GeoOptions {
	return GeoOptions{PopulationThreshold: DefaultPopulationThreshold}
}

// AggregateGeography counts claims per zip_code and per county_of_injury and
// inner-joins the counts onto the boundary tables, then joins population onto
// the ZIP aggregates. Nil boundary or population tables yield empty joins.
func AggregateGeography(tbl *claims.Table, zips, counties *geo.Table, pop *census.Table, opts GeoOptions) Geography {
	log := zap.L().With(zap.String("stage", "geographic"))

	zipCounts := make(map[string]int)
	countyCounts := make(map[string]int)
	for i := range tbl.Claims {
		c := &tbl.Claims[i]
		if c.ZipCode != "" {
			zipCounts[c.ZipCode]++
		}
		if c.CountyOfInjury != "" {
			countyCounts[c.CountyOfInjury]++
		}
	}

	var out Geography
	out.ZIPCounts = joinCounts(zips, zipCounts)
	out.Counties = joinCounts(counties, countyCounts)

	population := pop.ByZIP()
	for _, agg := range out.ZIPCounts {
		p, ok := population[agg.Key]
		if !ok {
			continue
		}
		if p < opts.PopulationThreshold {
			p = 0
		}
		agg.Population = p
		agg.ClaimsPerCapita = PerCapita(agg.Count, p)
		out.ZIPs = append(out.ZIPs, agg)
	}

	if len(out.ZIPCounts) == 0 {
		log.Warn("no ZIP boundaries matched claim zip codes", zap.Int("boundaries", zips.Len()))
	}
	if len(out.ZIPs) == 0 {
		log.Warn("no ZIP aggregates matched the population table", zap.Int("population_records", pop.Len()))
	}
	if len(out.Counties) == 0 {
		log.Warn("no county boundaries matched claim counties", zap.Int("boundaries", counties.Len()))
	}

	return out
}

// joinCounts walks the boundary table in order and keeps the boundaries
// whose key has a claim count.
func joinCounts(tbl *geo.Table, counts map[string]int) []GeoAggregate {
	if tbl == nil {
		return nil
	}
	var out []GeoAggregate
	for i := range tbl.Boundaries {
		b := &tbl.Boundaries[i]
		n, ok := counts[b.Key]
		if !ok {
			continue
		}
		out = append(out, GeoAggregate{Key: b.Key, Boundary: b, Count: n})
	}
	return out
}

// PerCapita returns claims per 1000 residents. Zero population and
// non-finite results are 0.
func PerCapita(count int, population float64) float64 {
	if population == 0 {
		return 0
	}
	v := float64(count) / population * 1000
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
