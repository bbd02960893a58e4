// Package geo loads ZIP-code and county boundary tables from shapefiles,
// zipped shapefiles and GeoJSON feature collections.
package geo

import (
	"github.com/twpayne/go-geom"
)

// SRID is the spatial reference applied to every loaded geometry (WGS 84).
const SRID = 4326

// Boundary is one polygon feature keyed by its join attribute.
type Boundary struct {
	Key      string            `json:"key"`
	Geometry geom.T            `json:"-"`
	Attrs    map[string]string `json:"attrs,omitempty"`
}

// Table is an ordered boundary set. Order is the source file's feature order.
type Table struct {
	KeyField   string
	Boundaries []Boundary
}

// Len returns the number of boundaries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Boundaries)
}

// Keys returns the boundary keys in table order.
func (t *Table) Keys() []string {
	keys := make([]string, 0, t.Len())
	for _, b := range t.Boundaries {
		keys = append(keys, b.Key)
	}
	return keys
}

// Bounds returns the combined extent of every boundary, or nil when the
// table has no geometry.
func (t *Table) Bounds() *geom.Bounds {
	if t == nil {
		return nil
	}
	var out *geom.Bounds
	for _, b := range t.Boundaries {
		if b.Geometry == nil {
			continue
		}
		if out == nil {
			out = geom.NewBounds(geom.XY)
		}
		out.Extend(b.Geometry)
	}
	return out
}
