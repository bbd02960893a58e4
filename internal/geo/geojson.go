package geo

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cast"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// readGeoJSON reads a FeatureCollection into a boundary table keyed by the
// keyField property. Numeric properties are rendered as strings.
func readGeoJSON(path, keyField string, keyFn func(string) string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: read %s", path)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "geo: decode feature collection %s", path)
	}

	tbl := &Table{KeyField: keyField}
	var missingKey, skipped int

	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			skipped++
			continue
		}
		raw, ok := f.Properties[keyField]
		if !ok || raw == nil {
			missingKey++
			continue
		}

		attrs := make(map[string]string, len(f.Properties))
		for k, v := range f.Properties {
			attrs[k] = propertyString(v)
		}

		g := normalizeGeometry(f.Geometry)
		if g == nil {
			skipped++
			continue
		}

		tbl.Boundaries = append(tbl.Boundaries, Boundary{
			Key:      keyFn(propertyString(raw)),
			Geometry: g,
			Attrs:    attrs,
		})
	}

	if missingKey > 0 && len(tbl.Boundaries) == 0 {
		return nil, eris.Errorf("geo: key property %q not in features of %s", keyField, path)
	}
	if missingKey+skipped > 0 {
		zap.L().Debug("geo: skipped features",
			zap.String("path", path),
			zap.Int("missing_key", missingKey),
			zap.Int("skipped", skipped),
		)
	}

	return tbl, nil
}

// propertyString renders a decoded JSON property. Whole numbers drop the
// fractional part so a numeric ZCTA (10001) keys like the string "10001".
func propertyString(v any) string {
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return cast.ToString(int64(f))
	}
	return cast.ToString(v)
}

// normalizeGeometry promotes polygons to multipolygons and stamps SRID 4326.
// Non-areal geometries other than points are dropped.
func normalizeGeometry(g geom.T) geom.T {
	switch t := g.(type) {
	case *geom.MultiPolygon:
		return t.SetSRID(SRID)
	case *geom.Polygon:
		mp := geom.NewMultiPolygon(geom.XY).SetSRID(SRID)
		if t.Layout() != geom.XY {
			t = geom.NewPolygonFlat(geom.XY, dropZ(t.FlatCoords(), t.Stride()), scaleEnds(t.Ends(), t.Stride()))
		}
		if err := mp.Push(t); err != nil {
			return nil
		}
		return mp
	case *geom.Point:
		return t.SetSRID(SRID)
	default:
		return nil
	}
}

// dropZ keeps the first two ordinates of each coordinate.
func dropZ(flat []float64, stride int) []float64 {
	out := make([]float64, 0, len(flat)/stride*2)
	for i := 0; i+1 < len(flat); i += stride {
		out = append(out, flat[i], flat[i+1])
	}
	return out
}

// scaleEnds rewrites ring end offsets from stride to XY stride.
func scaleEnds(ends []int, stride int) []int {
	out := make([]int, len(ends))
	for i, e := range ends {
		out[i] = e / stride * 2
	}
	return out
}
