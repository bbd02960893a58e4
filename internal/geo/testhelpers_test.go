package geo

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"
)

type testFeature struct {
	attrs []string
	ring  []shp.Point
}

func square(x, y float64) []shp.Point {
	return []shp.Point{{X: x, Y: y}, {X: x, Y: y + 1}, {X: x + 1, Y: y + 1}, {X: x + 1, Y: y}, {X: x, Y: y}}
}

// writeTestShapefile writes a polygon shapefile (.shp/.shx/.dbf) to dir.
func writeTestShapefile(t *testing.T, dir string, fieldNames []string, features []testFeature) string {
	t.Helper()
	path := filepath.Join(dir, "boundaries.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)

	fields := make([]shp.Field, len(fieldNames))
	for i, n := range fieldNames {
		fields[i] = shp.StringField(n, 40)
	}
	w.SetFields(fields)

	for _, f := range features {
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{f.ring}))
		row := w.Write(&poly)
		for j, v := range f.attrs {
			w.WriteAttribute(int(row), j, v)
		}
	}
	w.Close()
	return path
}

// zipShapefile bundles the shapefile sidecars into one archive.
func zipShapefile(t *testing.T, shpPath string) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "boundaries.zip")
	out, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(out)

	base := shpPath[:len(shpPath)-len(".shp")]
	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		data, err := os.ReadFile(base + ext)
		require.NoError(t, err)
		fw, err := zw.Create("tl_2020/boundaries" + ext)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())
	return zipPath
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
