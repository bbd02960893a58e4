package geo

import (
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

func TestEncodeWKB_RoundTrip(t *testing.T) {
	poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{square(-80, 25)}))
	g := shapeToGeom(&poly)
	require.NotNil(t, g)

	data, err := EncodeWKB(g)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	back, err := ewkb.Unmarshal(data)
	require.NoError(t, err)
	mp, ok := back.(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, SRID, mp.SRID())
	assert.Equal(t, 1, mp.NumPolygons())
}

func TestEncodeWKB_Nil(t *testing.T) {
	data, err := EncodeWKB(nil)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestShapeToGeom(t *testing.T) {
	p := shapeToGeom(&shp.Point{X: -73.9, Y: 40.7})
	require.NotNil(t, p)
	_, ok := p.(*geom.Point)
	assert.True(t, ok)

	assert.Nil(t, shapeToGeom(nil))
	assert.Nil(t, shapeToGeom(&shp.PolyLine{}))
	assert.Nil(t, shapeToGeom(&shp.Polygon{}))
}

func TestPolygonToMultiPolygon_MultiPart(t *testing.T) {
	pl := shp.NewPolyLine([][]shp.Point{square(0, 0), square(5, 5)})
	poly := shp.Polygon(*pl)

	g := polygonToMultiPolygon(&poly)
	mp, ok := g.(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, 2, mp.NumPolygons())
}
