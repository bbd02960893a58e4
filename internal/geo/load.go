package geo

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/claims-cli/internal/fetcher"
)

// LoadOptions selects the join attribute and its normalization.
type LoadOptions struct {
	KeyField string
	// KeyFunc normalizes the raw attribute value. Nil means IdentityKey.
	KeyFunc func(string) string
}

// LoadBoundaries reads a boundary table from a .shp, a zipped shapefile or a
// GeoJSON file, picking the reader by extension.
func LoadBoundaries(ctx context.Context, path string, opts LoadOptions) (*Table, error) {
	if opts.KeyField == "" {
		return nil, eris.New("geo: key field is required")
	}
	keyFn := opts.KeyFunc
	if keyFn == nil {
		keyFn = IdentityKey
	}

	format, err := fetcher.DetectFormat(path)
	if err != nil {
		return nil, eris.Wrap(err, "geo: detect format")
	}

	var tbl *Table
	switch format {
	case fetcher.FormatShapefile:
		tbl, err = readShapefile(ctx, path, opts.KeyField, keyFn)
	case fetcher.FormatZIP:
		tbl, err = readZippedShapefile(ctx, path, opts.KeyField, keyFn)
	case fetcher.FormatGeoJSON, fetcher.FormatJSON:
		tbl, err = readGeoJSON(path, opts.KeyField, keyFn)
	default:
		return nil, eris.Errorf("geo: %s is not a boundary format", format)
	}
	if err != nil {
		return nil, err
	}

	zap.L().Info("geo: loaded boundaries",
		zap.String("path", path),
		zap.String("key_field", opts.KeyField),
		zap.Int("boundaries", tbl.Len()),
	)
	return tbl, nil
}

// LoadZIPBoundaries loads ZIP code tabulation areas keyed by keyField as-is.
func LoadZIPBoundaries(ctx context.Context, path, keyField string) (*Table, error) {
	return LoadBoundaries(ctx, path, LoadOptions{KeyField: keyField})
}

// LoadCountyBoundaries loads counties keyed by CountyKey(keyField).
func LoadCountyBoundaries(ctx context.Context, path, keyField string) (*Table, error) {
	return LoadBoundaries(ctx, path, LoadOptions{KeyField: keyField, KeyFunc: CountyKey})
}

func readZippedShapefile(ctx context.Context, zipPath, keyField string, keyFn func(string) string) (*Table, error) {
	dir, err := os.MkdirTemp("", "boundaries-*")
	if err != nil {
		return nil, eris.Wrap(err, "geo: create extract dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	extracted, err := fetcher.ExtractZIP(zipPath, dir)
	if err != nil {
		return nil, eris.Wrap(err, "geo: extract shapefile archive")
	}
	shpPath, err := fetcher.FindExtracted(extracted, ".shp")
	if err != nil {
		return nil, eris.Wrap(err, "geo: find .shp file")
	}
	return readShapefile(ctx, shpPath, keyField, keyFn)
}
