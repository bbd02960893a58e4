// Package ingest loads a raw claims extract from disk into a claims.RawTable.
package ingest

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/claims-cli/internal/claims"
	"github.com/sells-group/claims-cli/internal/fetcher"
)

// LoadRawTable reads a CSV or XLSX claims file. A ZIP holding a single CSV is
// unpacked to a temp directory first.
func LoadRawTable(ctx context.Context, path string) (claims.RawTable, error) {
	format, err := fetcher.DetectFormat(path)
	if err != nil {
		return claims.RawTable{}, eris.Wrap(err, "ingest: detect format")
	}

	log := zap.L().With(zap.String("component", "ingest"), zap.String("path", path))

	var header []string
	var rows [][]string

	switch format {
	case fetcher.FormatCSV:
		header, rows, err = fetcher.ReadCSVFile(ctx, path, fetcher.CSVOptions{LazyQuotes: true})
	case fetcher.FormatXLSX:
		header, rows, err = fetcher.ReadXLSX(ctx, path, fetcher.XLSXOptions{})
	case fetcher.FormatZIP:
		header, rows, err = loadZippedCSV(ctx, path)
	default:
		return claims.RawTable{}, eris.Errorf("ingest: %s files are not claim extracts", format)
	}
	if err != nil {
		return claims.RawTable{}, eris.Wrapf(err, "ingest: load %s", path)
	}

	log.Info("loaded raw claims", zap.Int("columns", len(header)), zap.Int("rows", len(rows)))

	return claims.RawTable{Header: header, Rows: rows}, nil
}

func loadZippedCSV(ctx context.Context, path string) ([]string, [][]string, error) {
	dir, err := os.MkdirTemp("", "claims-*")
	if err != nil {
		return nil, nil, eris.Wrap(err, "ingest: create temp dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	extracted, err := fetcher.ExtractZIP(path, dir)
	if err != nil {
		return nil, nil, err
	}
	csvPath, err := fetcher.FindExtracted(extracted, ".csv")
	if err != nil {
		return nil, nil, err
	}

	zap.L().Debug("ingest: reading zipped extract", zap.String("entry", filepath.Base(csvPath)))
	return fetcher.ReadCSVFile(ctx, csvPath, fetcher.CSVOptions{LazyQuotes: true})
}
