// Package fetcher reads local tabular sources (CSV, XLSX, JSON arrays) and
// unpacks ZIP archives for the claim, boundary and population loaders.
package fetcher

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Format identifies a source file by its extension.
type Format string

// Supported source formats.
const (
	FormatCSV       Format = "csv"
	FormatXLSX      Format = "xlsx"
	FormatJSON      Format = "json"
	FormatGeoJSON   Format = "geojson"
	FormatShapefile Format = "shp"
	FormatZIP       Format = "zip"
)

// DetectFormat maps a path's extension onto a Format. ".txt" is read as CSV
// since several public extracts ship that way.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "csv", "txt":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	case "json":
		return FormatJSON, nil
	case "geojson":
		return FormatGeoJSON, nil
	case "shp":
		return FormatShapefile, nil
	case "zip":
		return FormatZIP, nil
	default:
		return "", eris.Errorf("fetcher: unsupported file extension %q", filepath.Ext(path))
	}
}
