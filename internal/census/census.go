// Package census loads the ACS total-population table (B01003_001E) keyed by
// composite census geography name.
package census

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/sells-group/claims-cli/internal/fetcher"
)

// Population table column names.
const (
	ColIndex      = "index"
	ColName       = "NAME"
	ColPopulation = "B01003_001E"
)

// Record is one population row. Key is the composite geography name, e.g.
// "ZCTA5 10001: Summary level: 860, state:36> zip code tabulation area:10001".
type Record struct {
	Key        string  `json:"key"`
	Population float64 `json:"population"`
}

// Table is the population table in source order.
type Table struct {
	Records []Record
	// Skipped counts rows whose population was not numeric.
	Skipped int
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// LoadPopulation reads a population table from a CSV (index + B01003_001E)
// or a Census API JSON response (array of arrays with NAME + B01003_001E).
func LoadPopulation(ctx context.Context, path string) (*Table, error) {
	format, err := fetcher.DetectFormat(path)
	if err != nil {
		return nil, eris.Wrap(err, "census: detect format")
	}

	var header []string
	var rows [][]string
	switch format {
	case fetcher.FormatCSV:
		header, rows, err = fetcher.ReadCSVFile(ctx, path, fetcher.CSVOptions{TrimSpace: true})
	case fetcher.FormatJSON:
		header, rows, err = readAPIResponse(ctx, path)
	default:
		return nil, eris.Errorf("census: %s is not a population format", format)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "census: load %s", path)
	}

	tbl, err := fromRows(header, rows)
	if err != nil {
		return nil, eris.Wrapf(err, "census: %s", path)
	}

	zap.L().Info("census: loaded population",
		zap.String("path", path),
		zap.Int("records", tbl.Len()),
		zap.Int("skipped", tbl.Skipped),
	)
	return tbl, nil
}

func readAPIResponse(ctx context.Context, path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "census: open response")
	}
	defer f.Close() //nolint:errcheck

	all, err := fetcher.CollectJSONArray[[]string](ctx, f)
	if err != nil {
		return nil, nil, err
	}
	if len(all) == 0 {
		return nil, nil, eris.New("census: empty API response")
	}
	return all[0], all[1:], nil
}

// fromRows locates the key and population columns. The key column is
// "index", then "NAME", then the first column (a pandas index written
// without a label).
func fromRows(header []string, rows [][]string) (*Table, error) {
	keyIdx, popIdx := -1, -1
	nameIdx := -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case ColIndex:
			keyIdx = i
		case ColName:
			nameIdx = i
		case ColPopulation:
			popIdx = i
		}
	}
	if popIdx < 0 {
		return nil, eris.Errorf("census: column %s not found", ColPopulation)
	}
	if keyIdx < 0 {
		keyIdx = nameIdx
	}
	if keyIdx < 0 {
		keyIdx = 0
	}
	if keyIdx == popIdx {
		return nil, eris.New("census: no geography key column")
	}

	tbl := &Table{Records: make([]Record, 0, len(rows))}
	for _, row := range rows {
		if keyIdx >= len(row) || popIdx >= len(row) {
			tbl.Skipped++
			continue
		}
		pop, err := cast.ToFloat64E(strings.TrimSpace(row[popIdx]))
		if err != nil {
			tbl.Skipped++
			continue
		}
		tbl.Records = append(tbl.Records, Record{Key: row[keyIdx], Population: pop})
	}
	return tbl, nil
}
