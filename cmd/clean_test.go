//go:build !integration

package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/claims-cli/internal/claims"
	"github.com/sells-group/claims-cli/internal/fetcher"
)

func TestFormatCleanStats(t *testing.T) {
	var buf bytes.Buffer
	formatCleanStats(&buf, claims.Stats{
		RawRows:  12,
		Retained: 9,
		Dropped: map[string]int{
			claims.DropDurationTooLong: 1,
			claims.DropBeforeMinDate:   2,
		},
		UnparsedDates: 4,
	})

	out := buf.String()
	assert.Contains(t, out, "Rows read:")
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "Rows dropped:")
	assert.Contains(t, out, "Unparsed dates:")
	assert.NotContains(t, out, "Short rows")

	// Reasons are sorted.
	before := bytes.Index(buf.Bytes(), []byte(claims.DropDurationTooLong))
	after := bytes.Index(buf.Bytes(), []byte(claims.DropBeforeMinDate))
	assert.Less(t, before, after)
}

func TestWriteCleanCSV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clean.csv")
	require.NoError(t, writeCleanCSV(path, &claims.Table{}))

	header, rows, err := fetcher.ReadCSVFile(context.Background(), path, fetcher.CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, claims.RequiredColumns(), header)
	assert.Empty(t, rows)
}

func TestWriteCleanCSV_BadPath(t *testing.T) {
	err := writeCleanCSV(filepath.Join(t.TempDir(), "missing", "clean.csv"), &claims.Table{})
	require.Error(t, err)
}
