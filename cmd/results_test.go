//go:build !integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/claims-cli/internal/config"
	"github.com/sells-group/claims-cli/internal/pipeline"
	"github.com/sells-group/claims-cli/internal/store"
)

func TestFormatResultsList(t *testing.T) {
	sums := []store.Summary{
		{
			RunID:     "abc12345-6789-0000-0000-000000000000",
			Source:    "data/full.csv",
			Outcome:   pipeline.OutcomeSuccess,
			RawRows:   31,
			Retained:  30,
			CreatedAt: started,
		},
		{
			RunID:       "def12345-6789-0000-0000-000000000000",
			Source:      "/very/long/path/to/some/nested/extract/directory/full.csv",
			Outcome:     pipeline.OutcomePartial,
			StageErrors: 1,
			CreatedAt:   started.Add(-time.Hour),
		},
	}

	var buf bytes.Buffer
	formatResultsList(&buf, sums)

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "OUTCOME")
	assert.Contains(t, out, "abc12345")
	assert.NotContains(t, out, "abc12345-6789")
	assert.Contains(t, out, "data/full.csv")
	assert.Contains(t, out, "partial")
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "2024-03-01 09:00")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789"))
	assert.Equal(t, "short", truncateID("short"))
}

func TestWriteResult_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, sampleResult("run-1"), "json"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got["run_id"])
}

func TestWriteResult_YAMLKeepsJSONKeys(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, sampleResult("run-1"), "yaml"))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got["run_id"])
	assert.Contains(t, got, "geography")
	assert.Contains(t, got, "time_series")
}

func TestInitStore(t *testing.T) {
	ctx := context.Background()

	_, err := initStore(ctx, config.StoreConfig{Driver: "none"})
	assert.ErrorIs(t, err, errNoStore)

	_, err = initStore(ctx, config.StoreConfig{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")

	st, err := initStore(ctx, sqliteConfig(t))
	require.NoError(t, err)
	require.NoError(t, st.Close())
}

func TestInitStore_SavedResultsListed(t *testing.T) {
	st := newTestStore(t, sampleResult("run-1"), sampleResult("run-2"))

	sums, err := st.ListResults(context.Background(), store.ListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, sums, 1)
}
