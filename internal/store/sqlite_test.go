package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/claims-cli/internal/pipeline"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_SaveAndGetResult(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	want := sampleResult("run-1", started)
	require.NoError(t, st.SaveResult(ctx, "data/full.csv", want))

	got, err := st.GetResult(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
	assert.True(t, want.StartedAt.Equal(got.StartedAt))
	assert.Equal(t, 2*time.Second, got.Duration())
	assert.Equal(t, want.Cleaning, got.Cleaning)
	assert.Equal(t, want.Rankings, got.Rankings)
	require.Len(t, got.Geography.ZIPs, 1)
	assert.Equal(t, "10001", got.Geography.ZIPs[0].Key)
	assert.InDelta(t, 10.0/21102*1000, got.Geography.ZIPs[0].ClaimsPerCapita, 1e-12)
	assert.Nil(t, got.Geography.ZIPs[0].Boundary)
	assert.Len(t, got.TimeSeries.Daily.Points, 2)
	assert.Equal(t, pipeline.OutcomeSuccess, got.Outcome())
}

func TestSQLite_SaveResult_Overwrites(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	r := sampleResult("run-1", started)
	require.NoError(t, st.SaveResult(ctx, "a.csv", r))
	r.Errors = map[string]string{pipeline.StageAssociation: "analysis: no training data"}
	require.NoError(t, st.SaveResult(ctx, "b.csv", r))

	list, err := st.ListResults(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b.csv", list[0].Source)
	assert.Equal(t, pipeline.OutcomePartial, list[0].Outcome)
	assert.Equal(t, 1, list[0].StageErrors)
}

func TestSQLite_SaveResult_RequiresRunID(t *testing.T) {
	st := newTestSQLiteStore(t)
	err := st.SaveResult(context.Background(), "a.csv", &pipeline.Result{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no run id")
}

func TestSQLite_GetResult_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetResult(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_ListResults_NewestFirst(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		r := sampleResult(id, started.Add(time.Duration(i)*time.Hour))
		if id == "run-b" {
			r.Errors = map[string]string{pipeline.StageHistogram: "boom"}
		}
		require.NoError(t, st.SaveResult(ctx, "full.csv", r))
	}

	all, err := st.ListResults(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "run-c", all[0].RunID)
	assert.Equal(t, "run-a", all[2].RunID)
	assert.Equal(t, 31, all[0].RawRows)
	assert.Equal(t, 30, all[0].Retained)

	partial, err := st.ListResults(ctx, ListFilter{Outcome: pipeline.OutcomePartial})
	require.NoError(t, err)
	require.Len(t, partial, 1)
	assert.Equal(t, "run-b", partial[0].RunID)

	page, err := st.ListResults(ctx, ListFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "run-b", page[0].RunID)
}

func TestSQLite_ImplementsStore(t *testing.T) {
	var _ Store = (*SQLiteStore)(nil)
}
