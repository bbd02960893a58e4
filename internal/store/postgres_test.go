package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/claims-cli/internal/analysis"
	"github.com/sells-group/claims-cli/internal/pipeline"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return &PostgresStore{pool: mock}, mock
}

// expectBulkUpsert mirrors db.BulkUpsert: Begin, CREATE TEMP TABLE, COPY,
// INSERT ON CONFLICT, Commit.
func expectBulkUpsert(m pgxmock.PgxPoolIface, tempTable string, cols []string, n int64) {
	m.ExpectBegin()
	m.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	m.ExpectCopyFrom(pgx.Identifier{tempTable}, cols).WillReturnResult(n)
	m.ExpectExec("INSERT INTO").WillReturnResult(pgxmock.NewResult("INSERT", n))
	m.ExpectCommit()
}

func TestPostgresStore_SaveResult(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO claims\.analysis_results`).
		WithArgs("run-1", "full.csv", pipeline.OutcomeSuccess, 31, 30, 0, pgxmock.AnyArg(), started).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	expectBulkUpsert(mock, "_tmp_upsert_claims_zip_aggregates", zipColumns, 1)
	expectBulkUpsert(mock, "_tmp_upsert_claims_county_aggregates", countyColumns, 1)
	mock.ExpectExec(`DELETE FROM claims\.daily_counts`).
		WithArgs("run-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"claims", "daily_counts"}, dailyColumns).WillReturnResult(2)

	err := s.SaveResult(context.Background(), "full.csv", sampleResult("run-1", started))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveResult_InsertError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO claims\.analysis_results`).WillReturnError(errors.New("connection reset"))

	err := s.SaveResult(context.Background(), "full.csv", sampleResult("run-1", started))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save result run-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetResult(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	data, err := json.Marshal(sampleResult("run-1", started))
	require.NoError(t, err)
	mock.ExpectQuery(`SELECT result FROM claims\.analysis_results WHERE run_id = \$1`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"result"}).AddRow(data))

	got, err := s.GetResult(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 30, got.Cleaning.Retained)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetResult_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT result FROM claims\.analysis_results`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetResult(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListResults(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	cols := []string{"run_id", "source", "outcome", "raw_rows", "retained", "stage_errors", "created_at"}
	mock.ExpectQuery(`SELECT run_id, source, outcome .* AND outcome = \$1 ORDER BY created_at DESC, run_id LIMIT \$2 OFFSET \$3`).
		WithArgs(pipeline.OutcomePartial, 5, 10).
		WillReturnRows(pgxmock.NewRows(cols).AddRow("run-1", "full.csv", pipeline.OutcomePartial, 31, 30, 1, started))

	list, err := s.ListResults(context.Background(), ListFilter{Outcome: pipeline.OutcomePartial, Limit: 5, Offset: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "run-1", list[0].RunID)
	assert.Equal(t, 1, list[0].StageErrors)
	assert.True(t, started.Equal(list[0].CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE SCHEMA IF NOT EXISTS claims`).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestZipAggregateRows_EncodesBoundary(t *testing.T) {
	r := sampleResult("run-1", started)

	rows, err := zipAggregateRows(r.RunID, r.Geography.ZIPs)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "10001", rows[0][1])
	wkb, ok := rows[0][5].([]byte)
	require.True(t, ok)
	assert.NotEmpty(t, wkb)

	countyRows, err := countyAggregateRows(r.RunID, r.Geography.Counties)
	require.NoError(t, err)
	assert.Nil(t, countyRows[0][3])
}

func TestAggregateRows_DuplicateKeysKeepFirst(t *testing.T) {
	zips := []analysis.GeoAggregate{
		{Key: "10001", Count: 7, Population: 21102},
		{Key: "10002", Count: 3, Population: 74993},
		{Key: "10001", Count: 7, Population: 99},
	}
	rows, err := zipAggregateRows("run-1", zips)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "10001", rows[0][1])
	assert.InDelta(t, 21102, rows[0][3], 1e-9)
	assert.Equal(t, "10002", rows[1][1])

	counties := []analysis.GeoAggregate{{Key: "KINGS", Count: 2}, {Key: "KINGS", Count: 2}}
	countyRows, err := countyAggregateRows("run-1", counties)
	require.NoError(t, err)
	assert.Len(t, countyRows, 1)
}

func TestPostgresStore_ImplementsStore(t *testing.T) {
	var _ Store = (*PostgresStore)(nil)
}
