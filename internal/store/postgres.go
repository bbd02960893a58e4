package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/claims-cli/internal/analysis"
	"github.com/sells-group/claims-cli/internal/db"
	"github.com/sells-group/claims-cli/internal/geo"
	"github.com/sells-group/claims-cli/internal/pipeline"
	"github.com/sells-group/claims-cli/internal/resilience"
)

// Tables written by PostgresStore.
const (
	resultsTable = "claims.analysis_results"
	zipTable     = "claims.zip_aggregates"
	countyTable  = "claims.county_aggregates"
	dailyTable   = "claims.daily_counts"
)

var (
	zipColumns    = []string{"run_id", "zip", "claims", "population", "claims_per_capita", "geom"}
	countyColumns = []string{"run_id", "county", "claims", "geom"}
	dailyColumns  = []string{"run_id", "day", "claims"}
)

// PostgresStore implements Store using pgxpool. Besides the result document
// it writes the geographic aggregates and the daily series as rows, with
// boundaries as EWKB so PostGIS can read them via ST_GeomFromEWKB.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}

	// The server may still be starting when the CLI runs next to it.
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("store", "postgres ping")
	if err := resilience.Do(ctx, retry, pool.Ping); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE SCHEMA IF NOT EXISTS claims;

CREATE TABLE IF NOT EXISTS claims.analysis_results (
	run_id       TEXT PRIMARY KEY,
	source       TEXT NOT NULL,
	outcome      TEXT NOT NULL,
	raw_rows     INTEGER NOT NULL,
	retained     INTEGER NOT NULL,
	stage_errors INTEGER NOT NULL DEFAULT 0,
	result       JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analysis_results_created_at ON claims.analysis_results(created_at DESC);

CREATE TABLE IF NOT EXISTS claims.zip_aggregates (
	run_id            TEXT NOT NULL REFERENCES claims.analysis_results(run_id) ON DELETE CASCADE,
	zip               TEXT NOT NULL,
	claims            INTEGER NOT NULL,
	population        DOUBLE PRECISION NOT NULL,
	claims_per_capita DOUBLE PRECISION NOT NULL,
	geom              BYTEA,
	PRIMARY KEY (run_id, zip)
);

CREATE TABLE IF NOT EXISTS claims.county_aggregates (
	run_id TEXT NOT NULL REFERENCES claims.analysis_results(run_id) ON DELETE CASCADE,
	county TEXT NOT NULL,
	claims INTEGER NOT NULL,
	geom   BYTEA,
	PRIMARY KEY (run_id, county)
);

CREATE TABLE IF NOT EXISTS claims.daily_counts (
	run_id TEXT NOT NULL REFERENCES claims.analysis_results(run_id) ON DELETE CASCADE,
	day    DATE NOT NULL,
	claims INTEGER NOT NULL,
	PRIMARY KEY (run_id, day)
);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// SaveResult upserts the result document, then the ZIP and county
// aggregates, then replaces the daily counts for the run.
func (s *PostgresStore) SaveResult(ctx context.Context, source string, r *pipeline.Result) error {
	data, err := encodeResult(r)
	if err != nil {
		return err
	}
	sum := summarize(source, r)

	_, err = s.pool.Exec(ctx,
		`INSERT INTO claims.analysis_results (run_id, source, outcome, raw_rows, retained, stage_errors, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id) DO UPDATE SET
			source = EXCLUDED.source,
			outcome = EXCLUDED.outcome,
			raw_rows = EXCLUDED.raw_rows,
			retained = EXCLUDED.retained,
			stage_errors = EXCLUDED.stage_errors,
			result = EXCLUDED.result`,
		sum.RunID, sum.Source, sum.Outcome, sum.RawRows, sum.Retained, sum.StageErrors, data, sum.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save result %s", r.RunID)
	}

	zipRows, err := zipAggregateRows(r.RunID, r.Geography.ZIPs)
	if err != nil {
		return err
	}
	if _, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        zipTable,
		Columns:      zipColumns,
		ConflictKeys: []string{"run_id", "zip"},
	}, zipRows); err != nil {
		return eris.Wrapf(err, "postgres: save zip aggregates %s", r.RunID)
	}

	countyRows, err := countyAggregateRows(r.RunID, r.Geography.Counties)
	if err != nil {
		return err
	}
	if _, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        countyTable,
		Columns:      countyColumns,
		ConflictKeys: []string{"run_id", "county"},
	}, countyRows); err != nil {
		return eris.Wrapf(err, "postgres: save county aggregates %s", r.RunID)
	}

	if _, err := s.pool.Exec(ctx, `DELETE FROM claims.daily_counts WHERE run_id = $1`, r.RunID); err != nil {
		return eris.Wrapf(err, "postgres: clear daily counts %s", r.RunID)
	}
	n, err := db.CopyFrom(ctx, s.pool, dailyTable, dailyColumns, dailyRows(r.RunID, r.TimeSeries.Daily))
	if err != nil {
		return eris.Wrapf(err, "postgres: save daily counts %s", r.RunID)
	}

	zap.L().Debug("postgres: result saved",
		zap.String("run_id", r.RunID),
		zap.Int("zip_rows", len(zipRows)),
		zap.Int("county_rows", len(countyRows)),
		zap.Int64("daily_rows", n),
	)
	return nil
}

func (s *PostgresStore) GetResult(ctx context.Context, runID string) (*pipeline.Result, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT result FROM claims.analysis_results WHERE run_id = $1`, runID,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get result %s", runID)
	}
	return decodeResult(runID, data)
}

func (s *PostgresStore) ListResults(ctx context.Context, filter ListFilter) ([]Summary, error) {
	query := `SELECT run_id, source, outcome, raw_rows, retained, stage_errors, created_at FROM claims.analysis_results WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Outcome != "" {
		query += fmt.Sprintf(` AND outcome = $%d`, argIdx)
		args = append(args, filter.Outcome)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, run_id LIMIT $%d`, argIdx)
	args = append(args, listLimit(filter))
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list results")
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.RunID, &sum.Source, &sum.Outcome, &sum.RawRows, &sum.Retained, &sum.StageErrors, &sum.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan result")
		}
		out = append(out, sum)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list results iterate")
}

func zipAggregateRows(runID string, aggs []analysis.GeoAggregate) ([][]any, error) {
	aggs = uniqueByKey(aggs, "zip")
	rows := make([][]any, 0, len(aggs))
	for _, a := range aggs {
		wkb, err := boundaryWKB(a.Boundary)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: encode zip %s", a.Key)
		}
		rows = append(rows, []any{runID, a.Key, a.Count, a.Population, a.ClaimsPerCapita, wkb})
	}
	return rows, nil
}

func countyAggregateRows(runID string, aggs []analysis.GeoAggregate) ([][]any, error) {
	aggs = uniqueByKey(aggs, "county")
	rows := make([][]any, 0, len(aggs))
	for _, a := range aggs {
		wkb, err := boundaryWKB(a.Boundary)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: encode county %s", a.Key)
		}
		rows = append(rows, []any{runID, a.Key, a.Count, wkb})
	}
	return rows, nil
}

// uniqueByKey keeps the first aggregate per key. Boundary files can carry
// several shapes for one key, and one upsert batch may not touch a conflict
// key twice.
func uniqueByKey(aggs []analysis.GeoAggregate, kind string) []analysis.GeoAggregate {
	seen := make(map[string]bool, len(aggs))
	out := make([]analysis.GeoAggregate, 0, len(aggs))
	for _, a := range aggs {
		if seen[a.Key] {
			continue
		}
		seen[a.Key] = true
		out = append(out, a)
	}
	if dup := len(aggs) - len(out); dup > 0 {
		zap.L().Debug("postgres: duplicate aggregate keys skipped", zap.String("kind", kind), zap.Int("skipped", dup))
	}
	return out
}

func dailyRows(runID string, s analysis.TimeSeries) [][]any {
	rows := make([][]any, len(s.Points))
	for i, p := range s.Points {
		rows[i] = []any{runID, p.Date, int(p.Value)}
	}
	return rows
}

// boundaryWKB encodes a boundary's geometry. Results decoded from the cache
// carry no boundaries, so nil maps to NULL.
func boundaryWKB(b *geo.Boundary) ([]byte, error) {
	if b == nil {
		return nil, nil
	}
	return geo.EncodeWKB(b.Geometry)
}
