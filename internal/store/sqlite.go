package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/claims-cli/internal/pipeline"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS analysis_results (
	run_id       TEXT PRIMARY KEY,
	source       TEXT NOT NULL,
	outcome      TEXT NOT NULL,
	raw_rows     INTEGER NOT NULL,
	retained     INTEGER NOT NULL,
	stage_errors INTEGER NOT NULL DEFAULT 0,
	result       TEXT NOT NULL,
	created_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analysis_results_created_at ON analysis_results(created_at);
CREATE INDEX IF NOT EXISTS idx_analysis_results_outcome ON analysis_results(outcome);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveResult(ctx context.Context, source string, r *pipeline.Result) error {
	data, err := encodeResult(r)
	if err != nil {
		return err
	}
	sum := summarize(source, r)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analysis_results (run_id, source, outcome, raw_rows, retained, stage_errors, result, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id) DO UPDATE SET
			source = excluded.source,
			outcome = excluded.outcome,
			raw_rows = excluded.raw_rows,
			retained = excluded.retained,
			stage_errors = excluded.stage_errors,
			result = excluded.result`,
		sum.RunID, sum.Source, sum.Outcome, sum.RawRows, sum.Retained, sum.StageErrors, string(data), sum.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save result %s", r.RunID)
	}
	return nil
}

func (s *SQLiteStore) GetResult(ctx context.Context, runID string) (*pipeline.Result, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT result FROM analysis_results WHERE run_id = ?`, runID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get result %s", runID)
	}
	return decodeResult(runID, []byte(data))
}

func (s *SQLiteStore) ListResults(ctx context.Context, filter ListFilter) ([]Summary, error) {
	query := `SELECT run_id, source, outcome, raw_rows, retained, stage_errors, created_at FROM analysis_results WHERE 1=1`
	var args []any

	if filter.Outcome != "" {
		query += ` AND outcome = ?`
		args = append(args, filter.Outcome)
	}
	query += ` ORDER BY created_at DESC, run_id LIMIT ?`
	args = append(args, listLimit(filter))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list results")
	}
	defer rows.Close() //nolint:errcheck

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.RunID, &sum.Source, &sum.Outcome, &sum.RawRows, &sum.Retained, &sum.StageErrors, &sum.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result")
		}
		out = append(out, sum)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list results iterate")
}
