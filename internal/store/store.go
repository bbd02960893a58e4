// Package store caches analysis results by run ID.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/claims-cli/internal/pipeline"
)

// ErrNotFound is returned by GetResult for an unknown run ID.
var ErrNotFound = eris.New("store: result not found")

// Summary is the list view of a cached result.
type Summary struct {
	RunID       string    `json:"run_id" yaml:"run_id"`
	Source      string    `json:"source" yaml:"source"`
	Outcome     string    `json:"outcome" yaml:"outcome"`
	RawRows     int       `json:"raw_rows" yaml:"raw_rows"`
	Retained    int       `json:"retained" yaml:"retained"`
	StageErrors int       `json:"stage_errors" yaml:"stage_errors"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// ListFilter narrows ListResults.
type ListFilter struct {
	Outcome string `json:"outcome,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

// Store persists pipeline results.
type Store interface {
	SaveResult(ctx context.Context, source string, r *pipeline.Result) error
	GetResult(ctx context.Context, runID string) (*pipeline.Result, error)
	ListResults(ctx context.Context, filter ListFilter) ([]Summary, error)

	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100

func summarize(source string, r *pipeline.Result) Summary {
	return Summary{
		RunID:       r.RunID,
		Source:      source,
		Outcome:     r.Outcome(),
		RawRows:     r.Cleaning.RawRows,
		Retained:    r.Cleaning.Retained,
		StageErrors: len(r.Errors),
		CreatedAt:   r.StartedAt.UTC(),
	}
}

func encodeResult(r *pipeline.Result) ([]byte, error) {
	if r == nil || r.RunID == "" {
		return nil, eris.New("store: result has no run id")
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, eris.Wrapf(err, "store: marshal result %s", r.RunID)
	}
	return data, nil
}

func decodeResult(runID string, data []byte) (*pipeline.Result, error) {
	var r pipeline.Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrapf(err, "store: unmarshal result %s", runID)
	}
	return &r, nil
}

func listLimit(f ListFilter) int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}
