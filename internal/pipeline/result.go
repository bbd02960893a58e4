package pipeline

import (
	"time"

	"github.com/sells-group/claims-cli/internal/analysis"
	"github.com/sells-group/claims-cli/internal/claims"
)

// Stage names, used as Result.Errors keys and metric labels.
const (
	StageCleaning    = "cleaning"
	StageGeographic  = "geographic"
	StageRanking     = "ranking"
	StageTimeSeries  = "time_series"
	StageAssociation = "association"
	StageHistogram   = "histogram"
)

// Run outcomes.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
)

// StageResult records how one stage went.
type StageResult struct {
	Name       string `json:"name"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// Result is the output of one Run. Every stage owns exactly one field. A
// stage that failed adds an entry to Errors and keeps whatever partial output
// it produced: association keeps its cross tabulation when a model fit fails,
// the other stages leave their field at the zero value.
type Result struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Cleaning    claims.Stats               `json:"cleaning"`
	Geography   analysis.Geography         `json:"geography"`
	Rankings    []analysis.CategoryRanking `json:"rankings"`
	TimeSeries  analysis.TimeSeriesSet     `json:"time_series"`
	Association analysis.Association       `json:"association"`
	Histogram   analysis.Histogram         `json:"histogram"`
	Stages      []StageResult              `json:"stages"`
	Errors      map[string]string          `json:"errors,omitempty"`

	// Table is the cleaned input, kept for collaborators that render it.
	Table *claims.Table `json:"-"`

	stageErrs map[string]error
}

// Outcome reports success when no stage failed, partial otherwise.
func (r *Result) Outcome() string {
	if len(r.Errors) == 0 {
		return OutcomeSuccess
	}
	return OutcomePartial
}

// StageError returns the error a stage failed with, or nil. It is only
// populated on results returned by Run, not on decoded ones.
func (r *Result) StageError(stage string) error {
	return r.stageErrs[stage]
}

// Duration is the wall time of the run.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Result) recordStage(sr StageResult, err error) {
	r.Stages = append(r.Stages, sr)
	if err == nil {
		return
	}
	if r.Errors == nil {
		r.Errors = make(map[string]string)
		r.stageErrs = make(map[string]error)
	}
	r.Errors[sr.Name] = err.Error()
	r.stageErrs[sr.Name] = err
}
