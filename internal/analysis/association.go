package analysis

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/claims-cli/internal/claims"
)

// DefaultHearingProcess is the highest_process value labelled positive.
const DefaultHearingProcess = "4A. HEARING - JUDGE"

// Feature names used by the association models.
const (
	FeatureRepresentation = claims.ColAttorney
	FeatureAge            = claims.ColAgeAtInjury
	FeatureWage           = claims.ColAverageWeeklyWage
	FeatureGender         = claims.ColGender
	FeatureIME4Count      = claims.ColIME4Count
)

// AssociationOptions bounds the regression view and selects the label.
type AssociationOptions struct {
	MinWage        float64
	MaxWage        float64
	MinAge         float64
	MaxAge         float64
	HearingProcess string
	Fit            FitOptions
}

// DefaultAssociationOptions returns wage [50, 5000], age [18, 65].
func DefaultAssociationOptions() AssociationOptions {
	return AssociationOptions{
		MinWage:        50,
		MaxWage:        5000,
		MinAge:         18,
		MaxAge:         65,
		HearingProcess: DefaultHearingProcess,
		Fit:            DefaultFitOptions(),
	}
}

// CrossTab counts claims by outcome (rows) and representation flag (columns),
// with each column normalized to proportions.
type CrossTab struct {
	Outcomes       []string    `json:"outcomes"`
	Representation []int       `json:"representation"`
	Counts         [][]int     `json:"counts"`
	Proportions    [][]float64 `json:"proportions"`
}

// Proportion returns the share of representation-flag rep claims that ended
// at outcome, or 0 if either is absent.
func (c CrossTab) Proportion(outcome string, rep int) float64 {
	i := sort.SearchStrings(c.Outcomes, outcome)
	if i >= len(c.Outcomes) || c.Outcomes[i] != outcome {
		return 0
	}
	for j, r := range c.Representation {
		if r == rep {
			return c.Proportions[i][j]
		}
	}
	return 0
}

// Association is the output of AnalyzeAssociation. Simple and Full are nil
// when the regression view could not be fit.
type Association struct {
	CrossTab     CrossTab       `json:"cross_tab"`
	TrainingRows int            `json:"training_rows"`
	Positives    int            `json:"positives"`
	Simple       *LogisticModel `json:"simple,omitempty"`
	Full         *LogisticModel `json:"full,omitempty"`
}

// AnalyzeAssociation builds the representation-by-outcome cross tabulation
// over every claim, then fits the single-feature model on the raw
// representation flag and the five-feature model on standardized features.
// A model failure is returned alongside the cross tabulation.
func AnalyzeAssociation(ctx context.Context, tbl *claims.Table, opts AssociationOptions) (Association, error) {
	out := Association{CrossTab: BuildCrossTab(tbl)}

	X, y := regressionView(tbl, opts)
	out.TrainingRows = len(y)
	for _, v := range y {
		if v == 1 {
			out.Positives++
		}
	}

	if err := ctx.Err(); err != nil {
		return out, eris.Wrap(err, "analysis: association cancelled")
	}

	simpleX := make([][]float64, len(X))
	for i, row := range X {
		simpleX[i] = row[:1]
	}
	simple, err := FitLogistic([]string{FeatureRepresentation}, simpleX, y, opts.Fit)
	if err != nil {
		return out, eris.Wrap(err, "analysis: fit representation model")
	}
	out.Simple = simple

	if err := ctx.Err(); err != nil {
		return out, eris.Wrap(err, "analysis: association cancelled")
	}

	scaler := FitScaler(X)
	full, err := FitLogistic(
		[]string{FeatureRepresentation, FeatureAge, FeatureWage, FeatureGender, FeatureIME4Count},
		scaler.Transform(X), y, opts.Fit,
	)
	if err != nil {
		return out, eris.Wrap(err, "analysis: fit full model")
	}
	full.Scaler = &scaler
	out.Full = full

	zap.L().Debug("analysis: association fitted",
		zap.Int("rows", out.TrainingRows),
		zap.Int("positives", out.Positives),
		zap.Bool("simple_converged", simple.Converged),
		zap.Bool("full_converged", full.Converged),
	)
	return out, nil
}

// BuildCrossTab pivots claim counts by highest_process and representation.
// Claims with an empty highest_process are not counted. Outcomes are sorted
// ascending; only representation values that occur become columns.
func BuildCrossTab(tbl *claims.Table) CrossTab {
	counts := make(map[string][2]int)
	var seen [2]bool
	for i := range tbl.Claims {
		c := &tbl.Claims[i]
		if c.HighestProcess == "" {
			continue
		}
		rep := c.AttorneyRepresentative
		row := counts[c.HighestProcess]
		row[rep]++
		counts[c.HighestProcess] = row
		seen[rep] = true
	}

	var ct CrossTab
	for rep, ok := range seen {
		if ok {
			ct.Representation = append(ct.Representation, rep)
		}
	}
	for outcome := range counts {
		ct.Outcomes = append(ct.Outcomes, outcome)
	}
	sort.Strings(ct.Outcomes)

	totals := make([]int, len(ct.Representation))
	ct.Counts = make([][]int, len(ct.Outcomes))
	for i, outcome := range ct.Outcomes {
		ct.Counts[i] = make([]int, len(ct.Representation))
		for j, rep := range ct.Representation {
			n := counts[outcome][rep]
			ct.Counts[i][j] = n
			totals[j] += n
		}
	}

	ct.Proportions = make([][]float64, len(ct.Outcomes))
	for i := range ct.Outcomes {
		ct.Proportions[i] = make([]float64, len(ct.Representation))
		for j := range ct.Representation {
			if totals[j] > 0 {
				ct.Proportions[i][j] = float64(ct.Counts[i][j]) / float64(totals[j])
			}
		}
	}
	return ct
}

// regressionView selects claims with non-null wage and age inside the
// configured bounds. Feature order: representation, age, wage, gender,
// ime-4 count.
func regressionView(tbl *claims.Table, opts AssociationOptions) ([][]float64, []float64) {
	var X [][]float64
	var y []float64
	for i := range tbl.Claims {
		c := &tbl.Claims[i]
		if c.AverageWeeklyWage == nil || c.AgeAtInjury == nil {
			continue
		}
		wage, age := *c.AverageWeeklyWage, *c.AgeAtInjury
		if wage < opts.MinWage || wage > opts.MaxWage || age < opts.MinAge || age > opts.MaxAge {
			continue
		}
		X = append(X, []float64{
			float64(c.AttorneyRepresentative),
			age,
			wage,
			float64(c.Gender),
			c.IME4Count,
		})
		label := 0.0
		if c.HighestProcess == opts.HearingProcess {
			label = 1
		}
		y = append(y, label)
	}
	return X, y
}
