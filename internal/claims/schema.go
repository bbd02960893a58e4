// Package claims models workers' compensation claim rows and turns the raw
// assembled-claims extract into a cleaned, immutable claim table.
package claims

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ErrSchema marks a violation of the input schema contract: an expected column
// is absent, or a classification field does not follow the naming convention.
// Schema violations abort the run.
var ErrSchema = eris.New("claims: schema violation")

// Normalized column names of the assembled-claims extract.
const (
	ColClaimIdentifier    = "claim_identifier"
	ColAccidentDate       = "accident_date"
	ColANCRDate           = "ancr_date"
	ColAssemblyDate       = "assembly_date"
	ColC2Date             = "c-2_date"
	ColC3Date             = "c-3_date"
	ColControvertedDate   = "controverted_date"
	ColFirstAppealDate    = "first_appeal_date"
	ColFirstHearingDate   = "first_hearing_date"
	ColPPDNonSchedDate    = "ppd_non-scheduled_loss_date"
	ColPPDSchedDate       = "ppd_scheduled_loss_date"
	ColPTDDate            = "ptd_date"
	ColSection32Date      = "section_32_date"
	ColAccident           = "accident"
	ColADR                = "alternative_dispute_resolution"
	ColAttorney           = "attorney/representative"
	ColOccupationalDis    = "occupational_disease"
	ColCOVID19            = "covid-19_indicator"
	ColGender             = "gender"
	ColZipCode            = "zip_code"
	ColCountyOfInjury     = "county_of_injury"
	ColAverageWeeklyWage  = "average_weekly_wage"
	ColAgeAtInjury        = "age_at_injury"
	ColIME4Count          = "ime-4_count"
	ColHighestProcess     = "highest_process"
	ColWCIONature         = "wcio_nature_of_injury_description"
	ColOIICSPartOfBody    = "oiics_part_of_body_description"
	ColWCIOCause          = "wcio_cause_of_injury_description"
	ColOIICSNature        = "oiics_nature_of_injury_description"
	ColWCIOPartOfBody     = "wcio_part_of_body_description"
	ColOIICSInjurySource  = "oiics_injury_source_description"
	classificationSuffix  = "_description"
	normalizedColumnSep   = "_"
)

// dateColumn pairs a raw date column with the Claim field it populates.
type dateColumn struct {
	Name string
	get  func(*Claim) *time.Time
	set  func(*Claim, *time.Time)
}

// DateColumns lists the twelve milestone date columns in extract order.
var DateColumns = []dateColumn{
	{ColAccidentDate, func(c *Claim) *time.Time { return c.AccidentDate }, func(c *Claim, t *time.Time) { c.AccidentDate = t }},
	{ColANCRDate, func(c *Claim) *time.Time { return c.ANCRDate }, func(c *Claim, t *time.Time) { c.ANCRDate = t }},
	{ColAssemblyDate, func(c *Claim) *time.Time { return c.AssemblyDate }, func(c *Claim, t *time.Time) { c.AssemblyDate = t }},
	{ColC2Date, func(c *Claim) *time.Time { return c.C2Date }, func(c *Claim, t *time.Time) { c.C2Date = t }},
	{ColC3Date, func(c *Claim) *time.Time { return c.C3Date }, func(c *Claim, t *time.Time) { c.C3Date = t }},
	{ColControvertedDate, func(c *Claim) *time.Time { return c.ControvertedDate }, func(c *Claim, t *time.Time) { c.ControvertedDate = t }},
	{ColFirstAppealDate, func(c *Claim) *time.Time { return c.FirstAppealDate }, func(c *Claim, t *time.Time) { c.FirstAppealDate = t }},
	{ColFirstHearingDate, func(c *Claim) *time.Time { return c.FirstHearingDate }, func(c *Claim, t *time.Time) { c.FirstHearingDate = t }},
	{ColPPDNonSchedDate, func(c *Claim) *time.Time { return c.PPDNonScheduledLossDate }, func(c *Claim, t *time.Time) { c.PPDNonScheduledLossDate = t }},
	{ColPPDSchedDate, func(c *Claim) *time.Time { return c.PPDScheduledLossDate }, func(c *Claim, t *time.Time) { c.PPDScheduledLossDate = t }},
	{ColPTDDate, func(c *Claim) *time.Time { return c.PTDDate }, func(c *Claim, t *time.Time) { c.PTDDate = t }},
	{ColSection32Date, func(c *Claim) *time.Time { return c.Section32Date }, func(c *Claim, t *time.Time) { c.Section32Date = t }},
}

// indicatorColumn pairs a Y/N column with the Claim field it populates.
type indicatorColumn struct {
	Name string
	get  func(*Claim) int
	set  func(*Claim, int)
}

// IndicatorColumns lists the five Y/N flag columns.
var IndicatorColumns = []indicatorColumn{
	{ColAccident, func(c *Claim) int { return c.Accident }, func(c *Claim, v int) { c.Accident = v }},
	{ColADR, func(c *Claim) int { return c.AlternativeDisputeResolution }, func(c *Claim, v int) { c.AlternativeDisputeResolution = v }},
	{ColAttorney, func(c *Claim) int { return c.AttorneyRepresentative }, func(c *Claim, v int) { c.AttorneyRepresentative = v }},
	{ColOccupationalDis, func(c *Claim) int { return c.OccupationalDisease }, func(c *Claim, v int) { c.OccupationalDisease = v }},
	{ColCOVID19, func(c *Claim) int { return c.COVID19Indicator }, func(c *Claim, v int) { c.COVID19Indicator = v }},
}

// ClassificationField maps an injury classification column to its display key.
type ClassificationField struct {
	Field string
	Label string
	get   func(*Claim) string
	set   func(*Claim, string)
}

// Value returns the classification text of c for this field.
func (f ClassificationField) Value(c *Claim) string {
	return f.get(c)
}

// ClassificationFields lists the six WCIO / OIICS description columns ranked
// by the category stage, in the order they are reported.
var ClassificationFields = []ClassificationField{
	{ColWCIONature, "wcio_nature_of_injury", func(c *Claim) string { return c.WCIONatureOfInjury }, func(c *Claim, s string) { c.WCIONatureOfInjury = s }},
	{ColOIICSPartOfBody, "oiics_part_of_body", func(c *Claim) string { return c.OIICSPartOfBody }, func(c *Claim, s string) { c.OIICSPartOfBody = s }},
	{ColWCIOCause, "wcio_cause_of_injury", func(c *Claim) string { return c.WCIOCauseOfInjury }, func(c *Claim, s string) { c.WCIOCauseOfInjury = s }},
	{ColOIICSNature, "oiics_nature_of_injury", func(c *Claim) string { return c.OIICSNatureOfInjury }, func(c *Claim, s string) { c.OIICSNatureOfInjury = s }},
	{ColWCIOPartOfBody, "wcio_part_of_body", func(c *Claim) string { return c.WCIOPartOfBody }, func(c *Claim, s string) { c.WCIOPartOfBody = s }},
	{ColOIICSInjurySource, "oiics_injury_source", func(c *Claim) string { return c.OIICSInjurySource }, func(c *Claim, s string) { c.OIICSInjurySource = s }},
}

// scalarColumns are the remaining columns the cleaning stage reads.
var scalarColumns = []string{
	ColClaimIdentifier,
	ColGender,
	ColZipCode,
	ColCountyOfInjury,
	ColAverageWeeklyWage,
	ColAgeAtInjury,
	ColIME4Count,
	ColHighestProcess,
}

// RequiredColumns returns every normalized column the cleaning stage expects.
func RequiredColumns() []string {
	cols := make([]string, 0, len(DateColumns)+len(IndicatorColumns)+len(ClassificationFields)+len(scalarColumns))
	cols = append(cols, scalarColumns[:1]...)
	for _, d := range DateColumns {
		cols = append(cols, d.Name)
	}
	for _, ind := range IndicatorColumns {
		cols = append(cols, ind.Name)
	}
	cols = append(cols, scalarColumns[1:]...)
	for _, f := range ClassificationFields {
		cols = append(cols, f.Field)
	}
	return cols
}

// NormalizeColumn lowercases a raw header and joins words with underscores:
// "Attorney/Representative" → "attorney/representative", "IME-4 Count" → "ime-4_count".
func NormalizeColumn(name string) string {
	name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	return strings.ReplaceAll(strings.ToLower(name), " ", normalizedColumnSep)
}

// IndexColumns normalizes a header row and maps each required column to its
// position. A missing column is a schema violation.
func IndexColumns(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		n := NormalizeColumn(h)
		if _, dup := idx[n]; !dup {
			idx[n] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns() {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, eris.Wrapf(ErrSchema, "missing columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

// ValidateClassificationFields checks that every classification field carries
// the "_description" suffix and that its display key is the field without it.
func ValidateClassificationFields(fields []ClassificationField) error {
	for _, f := range fields {
		if !strings.HasSuffix(f.Field, classificationSuffix) {
			return eris.Wrapf(ErrSchema, "classification field %q lacks suffix %q", f.Field, classificationSuffix)
		}
		if want := strings.TrimSuffix(f.Field, classificationSuffix); f.Label != want {
			return eris.Wrapf(ErrSchema, "classification field %q has label %q, want %q", f.Field, f.Label, want)
		}
	}
	return nil
}
