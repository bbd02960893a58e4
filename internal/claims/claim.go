package claims

import (
	"strconv"
	"time"
)

// RawTable is the untyped claims extract as handed over by a loader: one
// header row and string-valued data rows.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// Claim is one cleaned claim row. Dates are civil dates at UTC midnight; nil
// means the source value was empty or unparseable.
type Claim struct {
	ClaimIdentifier string `json:"claim_identifier"`

	AccidentDate            *time.Time `json:"accident_date,omitempty"`
	ANCRDate                *time.Time `json:"ancr_date,omitempty"`
	AssemblyDate            *time.Time `json:"assembly_date,omitempty"`
	C2Date                  *time.Time `json:"c2_date,omitempty"`
	C3Date                  *time.Time `json:"c3_date,omitempty"`
	ControvertedDate        *time.Time `json:"controverted_date,omitempty"`
	FirstAppealDate         *time.Time `json:"first_appeal_date,omitempty"`
	FirstHearingDate        *time.Time `json:"first_hearing_date,omitempty"`
	PPDNonScheduledLossDate *time.Time `json:"ppd_non_scheduled_loss_date,omitempty"`
	PPDScheduledLossDate    *time.Time `json:"ppd_scheduled_loss_date,omitempty"`
	PTDDate                 *time.Time `json:"ptd_date,omitempty"`
	Section32Date           *time.Time `json:"section_32_date,omitempty"`

	// Y/N indicators coerced to 1/0.
	Accident                     int `json:"accident"`
	AlternativeDisputeResolution int `json:"alternative_dispute_resolution"`
	AttorneyRepresentative       int `json:"attorney_representative"`
	OccupationalDisease          int `json:"occupational_disease"`
	COVID19Indicator             int `json:"covid19_indicator"`

	Gender            int      `json:"gender"` // 1 = M, 0 otherwise
	ZipCode           string   `json:"zip_code"`
	CountyOfInjury    string   `json:"county_of_injury"`
	AverageWeeklyWage *float64 `json:"average_weekly_wage,omitempty"`
	AgeAtInjury       *float64 `json:"age_at_injury,omitempty"`
	IME4Count         float64  `json:"ime4_count"`
	HighestProcess    string   `json:"highest_process"`

	WCIONatureOfInjury  string `json:"wcio_nature_of_injury_description"`
	OIICSPartOfBody     string `json:"oiics_part_of_body_description"`
	WCIOCauseOfInjury   string `json:"wcio_cause_of_injury_description"`
	OIICSNatureOfInjury string `json:"oiics_nature_of_injury_description"`
	WCIOPartOfBody      string `json:"wcio_part_of_body_description"`
	OIICSInjurySource   string `json:"oiics_injury_source_description"`

	// Derived.
	AccidentToAssembly int       `json:"accident_to_assembly"`
	AccidentMonth      time.Time `json:"accident_date_month_trunc"`
}

// Table is the cleaned claim table. It is never mutated after Clean returns;
// downstream stages share it read-only.
type Table struct {
	Claims []Claim `json:"-"`
	Stats  Stats   `json:"stats"`
}

// Len returns the number of retained claims.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Claims)
}

// Raw renders the table back into raw extract vocabulary (normalized header,
// ISO dates, Y/N flags, M/F gender) so it can be fed through Clean again.
func (t *Table) Raw() RawTable {
	header := RequiredColumns()
	out := RawTable{Header: header, Rows: make([][]string, 0, t.Len())}
	for i := range t.Claims {
		c := &t.Claims[i]
		row := make([]string, 0, len(header))
		row = append(row, c.ClaimIdentifier)
		for _, d := range DateColumns {
			row = append(row, formatDate(d.get(c)))
		}
		for _, ind := range IndicatorColumns {
			row = append(row, formatYN(ind.get(c)))
		}
		gender := "F"
		if c.Gender == 1 {
			gender = "M"
		}
		row = append(row,
			gender,
			c.ZipCode,
			c.CountyOfInjury,
			formatFloatPtr(c.AverageWeeklyWage),
			formatFloatPtr(c.AgeAtInjury),
			strconv.FormatFloat(c.IME4Count, 'f', -1, 64),
			c.HighestProcess,
		)
		for _, f := range ClassificationFields {
			row = append(row, f.get(c))
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}

func formatYN(v int) string {
	if v == 1 {
		return "Y"
	}
	return "N"
}

func formatFloatPtr(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
