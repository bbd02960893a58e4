package claims

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Drop reasons reported in Stats.Dropped.
const (
	DropMissingAccidentDate = "missing_accident_date"
	DropBeforeMinDate       = "before_min_accident_date"
	DropMissingAssemblyDate = "missing_assembly_date"
	DropNegativeDuration    = "negative_accident_to_assembly"
	DropDurationTooLong     = "accident_to_assembly_too_long"
)

// Options holds the validity window applied by Clean.
type Options struct {
	// MinAccidentDate is the earliest accident date retained (inclusive).
	MinAccidentDate time.Time
	// MaxAssemblyDays is the exclusive upper bound on accident_to_assembly.
	MaxAssemblyDays int
}

// DefaultOptions returns the 2000-01-01 / 500-day validity window.
func DefaultOptions() Options {
	return Options{
		MinAccidentDate: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		MaxAssemblyDays: 500,
	}
}

// Stats summarizes one cleaning pass.
type Stats struct {
	RawRows       int            `json:"raw_rows"`
	Retained      int            `json:"retained"`
	Dropped       map[string]int `json:"dropped,omitempty"`
	UnparsedDates int            `json:"unparsed_dates"`
	ShortRows     int            `json:"short_rows"`
}

// DroppedTotal returns the number of rows removed by the validity filter.
func (s Stats) DroppedTotal() int {
	n := 0
	for _, v := range s.Dropped {
		n += v
	}
	return n
}

// Clean normalizes the raw extract into a claim table: header normalization,
// date parsing, Y/N and gender recoding, ime-4 null fill, derived
// accident_to_assembly and month fields, then the validity filter.
//
// A missing expected column returns an error wrapping ErrSchema. Malformed
// values never fail a row; they degrade to null or 0.
func Clean(ctx context.Context, raw RawTable, opts Options) (*Table, error) {
	if opts.MaxAssemblyDays <= 0 {
		return nil, eris.New("claims: MaxAssemblyDays must be positive")
	}

	idx, err := IndexColumns(raw.Header)
	if err != nil {
		return nil, err
	}

	stats := Stats{RawRows: len(raw.Rows), Dropped: make(map[string]int)}
	out := make([]Claim, 0, len(raw.Rows))

	for i, row := range raw.Rows {
		if i%10000 == 0 && ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "claims: clean cancelled")
		}
		if len(row) < len(raw.Header) {
			stats.ShortRows++
		}

		c, unparsed := parseRow(row, idx)
		stats.UnparsedDates += unparsed

		if reason := rejectReason(&c, opts); reason != "" {
			stats.Dropped[reason]++
			continue
		}
		out = append(out, c)
	}

	stats.Retained = len(out)

	zap.L().Debug("claims: cleaned",
		zap.Int("raw_rows", stats.RawRows),
		zap.Int("retained", stats.Retained),
		zap.Int("dropped", stats.DroppedTotal()),
		zap.Int("unparsed_dates", stats.UnparsedDates),
	)

	return &Table{Claims: out, Stats: stats}, nil
}

// parseRow decodes one raw row. It returns the claim and the number of
// non-empty date cells that failed to parse.
func parseRow(row []string, idx map[string]int) (Claim, int) {
	get := func(col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return row[i]
	}

	var c Claim
	var unparsed int

	c.ClaimIdentifier = strings.TrimSpace(get(ColClaimIdentifier))

	for _, d := range DateColumns {
		s := get(d.Name)
		t := parseDate(s)
		if t == nil && strings.TrimSpace(s) != "" {
			unparsed++
		}
		d.set(&c, t)
	}

	for _, ind := range IndicatorColumns {
		ind.set(&c, parseYN(get(ind.Name)))
	}

	c.Gender = parseGender(get(ColGender))
	c.ZipCode = strings.TrimSpace(get(ColZipCode))
	c.CountyOfInjury = strings.TrimSpace(get(ColCountyOfInjury))
	c.AverageWeeklyWage = parseFloatPtr(get(ColAverageWeeklyWage))
	c.AgeAtInjury = parseFloatPtr(get(ColAgeAtInjury))
	c.IME4Count = parseFloatOr(get(ColIME4Count), 0)
	c.HighestProcess = strings.TrimSpace(get(ColHighestProcess))

	for _, f := range ClassificationFields {
		f.set(&c, strings.TrimSpace(get(f.Field)))
	}

	if c.AccidentDate != nil {
		c.AccidentMonth = monthStart(*c.AccidentDate)
	}

	return c, unparsed
}

// rejectReason applies the validity window, filling AccidentToAssembly on
// success. It returns "" when the claim is retained.
func rejectReason(c *Claim, opts Options) string {
	if c.AccidentDate == nil {
		return DropMissingAccidentDate
	}
	if c.AccidentDate.Before(opts.MinAccidentDate) {
		return DropBeforeMinDate
	}
	days := daysBetween(c.AccidentDate, c.AssemblyDate)
	switch {
	case days == nil:
		return DropMissingAssemblyDate
	case *days < 0:
		return DropNegativeDuration
	case *days >= opts.MaxAssemblyDays:
		return DropDurationTooLong
	}
	c.AccidentToAssembly = *days
	return ""
}
