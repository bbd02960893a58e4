package claims

import (
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// dateLayouts are the date renderings seen across extract vintages: ISO dates,
// Socrata timestamps and US month/day/year.
var dateLayouts = []string{
	time.DateOnly,
	"2006-01-02T15:04:05",
	time.DateTime,
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"01/02/2006 03:04:05 PM",
}

// parseDate returns the civil date at UTC midnight, or nil for empty or
// unparseable text.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

// parseYN returns 1 for exactly "Y", 0 for anything else.
func parseYN(s string) int {
	if strings.TrimSpace(s) == "Y" {
		return 1
	}
	return 0
}

// parseGender returns 1 for "M", 0 for anything else.
func parseGender(s string) int {
	if strings.TrimSpace(s) == "M" {
		return 1
	}
	return 0
}

// parseFloatPtr parses a numeric field, returning nil when it is empty, not a
// number or not finite.
func parseFloatPtr(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	v, err := cast.ToFloat64E(s)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// parseFloatOr parses a numeric field, returning def when parseFloatPtr would
// return nil.
func parseFloatOr(s string, def float64) float64 {
	if v := parseFloatPtr(s); v != nil {
		return *v
	}
	return def
}

// daysBetween returns the whole-day difference to - from, or nil if either
// endpoint is missing.
func daysBetween(from, to *time.Time) *int {
	if from == nil || to == nil {
		return nil
	}
	d := int(math.Round(to.Sub(*from).Hours() / 24))
	return &d
}

// monthStart truncates t to the first day of its month.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
