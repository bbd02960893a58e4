package claims

import (
	"strings"
)

// rawHeader renders the required columns the way the published extract spells
// them ("Accident Date", "IME-4 Count") so tests exercise normalization.
func rawHeader() []string {
	cols := RequiredColumns()
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = strings.ToUpper(strings.ReplaceAll(c, "_", " "))
	}
	return out
}

// baseRow is a valid claim: accident 2019-01-10, assembled five days later.
func baseRow() map[string]string {
	return map[string]string{
		ColClaimIdentifier:   "5393875",
		ColAccidentDate:      "2019-01-10",
		ColAssemblyDate:      "2019-01-15",
		ColC2Date:            "2019-01-12",
		ColAccident:          "Y",
		ColAttorney:          "N",
		ColGender:            "M",
		ColZipCode:           "10001",
		ColCountyOfInjury:    "NEW YORK",
		ColAverageWeeklyWage: "850.25",
		ColAgeAtInjury:       "34",
		ColIME4Count:         "",
		ColHighestProcess:    "1. NO HEARING",
		ColWCIONature:        "STRAIN OR TEAR",
		ColOIICSPartOfBody:   "LOWER BACK",
		ColWCIOCause:         "LIFTING",
		ColOIICSNature:       "SPRAINS",
		ColWCIOPartOfBody:    "LOWER BACK AREA",
		ColOIICSInjurySource: "BOXES",
	}
}

// withFields copies baseRow and applies overrides.
func withFields(overrides map[string]string) map[string]string {
	row := baseRow()
	for k, v := range overrides {
		row[k] = v
	}
	return row
}

// rawTable builds a RawTable from column → value maps keyed by normalized name.
func rawTable(rows ...map[string]string) RawTable {
	cols := RequiredColumns()
	t := RawTable{Header: rawHeader()}
	for _, r := range rows {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = r[c]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
