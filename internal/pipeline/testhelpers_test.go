package pipeline

import (
	"fmt"
	"time"

	"github.com/twpayne/go-geom"

	"github.com/sells-group/claims-cli/internal/census"
	"github.com/sells-group/claims-cli/internal/claims"
	"github.com/sells-group/claims-cli/internal/geo"
)

// claimRow returns a valid raw claim keyed by normalized column name.
func claimRow(id int, accident time.Time, durationDays int) map[string]string {
	process := "1. NO HEARING"
	if id%3 == 0 {
		process = "4A. HEARING - JUDGE"
	}
	attorney := "N"
	if id%2 == 0 {
		attorney = "Y"
	}
	return map[string]string{
		claims.ColClaimIdentifier:   fmt.Sprint(5000000 + id),
		claims.ColAccidentDate:      accident.Format(time.DateOnly),
		claims.ColAssemblyDate:      accident.AddDate(0, 0, durationDays).Format(time.DateOnly),
		claims.ColAccident:          "Y",
		claims.ColAttorney:          attorney,
		claims.ColGender:            "M",
		claims.ColZipCode:           []string{"10001", "10002", "12203"}[id%3],
		claims.ColCountyOfInjury:    []string{"NEW YORK", "KINGS", "ALBANY"}[id%3],
		claims.ColAverageWeeklyWage: fmt.Sprint(400 + 7*id),
		claims.ColAgeAtInjury:       fmt.Sprint(20 + id%40),
		claims.ColIME4Count:         fmt.Sprint(id % 2),
		claims.ColHighestProcess:    process,
		claims.ColWCIONature:        []string{"STRAIN OR TEAR", "CONTUSION"}[id%2],
		claims.ColOIICSPartOfBody:   "LOWER BACK",
		claims.ColWCIOCause:         "LIFTING",
		claims.ColOIICSNature:       "SPRAINS",
		claims.ColWCIOPartOfBody:    "LOWER BACK AREA",
		claims.ColOIICSInjurySource: "BOXES",
	}
}

// rawTable renders rows under the required header, in required-column order.
func rawTable(rows ...map[string]string) claims.RawTable {
	cols := claims.RequiredColumns()
	t := claims.RawTable{Header: cols}
	for _, r := range rows {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = r[c]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// sampleRaw is n claims spread over January 2020, plus one claim that the
// validity window drops.
func sampleRaw(n int) claims.RawTable {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]map[string]string, 0, n+1)
	for i := 1; i <= n; i++ {
		rows = append(rows, claimRow(i, start.AddDate(0, 0, i%28), 3+i%20))
	}
	rows = append(rows, claimRow(n+1, time.Date(1999, 6, 1, 0, 0, 0, 0, time.UTC), 5))
	return rawTable(rows...)
}

func pointTable(keyField string, keys ...string) *geo.Table {
	tbl := &geo.Table{KeyField: keyField}
	for i, k := range keys {
		p := geom.NewPointFlat(geom.XY, []float64{-74 + float64(i), 40.7}).SetSRID(geo.SRID)
		tbl.Boundaries = append(tbl.Boundaries, geo.Boundary{Key: k, Geometry: p})
	}
	return tbl
}

func sampleInputs(n int) Inputs {
	return Inputs{
		Raw:      sampleRaw(n),
		ZIPs:     pointTable("ZCTA5CE10", "10001", "10002", "12203"),
		Counties: pointTable("name", "NEW YORK", "KINGS", "ALBANY"),
		Population: &census.Table{Records: []census.Record{
			{Key: "ZCTA5 10001", Population: 21102},
			{Key: "ZCTA5 10002", Population: 76807},
			{Key: "ZCTA5 12203", Population: 500},
		}},
	}
}
