package analysis

import (
	"time"

	"github.com/twpayne/go-geom"

	"github.com/sells-group/claims-cli/internal/claims"
	"github.com/sells-group/claims-cli/internal/geo"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fptr(f float64) *float64 { return &f }

// claim builds a retained claim with the given accident date and duration.
func claim(acc time.Time, duration int) claims.Claim {
	asm := acc.AddDate(0, 0, duration)
	return claims.Claim{
		AccidentDate:       &acc,
		AssemblyDate:       &asm,
		AccidentToAssembly: duration,
		AccidentMonth:      time.Date(acc.Year(), acc.Month(), 1, 0, 0, 0, 0, time.UTC),
	}
}

func table(cs ...claims.Claim) *claims.Table {
	return &claims.Table{Claims: cs}
}

func boundaries(keyField string, keys ...string) *geo.Table {
	tbl := &geo.Table{KeyField: keyField}
	for _, k := range keys {
		tbl.Boundaries = append(tbl.Boundaries, geo.Boundary{
			Key:      k,
			Geometry: geom.NewPointFlat(geom.XY, []float64{0, 0}),
		})
	}
	return tbl
}
