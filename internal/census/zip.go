package census

import (
	"go.uber.org/zap"
)

// ZIPFromKey extracts the five-digit ZIP from a composite geography key by
// position: characters [6:11], i.e. after the "ZCTA5 " prefix. Keys too short
// to hold that slice report false.
func ZIPFromKey(key string) (string, bool) {
	if len(key) < 11 {
		return "", false
	}
	return key[6:11], true
}

// ByZIP maps ZIP codes to population. When two records share a ZIP the later
// one wins. Keys too short for ZIPFromKey are skipped.
func (t *Table) ByZIP() map[string]float64 {
	out := make(map[string]float64, t.Len())
	if t == nil {
		return out
	}
	var short int
	for _, r := range t.Records {
		zip, ok := ZIPFromKey(r.Key)
		if !ok {
			short++
			continue
		}
		out[zip] = r.Population
	}
	if short > 0 {
		zap.L().Debug("census: skipped keys too short for ZIP extraction", zap.Int("count", short))
	}
	return out
}
