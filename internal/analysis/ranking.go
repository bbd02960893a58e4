package analysis

import (
	"sort"

	"github.com/sells-group/claims-cli/internal/claims"
)

// CategoryCount is one label's claim count.
type CategoryCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CategoryRanking is one classification field's labels by descending count.
type CategoryRanking struct {
	Key    string          `json:"key"`
	Field  string          `json:"field"`
	Counts []CategoryCount `json:"counts"`
}

// Top returns the first n entries (all of them when n <= 0 or n exceeds the
// ranking length).
func (r CategoryRanking) Top(n int) []CategoryCount {
	if n <= 0 || n >= len(r.Counts) {
		return r.Counts
	}
	return r.Counts[:n]
}

// RankCategories ranks each classification field. The field table is
// validated first; a bad entry returns an error wrapping claims.ErrSchema.
func RankCategories(tbl *claims.Table, fields []claims.ClassificationField) ([]CategoryRanking, error) {
	if err := claims.ValidateClassificationFields(fields); err != nil {
		return nil, err
	}
	out := make([]CategoryRanking, 0, len(fields))
	for _, f := range fields {
		out = append(out, rankField(tbl, f))
	}
	return out, nil
}

// rankField counts non-empty labels and sorts descending. Equal counts keep
// the order in which labels first appear in the table.
func rankField(tbl *claims.Table, f claims.ClassificationField) CategoryRanking {
	idx := make(map[string]int)
	var counts []CategoryCount
	for i := range tbl.Claims {
		label := f.Value(&tbl.Claims[i])
		if label == "" {
			continue
		}
		j, ok := idx[label]
		if !ok {
			j = len(counts)
			idx[label] = j
			counts = append(counts, CategoryCount{Label: label})
		}
		counts[j].Count++
	}

	sort.SliceStable(counts, func(a, b int) bool {
		return counts[a].Count > counts[b].Count
	})

	return CategoryRanking{Key: f.Label, Field: f.Field, Counts: counts}
}
