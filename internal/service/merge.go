package service

import (
	"sort"

	"lol-tracker/internal/domain"
)

// MergeMatches folds fresh matches into the stored history. Matches are unique
// by creation time with fresh ones winning, ordered newest first and capped at
// limit. Records missing the fields the dashboard needs are dropped.
func MergeMatches(existing, fresh []domain.MatchRecord, limit int) []domain.MatchRecord {
	merged := make([]domain.MatchRecord, 0, len(existing)+len(fresh))
	seen := make(map[int64]struct{}, len(existing)+len(fresh))

	for _, m := range fresh {
		if !m.Valid() {
			continue
		}
		if _, dup := seen[m.Info.GameCreation]; dup {
			continue
		}
		seen[m.Info.GameCreation] = struct{}{}
		merged = append(merged, m)
	}

	for _, m := range existing {
		if !m.Valid() {
			continue
		}
		if _, dup := seen[m.Info.GameCreation]; dup {
			continue
		}
		seen[m.Info.GameCreation] = struct{}{}
		merged = append(merged, m)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Info.GameCreation > merged[j].Info.GameCreation
	})

	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
