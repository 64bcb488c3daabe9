package search

import (
	"sort"

	domsearch "github.com/iamjaehaklee/qdrant-api-backend/internal/domain/search"
)

// fuseRRF merges N ranked result lists via Reciprocal Rank Fusion:
// score(d) = sum of 1/(k + rank_i(d)) over every list where d appears, with
// 1-based ranks. Fusion looks only at ranks, never at the native scores of
// the input lists. Ties keep the order in which the ids were first
// encountered during traversal, so the output is deterministic for identical
// inputs. The first list containing an id supplies its payload.
func fuseRRF(lists [][]domsearch.Result, k int) []domsearch.Result {
	type scored struct {
		res   domsearch.Result
		score float64
	}

	merged := make(map[string]*scored)
	order := make([]string, 0)

	for _, list := range lists {
		for rank, r := range list {
			contribution := 1.0 / float64(k+rank+1)
			if s, ok := merged[r.PointID]; ok {
				s.score += contribution
				continue
			}
			merged[r.PointID] = &scored{res: r, score: contribution}
			order = append(order, r.PointID)
		}
	}

	results := make([]domsearch.Result, 0, len(order))
	for _, id := range order {
		s := merged[id]
		r := s.res
		r.Score = s.score
		results = append(results, r)
	}

	// Stable sort over first-encounter order gives the documented tie-break.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results
}
