package pipeline

import (
	"sort"

	"github.com/dkurup/agenticrag/internal/domain/ragModel"
)

// aggregateHits collapses the raw fan-out results into the context set
// handed to synthesis. Duplicate chunk ids keep their first occurrence,
// survivors sort by score descending, and at most top survive.
func aggregateHits(hits []ragModel.ChunkHit, top int) []ragModel.ChunkHit {
	seen := make(map[int64]struct{}, len(hits))
	deduped := make([]ragModel.ChunkHit, 0, len(hits))
	for _, hit := range hits {
		if _, ok := seen[hit.ChunkId]; ok {
			continue
		}
		seen[hit.ChunkId] = struct{}{}
		deduped = append(deduped, hit)
	}
	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].Score > deduped[j].Score
	})
	if top > 0 && len(deduped) > top {
		deduped = deduped[:top]
	}
	return deduped
}
