package engine

import (
	"github.com/wasimrehman05/superdoc-sub008/internal/doc"
	"github.com/wasimrehman05/superdoc-sub008/internal/plan"
)

// checkSpanContiguity re-maps every segment boundary through the
// transaction's position mapping and verifies that the gap between
// consecutive segments is unchanged. A changed gap means an earlier
// step in the same plan fragmented the intervening content; the span
// mutation must not run.
func checkSpanContiguity(span *plan.SpanTarget, mapping *doc.Mapping, stepID string) error {
	for i := 0; i+1 < len(span.Segments); i++ {
		cur, next := span.Segments[i], span.Segments[i+1]
		origGap := next.AbsFrom - cur.AbsTo
		mappedGap := mapping.Map(next.AbsFrom) - mapping.Map(cur.AbsTo)
		if mappedGap != origGap {
			return plan.NewError(plan.ErrCodeSpanFragmented,
				"span %s: gap between segments %d and %d changed from %d to %d",
				span.MatchID, i, i+1, origGap, mappedGap).
				WithStep(stepID).
				WithDetail("match_id", span.MatchID).
				WithDetail("segment_index", i).
				WithDetail("original_gap", origGap).
				WithDetail("mapped_gap", mappedGap)
		}
	}
	return nil
}
