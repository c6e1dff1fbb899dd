// Package style captures, coalesces and resolves mark runs: the style
// layer of the target compiler and the text.rewrite executor.
package style

import (
	"sort"
	"unicode/utf8"

	"github.com/wasimrehman05/superdoc-sub008/internal/doc"
	"github.com/wasimrehman05/superdoc-sub008/internal/plan"
)

// CoalesceRuns sorts runs by start offset, drops zero-width runs, and
// merges adjacent runs with equal mark sets. Two runs merge iff their
// boundaries abut and their mark sets are equal (same marks, same
// order, same attributes). Output is in ascending offset order with no
// zero-width entries. The operation is idempotent.
func CoalesceRuns(runs []plan.Run) []plan.Run {
	sorted := make([]plan.Run, 0, len(runs))
	for _, r := range runs {
		if r.To > r.From {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].From < sorted[j].From
	})

	out := make([]plan.Run, 0, len(sorted))
	for _, r := range sorted {
		r.CharCount = r.To - r.From
		if len(out) > 0 {
			last := &out[len(out)-1]
			if last.To == r.From && doc.MarksEqual(last.Marks, r.Marks) {
				last.To = r.To
				last.CharCount = last.To - last.From
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// Capture snapshots the coalesced mark runs over the rune range
// [from, to) of one block. Run offsets are relative to the block text.
func Capture(block *doc.Node, from, to int) plan.CapturedStyle {
	var runs []plan.Run
	offset := 0
	for _, sp := range block.Inline {
		n := utf8.RuneCountInString(sp.Text)
		start, end := offset, offset+n
		offset = end
		if end <= from || start >= to {
			continue
		}
		lo, hi := start, end
		if from > lo {
			lo = from
		}
		if to < hi {
			hi = to
		}
		runs = append(runs, plan.Run{
			From:      lo,
			To:        hi,
			CharCount: hi - lo,
			Marks:     doc.CloneMarks(sp.Marks),
		})
	}
	coalesced := CoalesceRuns(runs)
	return plan.CapturedStyle{
		Runs:      coalesced,
		IsUniform: len(coalesced) == 1,
	}
}

// AssertRunTiling verifies that runs tile the range [from, to) exactly:
// the first run starts at from, the last ends at to, and adjacent runs
// share boundaries with no gap or overlap. A violation is a compiler
// bug and surfaces as INTERNAL_ERROR, never a user-facing condition.
func AssertRunTiling(runs []plan.Run, from, to int, blockID string) error {
	if to <= from {
		return nil
	}
	fail := func(invariant string, detail map[string]any) error {
		err := plan.NewError(plan.ErrCodeInternal, "run tiling invariant violated in block %q", blockID).
			WithDetail("invariant", invariant).
			WithDetail("block_id", blockID).
			WithDetail("source", "style.AssertRunTiling")
		for k, v := range detail {
			err = err.WithDetail(k, v)
		}
		return err
	}
	if len(runs) == 0 {
		return fail("non_empty", map[string]any{"from": from, "to": to})
	}
	if runs[0].From != from {
		return fail("starts_at_range_start", map[string]any{"expected": from, "actual": runs[0].From})
	}
	if runs[len(runs)-1].To != to {
		return fail("ends_at_range_end", map[string]any{"expected": to, "actual": runs[len(runs)-1].To})
	}
	for i := 1; i < len(runs); i++ {
		if runs[i-1].To != runs[i].From {
			return fail("adjacent_boundaries", map[string]any{
				"index": i, "prev_to": runs[i-1].To, "next_from": runs[i].From,
			})
		}
	}
	return nil
}
