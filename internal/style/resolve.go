package style

import (
	"github.com/wasimrehman05/superdoc-sub008/internal/doc"
	"github.com/wasimrehman05/superdoc-sub008/internal/plan"
)

// ResolveInline resolves a style policy against a captured style,
// producing the mark set for rewritten text.
//
// Policies:
//   - preserve (default), onNonUniform=majority: a uniform capture
//     returns its single run's marks; otherwise the mark set covering
//     the most characters wins, ties broken by first-encountered run.
//   - set: exactly the policy's marks, ignoring the capture entirely.
//   - clear: an empty mark set.
func ResolveInline(captured *plan.CapturedStyle, policy *plan.StylePolicy, stepID string) ([]doc.Mark, error) {
	mode := plan.StylePreserve
	if policy != nil && policy.Mode != "" {
		mode = policy.Mode
	}
	switch mode {
	case plan.StyleClear:
		return nil, nil
	case plan.StyleSet:
		if policy == nil {
			return nil, nil
		}
		return doc.CloneMarks(policy.Marks), nil
	case plan.StylePreserve:
		return preserveMarks(captured), nil
	default:
		return nil, plan.NewError(plan.ErrCodeInvalidInput, "unknown style mode %q", mode).WithStep(stepID)
	}
}

func preserveMarks(captured *plan.CapturedStyle) []doc.Mark {
	if captured == nil || len(captured.Runs) == 0 {
		return nil
	}
	if captured.IsUniform {
		return doc.CloneMarks(captured.Runs[0].Marks)
	}
	return majorityMarks(captured.Runs)
}

// majorityMarks selects the mark set whose runs cover the greatest
// total character count. First-encountered wins ties.
func majorityMarks(runs []plan.Run) []doc.Mark {
	type bucket struct {
		marks []doc.Mark
		count int
	}
	var buckets []bucket
	for _, r := range runs {
		found := false
		for i := range buckets {
			if doc.MarksEqual(buckets[i].marks, r.Marks) {
				buckets[i].count += r.CharCount
				found = true
				break
			}
		}
		if !found {
			buckets = append(buckets, bucket{marks: r.Marks, count: r.CharCount})
		}
	}
	best := 0
	for i := 1; i < len(buckets); i++ {
		if buckets[i].count > buckets[best].count {
			best = i
		}
	}
	return doc.CloneMarks(buckets[best].marks)
}
