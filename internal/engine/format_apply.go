package engine

import (
	"github.com/wasimrehman05/superdoc-sub008/internal/doc"
	"github.com/wasimrehman05/superdoc-sub008/internal/plan"
)

// executeFormatApply adds and removes marks over a target range. Text
// content is never touched. Span targets pass the contiguity guard and
// then mutate segment by segment.
func executeFormatApply(
	_ *doc.Node,
	tx *doc.Transaction,
	step plan.Step,
	targets []plan.CompiledTarget,
	mapping *doc.Mapping,
) (plan.StepOutcome, error) {
	changed := false
	for _, t := range targets {
		switch t.Kind {
		case plan.TargetRange:
			rt := t.Range
			_, from, to, err := remapRange(tx, mapping, step.ID, rt.BlockID, rt.AbsFrom, rt.AbsTo)
			if err != nil {
				return plan.StepOutcome{}, err
			}
			didChange, err := applyMarks(tx, step, rt.BlockID, from, to)
			if err != nil {
				return plan.StepOutcome{}, err
			}
			changed = changed || didChange
		case plan.TargetSpan:
			st := t.Span
			if err := checkSpanContiguity(st, mapping, step.ID); err != nil {
				return plan.StepOutcome{}, err
			}
			for _, seg := range st.Segments {
				_, from, to, err := remapRange(tx, mapping, step.ID, seg.BlockID, seg.AbsFrom, seg.AbsTo)
				if err != nil {
					return plan.StepOutcome{}, err
				}
				didChange, err := applyMarks(tx, step, seg.BlockID, from, to)
				if err != nil {
					return plan.StepOutcome{}, err
				}
				changed = changed || didChange
			}
		default:
			return plan.StepOutcome{}, plan.NewError(plan.ErrCodeInternal,
				"unknown target kind %q", t.Kind).WithStep(step.ID).WithDetail("source", "format.apply")
		}
	}

	effect := plan.EffectNoop
	if changed {
		effect = plan.EffectChanged
	}
	return plan.StepOutcome{StepID: step.ID, Effect: effect, MatchCount: len(targets)}, nil
}

func applyMarks(tx *doc.Transaction, step plan.Step, blockID string, from, to int) (bool, error) {
	changed := false
	for _, markType := range step.Args.RemoveMarks {
		did, err := tx.RemoveMark(blockID, from, to, markType)
		if err != nil {
			return false, plan.NewError(plan.ErrCodeInvalidTarget, "remove mark %q from %q: %v",
				markType, blockID, err).WithStep(step.ID)
		}
		changed = changed || did
	}
	for _, mark := range step.Args.Marks {
		did, err := tx.AddMark(blockID, from, to, mark)
		if err != nil {
			return false, plan.NewError(plan.ErrCodeInvalidTarget, "add mark %q to %q: %v",
				mark.Type, blockID, err).WithStep(step.ID)
		}
		changed = changed || did
	}
	return changed, nil
}
