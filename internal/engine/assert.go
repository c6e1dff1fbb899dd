package engine

import (
	"github.com/wasimrehman05/superdoc-sub008/internal/compiler"
	"github.com/wasimrehman05/superdoc-sub008/internal/doc"
	"github.com/wasimrehman05/superdoc-sub008/internal/index"
	"github.com/wasimrehman05/superdoc-sub008/internal/plan"
)

// executeAssert counts selector matches against the transaction's
// working tree, so asserts see post-mutation state. The selector is
// resolved fresh here rather than at compile time; compiled positions
// would be stale after the mutation phase.
func executeAssert(
	_ *doc.Node,
	tx *doc.Transaction,
	step plan.Step,
	_ []plan.CompiledTarget,
	_ *doc.Mapping,
) (plan.StepOutcome, error) {
	root := tx.Root()
	matches, err := compiler.ResolveSelector(index.Build(root), step.Where, root, step.ID)
	if err != nil {
		// A missing scope block is a failed precondition, not an abort.
		if plan.IsCode(err, plan.ErrCodeTargetNotFound) {
			return failedOutcome(step, 0, "scope not found"), nil
		}
		return plan.StepOutcome{}, err
	}
	actual := len(matches)

	passed, expected := evaluateExpectation(step.Expect, actual)
	if !passed {
		return failedOutcome(step, actual, expected), nil
	}
	return plan.StepOutcome{
		StepID:     step.ID,
		Effect:     plan.EffectAssertPassed,
		MatchCount: actual,
		Data:       map[string]any{"expected": expected},
	}, nil
}

func evaluateExpectation(expect *plan.Expectation, actual int) (bool, any) {
	if expect == nil {
		return actual > 0, "at least one match"
	}
	if expect.Count != nil {
		return actual == *expect.Count, *expect.Count
	}
	switch expect.Require {
	case plan.RequireExactlyOne:
		return actual == 1, 1
	case plan.RequireAll:
		return actual > 0, "at least one match"
	default:
		return actual > 0, "at least one match"
	}
}

func failedOutcome(step plan.Step, actual int, expected any) plan.StepOutcome {
	return plan.StepOutcome{
		StepID:     step.ID,
		Effect:     plan.EffectAssertFailed,
		MatchCount: actual,
		Data:       map[string]any{"expected": expected},
	}
}
