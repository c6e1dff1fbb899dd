// Package compiler resolves a plan's selectors against the block index,
// producing an address-resolved CompiledPlan with eagerly captured
// style snapshots, stamped with the revision it was compiled under.
package compiler

import (
	"fmt"
	"log/slog"

	"github.com/wasimrehman05/superdoc-sub008/internal/doc"
	"github.com/wasimrehman05/superdoc-sub008/internal/index"
	"github.com/wasimrehman05/superdoc-sub008/internal/plan"
	"github.com/wasimrehman05/superdoc-sub008/internal/revision"
)

// CompilePlan compiles steps against the document's current tree.
//
// Mutation steps resolve to one or more compiled targets; a mutation
// selector matching nothing is TARGET_NOT_FOUND. Assert steps keep
// their selectors and resolve at execution time, so they observe the
// post-mutation tree.
//
// The returned plan is valid only against the revision it was compiled
// under. If the document changes, recompile.
func CompilePlan(steps []plan.Step, d *doc.Doc) (*plan.CompiledPlan, error) {
	revision.Track(d)
	idx := index.Get(d.Root())

	compiled := &plan.CompiledPlan{CompiledRevision: revision.Get(d)}
	for i, step := range steps {
		if step.ID == "" {
			step.ID = fmt.Sprintf("step-%d", i+1)
		}
		if step.IsAssert() {
			if err := validateAssertStep(step); err != nil {
				return nil, err
			}
			compiled.AssertSteps = append(compiled.AssertSteps, plan.CompiledStep{Step: step})
			continue
		}
		if err := validateMutationArgs(step); err != nil {
			return nil, err
		}
		matches, err := ResolveSelector(idx, step.Where, d.Root(), step.ID)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, plan.NewError(plan.ErrCodeTargetNotFound, "selector matched nothing").
				WithStep(step.ID).WithDetail("op", step.Op)
		}
		cs := plan.CompiledStep{Step: step}
		for mi, m := range matches {
			target, err := buildTarget(m, step, mi)
			if err != nil {
				return nil, err
			}
			cs.Targets = append(cs.Targets, target)
		}
		compiled.MutationSteps = append(compiled.MutationSteps, cs)
	}

	slog.Debug("plan compiled",
		"mutation_steps", len(compiled.MutationSteps),
		"assert_steps", len(compiled.AssertSteps),
		"revision", compiled.CompiledRevision,
	)
	return compiled, nil
}

func validateMutationArgs(step plan.Step) error {
	switch step.Op {
	case plan.OpTextRewrite:
		if _, err := NormalizeReplacementText(step.Args.Text); err != nil {
			if pe, ok := plan.AsError(err); ok {
				return pe.WithStep(step.ID)
			}
			return err
		}
	case plan.OpFormatApply:
		if len(step.Args.Marks) == 0 && len(step.Args.RemoveMarks) == 0 {
			return plan.NewError(plan.ErrCodeInvalidInput, "format.apply needs marks to add or remove").WithStep(step.ID)
		}
	case plan.OpCreateParagraph, plan.OpCreateHeading:
		switch step.Args.Position {
		case "", "before", "after":
		default:
			return plan.NewError(plan.ErrCodeInvalidInput, "position must be %q or %q, got %q",
				"before", "after", step.Args.Position).WithStep(step.ID)
		}
		if _, err := NormalizeReplacementText(step.Args.Text); err != nil {
			if pe, ok := plan.AsError(err); ok {
				return pe.WithStep(step.ID)
			}
			return err
		}
	}
	return nil
}

func validateAssertStep(step plan.Step) error {
	if step.Where == nil {
		return plan.NewError(plan.ErrCodeInvalidTarget, "assert step has no where clause").WithStep(step.ID)
	}
	if step.Expect == nil {
		return plan.NewError(plan.ErrCodeInvalidInput, "assert step has no expectation").WithStep(step.ID)
	}
	if step.Expect.Count == nil && step.Expect.Require == "" {
		return plan.NewError(plan.ErrCodeInvalidInput, "assert expectation needs a count or a require mode").WithStep(step.ID)
	}
	switch step.Expect.Require {
	case "", plan.RequireExactlyOne, plan.RequireAll:
	default:
		return plan.NewError(plan.ErrCodeInvalidInput, "unknown require mode %q", step.Expect.Require).WithStep(step.ID)
	}
	return nil
}
