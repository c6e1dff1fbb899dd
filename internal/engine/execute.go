package engine

import (
	"log/slog"

	"github.com/wasimrehman05/superdoc-sub008/internal/doc"
	"github.com/wasimrehman05/superdoc-sub008/internal/plan"
	"github.com/wasimrehman05/superdoc-sub008/internal/revision"
)

// Options configures one execution.
type Options struct {
	// ThrowOnAssertFailure controls whether assert failures abort with
	// PRECONDITION_FAILED (default) or populate Receipt.Failure.
	ThrowOnAssertFailure *bool

	// DryRun executes every phase against the transaction but never
	// commits, reporting what would have happened.
	DryRun bool
}

func (o *Options) throwOnAssertFailure() bool {
	if o == nil || o.ThrowOnAssertFailure == nil {
		return true
	}
	return *o.ThrowOnAssertFailure
}

func (o *Options) dryRun() bool {
	return o != nil && o.DryRun
}

// ExecuteCompiledPlan runs a compiled plan as one indivisible unit of
// work. The state machine is linear with no retries:
//
//  1. Revision check: the plan must match the live revision.
//  2. Mutation phase: every mutation step runs against one shared
//     transaction; any PlanError aborts everything.
//  3. Assert phase: every assert step runs against the same
//     transaction, seeing post-mutation state.
//  4. Commit: exactly once, iff every step succeeded.
//  5. Receipt: per-step outcomes plus the before/after revisions.
//
// On failure at any stage the transaction is discarded uncommitted.
func ExecuteCompiledPlan(d *doc.Doc, compiled *plan.CompiledPlan, opts *Options) (*plan.Receipt, error) {
	revision.Track(d)
	before := revision.Get(d)
	if before != compiled.CompiledRevision {
		return nil, plan.NewError(plan.ErrCodeRevisionChanged,
			"document is at revision %d but the plan was compiled at revision %d",
			before, compiled.CompiledRevision).
			WithDetail("compiled_revision", compiled.CompiledRevision).
			WithDetail("current_revision", before).
			WithDetail("remediation", "recompile the plan against the current document and retry")
	}

	tx := d.NewTransaction()
	outcomes := make([]plan.StepOutcome, 0, len(compiled.MutationSteps)+len(compiled.AssertSteps))

	for _, cs := range compiled.MutationSteps {
		outcome, err := runStep(tx, cs)
		if err != nil {
			slog.Error("mutation step failed", "step", cs.Step.ID, "op", cs.Step.Op, "error", err)
			return nil, err
		}
		slog.Debug("mutation step executed", "step", cs.Step.ID, "op", cs.Step.Op, "effect", outcome.Effect)
		outcomes = append(outcomes, outcome)
	}

	var failedSteps []string
	for _, cs := range compiled.AssertSteps {
		outcome, err := runStep(tx, cs)
		if err != nil {
			slog.Error("assert step failed", "step", cs.Step.ID, "error", err)
			return nil, err
		}
		if outcome.Effect == plan.EffectAssertFailed {
			failedSteps = append(failedSteps, cs.Step.ID)
		}
		outcomes = append(outcomes, outcome)
	}

	if len(failedSteps) > 0 {
		failure := plan.NewError(plan.ErrCodePreconditionFailed,
			"%d assert step(s) failed", len(failedSteps)).
			WithDetail("failed_steps", failedSteps)
		if opts.throwOnAssertFailure() {
			return nil, failure
		}
		return &plan.Receipt{
			Success:  false,
			Steps:    outcomes,
			Revision: plan.RevisionPair{Before: before, After: before},
			Failure:  failure,
		}, nil
	}

	if !opts.dryRun() {
		if err := d.Commit(tx); err != nil {
			return nil, plan.NewError(plan.ErrCodeInternal, "commit failed: %v", err).
				WithDetail("source", "ExecuteCompiledPlan")
		}
	}
	after := revision.Get(d)

	slog.Info("plan executed",
		"steps", len(outcomes),
		"revision_before", before,
		"revision_after", after,
		"dry_run", opts.dryRun(),
	)
	return &plan.Receipt{
		Success:  true,
		Steps:    outcomes,
		Revision: plan.RevisionPair{Before: before, After: after},
	}, nil
}

func runStep(tx *doc.Transaction, cs plan.CompiledStep) (plan.StepOutcome, error) {
	exec, ok := GetStepExecutor(cs.Step.Op)
	if !ok {
		return plan.StepOutcome{}, plan.NewError(plan.ErrCodeUnsupportedOperation,
			"no executor registered for operation %q", cs.Step.Op).WithStep(cs.Step.ID)
	}
	return exec(tx.Root(), tx, cs.Step, cs.Targets, tx.Mapping())
}
