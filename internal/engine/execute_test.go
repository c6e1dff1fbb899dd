package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasimrehman05/superdoc-sub008/internal/compiler"
	"github.com/wasimrehman05/superdoc-sub008/internal/doc"
	"github.com/wasimrehman05/superdoc-sub008/internal/plan"
	"github.com/wasimrehman05/superdoc-sub008/internal/revision"
	"github.com/wasimrehman05/superdoc-sub008/internal/testutil"
)

func blockTexts(t *testing.T, d *doc.Doc) []string {
	t.Helper()
	var texts []string
	for _, child := range d.Root().Children {
		texts = append(texts, child.Text())
	}
	return texts
}

func mustCompile(t *testing.T, d *doc.Doc, steps ...plan.Step) *plan.CompiledPlan {
	t.Helper()
	compiled, err := compiler.CompilePlan(steps, d)
	require.NoError(t, err)
	return compiled
}

func withSequentialIDs(t *testing.T, prefix string) {
	t.Helper()
	orig := MintBlockID
	MintBlockID = testutil.SequentialIDs(prefix)
	t.Cleanup(func() { MintBlockID = orig })
}

func TestExecute_TextRewriteRange(t *testing.T) {
	d := testutil.BuildDoc(testutil.Block{ID: "p1", Text: "hello world"})
	compiled := mustCompile(t, d, plan.Step{
		Op:    plan.OpTextRewrite,
		Where: &plan.Selector{Text: "world"},
		Args:  plan.StepArgs{Text: "there"},
	})

	receipt, err := ExecuteCompiledPlan(d, compiled, nil)
	require.NoError(t, err)

	assert.True(t, receipt.Success)
	require.Len(t, receipt.Steps, 1)
	assert.Equal(t, plan.EffectChanged, receipt.Steps[0].Effect)
	assert.Equal(t, int64(0), receipt.Revision.Before)
	assert.Equal(t, int64(1), receipt.Revision.After)
	assert.Equal(t, []string{"hello there"}, blockTexts(t, d))
}

func TestExecute_NoopRewrite(t *testing.T) {
	d := testutil.BuildDoc(testutil.Block{ID: "p1", Text: "hello"})
	compiled := mustCompile(t, d, plan.Step{
		Op:    plan.OpTextRewrite,
		Where: &plan.Selector{Text: "hello"},
		Args:  plan.StepArgs{Text: "hello"},
	})

	receipt, err := ExecuteCompiledPlan(d, compiled, nil)
	require.NoError(t, err)

	assert.True(t, receipt.Success)
	assert.Equal(t, plan.EffectNoop, receipt.Steps[0].Effect)
	// Nothing changed, so the commit does not advance the revision.
	assert.Equal(t, receipt.Revision.Before, receipt.Revision.After)
	assert.Equal(t, int64(0), revision.Get(d))
}

func TestExecute_TextRewriteSpan(t *testing.T) {
	withSequentialIDs(t, "gen")
	d := testutil.BuildDoc(
		testutil.Block{ID: "p1", Text: "alpha beta"},
		testutil.Block{ID: "p2", Text: "gamma delta"},
	)
	compiled := mustCompile(t, d, plan.Step{
		Op:    plan.OpTextRewrite,
		Where: &plan.Selector{Text: "beta\ngamma"},
		Args:  plan.StepArgs{Text: "merged"},
	})

	receipt, err := ExecuteCompiledPlan(d, compiled, nil)
	require.NoError(t, err)
	assert.True(t, receipt.Success)

	// The first block's prefix and the last block's suffix survive with
	// their original identifiers; the replacement paragraph sits between
	// them with a freshly minted identifier.
	assert.Equal(t, []string{"alpha ", "merged", " delta"}, blockTexts(t, d))
	assert.Equal(t, "p1", d.Root().Children[0].BlockID())
	assert.Equal(t, "gen-1", d.Root().Children[1].BlockID())
	assert.Equal(t, "p2", d.Root().Children[2].BlockID())
}

func TestExecute_MultiParagraphRewrite(t *testing.T) {
	withSequentialIDs(t, "gen")
	d := testutil.BuildDoc(
		testutil.Block{ID: "p1", Text: "one sentence"},
		testutil.Block{ID: "p2", Text: "tail"},
	)
	compiled := mustCompile(t, d, plan.Step{
		Op:    plan.OpTextRewrite,
		Where: &plan.Selector{BlockID: "p1"},
		Args:  plan.StepArgs{Text: "first\n\nsecond"},
	})

	_, err := ExecuteCompiledPlan(d, compiled, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second", "tail"}, blockTexts(t, d))
	assert.Equal(t, "p1", d.Root().Children[0].BlockID(), "the anchor block keeps its identifier")
	assert.Equal(t, "gen-1", d.Root().Children[1].BlockID())
}

func TestExecute_MultiMatchRewriteSameBlock(t *testing.T) {
	// Both matches resolve against the pristine tree; rewriting the
	// first shifts the second, so its offsets must be remapped through
	// the transaction's position mapping before applying.
	d := testutil.BuildDoc(testutil.Block{ID: "p1", Text: "aaa bbb aaa"})
	compiled := mustCompile(t, d, plan.Step{
		Op:    plan.OpTextRewrite,
		Where: &plan.Selector{Text: "aaa"},
		Args:  plan.StepArgs{Text: "aaaa"},
	})

	receipt, err := ExecuteCompiledPlan(d, compiled, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, receipt.Steps[0].MatchCount)
	assert.Equal(t, []string{"aaaa bbb aaaa"}, blockTexts(t, d))
}

func TestExecute_MultiMatchRewriteShrinks(t *testing.T) {
	d := testutil.BuildDoc(testutil.Block{ID: "p1", Text: "aaa bbb aaa"})
	compiled := mustCompile(t, d, plan.Step{
		Op:    plan.OpTextRewrite,
		Where: &plan.Selector{Text: "aaa"},
		Args:  plan.StepArgs{Text: "c"},
	})

	receipt, err := ExecuteCompiledPlan(d, compiled, nil)
	require.NoError(t, err)

	assert.True(t, receipt.Success)
	assert.Equal(t, []string{"c bbb c"}, blockTexts(t, d))
}

func TestExecute_CrossStepOffsetRemap(t *testing.T) {
	// The second step was compiled before the first step ran; its
	// target sits after the first step's replacement in the same block.
	d := testutil.BuildDoc(testutil.Block{ID: "p1", Text: "aaa bbb ccc"})
	compiled := mustCompile(t, d,
		plan.Step{
			Op:    plan.OpTextRewrite,
			Where: &plan.Selector{Text: "bbb"},
			Args:  plan.StepArgs{Text: "b"},
		},
		plan.Step{
			Op:    plan.OpTextRewrite,
			Where: &plan.Selector{Text: "ccc"},
			Args:  plan.StepArgs{Text: "x"},
		},
	)

	receipt, err := ExecuteCompiledPlan(d, compiled, nil)
	require.NoError(t, err)

	assert.True(t, receipt.Success)
	assert.Equal(t, []string{"aaa b x"}, blockTexts(t, d))
}

func TestExecute_SpanAfterEarlierRewriteInEdgeBlock(t *testing.T) {
	// A rewrite before the span's first segment shifts both segment
	// boundaries equally: the contiguity guard passes and the segment
	// offsets are rebased onto the shrunken block.
	withSequentialIDs(t, "gen")
	d := testutil.BuildDoc(
		testutil.Block{ID: "p1", Text: "alpha beta"},
		testutil.Block{ID: "p2", Text: "gamma delta"},
	)
	compiled := mustCompile(t, d,
		plan.Step{
			Op:    plan.OpTextRewrite,
			Where: &plan.Selector{Text: "alpha"},
			Args:  plan.StepArgs{Text: "A"},
		},
		plan.Step{
			Op:    plan.OpTextRewrite,
			Where: &plan.Selector{Text: "beta\ngamma"},
			Args:  plan.StepArgs{Text: "merged"},
		},
	)

	receipt, err := ExecuteCompiledPlan(d, compiled, nil)
	require.NoError(t, err)

	assert.True(t, receipt.Success)
	assert.Equal(t, []string{"A ", "merged", " delta"}, blockTexts(t, d))
}

func TestExecute_FormatApplyAfterRewriteInSameBlock(t *testing.T) {
	d := testutil.BuildDoc(testutil.Block{ID: "p1", Text: "pay in 30 days now"})
	compiled := mustCompile(t, d,
		plan.Step{
			Op:    plan.OpTextRewrite,
			Where: &plan.Selector{Text: "30 days"},
			Args:  plan.StepArgs{Text: "45 business days"},
		},
		plan.Step{
			Op:    plan.OpFormatApply,
			Where: &plan.Selector{Text: "now"},
			Args:  plan.StepArgs{Marks: []doc.Mark{{Type: "bold"}}},
		},
	)

	_, err := ExecuteCompiledPlan(d, compiled, nil)
	require.NoError(t, err)

	block := d.Root().Children[0]
	assert.Equal(t, "pay in 45 business days now", block.Text())
	last := block.Inline[len(block.Inline)-1]
	assert.Equal(t, "now", last.Text)
	require.Len(t, last.Marks, 1)
	assert.Equal(t, "bold", last.Marks[0].Type)
}

func TestExecute_FormatApply(t *testing.T) {
	d := testutil.BuildDoc(testutil.Block{ID: "p1", Text: "the quick fox"})
	compiled := mustCompile(t, d, plan.Step{
		Op:    plan.OpFormatApply,
		Where: &plan.Selector{Text: "quick"},
		Args:  plan.StepArgs{Marks: []doc.Mark{{Type: "bold"}}},
	})

	receipt, err := ExecuteCompiledPlan(d, compiled, nil)
	require.NoError(t, err)
	assert.Equal(t, plan.EffectChanged, receipt.Steps[0].Effect)

	block := d.Root().Children[0]
	require.Len(t, block.Inline, 3)
	assert.Empty(t, block.Inline[0].Marks)
	assert.Equal(t, "quick", block.Inline[1].Text)
	require.Len(t, block.Inline[1].Marks, 1)
	assert.Equal(t, "bold", block.Inline[1].Marks[0].Type)
	assert.Empty(t, block.Inline[2].Marks)
}

func TestExecute_FormatApplyAlreadyPresent(t *testing.T) {
	bold := doc.Mark{Type: "bold"}
	d := testutil.BuildDoc(testutil.Block{
		ID:    "p1",
		Spans: []doc.Span{{Text: "shouty", Marks: []doc.Mark{bold}}},
	})
	compiled := mustCompile(t, d, plan.Step{
		Op:    plan.OpFormatApply,
		Where: &plan.Selector{Text: "shouty"},
		Args:  plan.StepArgs{Marks: []doc.Mark{bold}},
	})

	receipt, err := ExecuteCompiledPlan(d, compiled, nil)
	require.NoError(t, err)
	assert.Equal(t, plan.EffectNoop, receipt.Steps[0].Effect)
	assert.Equal(t, int64(0), revision.Get(d))
}

func TestExecute_CreateParagraphAfter(t *testing.T) {
	withSequentialIDs(t, "gen")
	d := testutil.BuildDoc(
		testutil.Block{ID: "p1", Text: "intro"},
		testutil.Block{ID: "p2", Text: "outro"},
	)
	compiled := mustCompile(t, d, plan.Step{
		Op:    plan.OpCreateParagraph,
		Where: &plan.Selector{BlockID: "p1"},
		Args:  plan.StepArgs{Text: "body one\n\nbody two", Position: "after"},
	})

	receipt, err := ExecuteCompiledPlan(d, compiled, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"intro", "body one", "body two", "outro"}, blockTexts(t, d))
	assert.Equal(t, map[string]any{"created_block_ids": []string{"gen-1", "gen-2"}}, receipt.Steps[0].Data)
}

func TestExecute_CreateHeadingBefore(t *testing.T) {
	withSequentialIDs(t, "gen")
	d := testutil.BuildDoc(testutil.Block{ID: "p1", Text: "body"})
	compiled := mustCompile(t, d, plan.Step{
		Op:    plan.OpCreateHeading,
		Where: &plan.Selector{BlockID: "p1"},
		Args:  plan.StepArgs{Text: "Title", Position: "before", Level: 2},
	})

	_, err := ExecuteCompiledPlan(d, compiled, nil)
	require.NoError(t, err)

	heading := d.Root().Children[0]
	assert.Equal(t, "heading", heading.Type)
	assert.Equal(t, "Title", heading.Text())
	assert.Equal(t, 2, heading.Attrs["level"])
	assert.Equal(t, "body", d.Root().Children[1].Text())
}

func TestExecute_CreateDuplicateIDGuard(t *testing.T) {
	d := testutil.BuildDoc(
		testutil.Block{ID: "p1", Text: "intro"},
		testutil.Block{ID: "p2", Text: "outro"},
	)
	compiled := mustCompile(t, d, plan.Step{
		Op:    plan.OpCreateParagraph,
		Where: &plan.Selector{BlockID: "p1"},
		Args: plan.StepArgs{
			Text:  "clone",
			Attrs: map[string]any{doc.AttrBlockID: "p2"},
		},
	})

	_, err := ExecuteCompiledPlan(d, compiled, nil)
	require.Error(t, err)
	assert.True(t, plan.IsCode(err, plan.ErrCodeInternal))

	pe, ok := plan.AsError(err)
	require.True(t, ok)
	assert.Equal(t, []string{"p2"}, pe.Details["duplicateBlockIds"])

	// The failed plan commits nothing.
	assert.Equal(t, []string{"intro", "outro"}, blockTexts(t, d))
	assert.Equal(t, int64(0), revision.Get(d))
}

func TestExecute_RevisionDrift(t *testing.T) {
	d := testutil.BuildDoc(testutil.Block{ID: "p1", Text: "hello world"})

	stale := mustCompile(t, d, plan.Step{
		Op:    plan.OpTextRewrite,
		Where: &plan.Selector{Text: "world"},
		Args:  plan.StepArgs{Text: "there"},
	})
	fresh := mustCompile(t, d, plan.Step{
		Op:    plan.OpTextRewrite,
		Where: &plan.Selector{Text: "hello"},
		Args:  plan.StepArgs{Text: "goodbye"},
	})

	_, err := ExecuteCompiledPlan(d, fresh, nil)
	require.NoError(t, err)

	_, err = ExecuteCompiledPlan(d, stale, nil)
	require.Error(t, err)
	assert.True(t, plan.IsRevisionError(err))

	pe, ok := plan.AsError(err)
	require.True(t, ok)
	assert.Equal(t, int64(0), pe.Details["compiled_revision"])
	assert.Equal(t, int64(1), pe.Details["current_revision"])
	assert.Contains(t, pe.Details["remediation"], "recompile")

	// The stale plan performed zero commits.
	assert.Equal(t, []string{"goodbye world"}, blockTexts(t, d))
	assert.Equal(t, int64(1), revision.Get(d))
}

func TestExecute_AssertAgainstPostMutationState(t *testing.T) {
	d := testutil.BuildDoc(testutil.Block{ID: "p1", Text: "draft wording"})
	one := 1
	compiled := mustCompile(t, d,
		plan.Step{
			Op:    plan.OpTextRewrite,
			Where: &plan.Selector{Text: "draft"},
			Args:  plan.StepArgs{Text: "final"},
		},
		plan.Step{
			Op:     plan.OpAssert,
			Where:  &plan.Selector{Text: "final wording"},
			Expect: &plan.Expectation{Count: &one},
		},
	)

	receipt, err := ExecuteCompiledPlan(d, compiled, nil)
	require.NoError(t, err)

	require.Len(t, receipt.Steps, 2)
	assert.Equal(t, plan.EffectAssertPassed, receipt.Steps[1].Effect)
	assert.Equal(t, []string{"final wording"}, blockTexts(t, d))
}

func TestExecute_FailedAssertRollsBackEverything(t *testing.T) {
	d := testutil.BuildDoc(testutil.Block{ID: "p1", Text: "hello world"})
	compiled := mustCompile(t, d,
		plan.Step{
			Op:    plan.OpTextRewrite,
			Where: &plan.Selector{Text: "world"},
			Args:  plan.StepArgs{Text: "there"},
		},
		plan.Step{
			Op:     plan.OpAssert,
			Where:  &plan.Selector{Text: "no such text"},
			Expect: &plan.Expectation{Require: plan.RequireAll},
		},
	)

	_, err := ExecuteCompiledPlan(d, compiled, nil)
	require.Error(t, err)
	assert.True(t, plan.IsPreconditionError(err))

	// The mutation ran inside the transaction but was never committed.
	assert.Equal(t, []string{"hello world"}, blockTexts(t, d))
	assert.Equal(t, int64(0), revision.Get(d))
}

func TestExecute_AssertFailureAsReceipt(t *testing.T) {
	d := testutil.BuildDoc(testutil.Block{ID: "p1", Text: "hello world"})
	two := 2
	compiled := mustCompile(t, d,
		plan.Step{
			ID:    "rewrite",
			Op:    plan.OpTextRewrite,
			Where: &plan.Selector{Text: "world"},
			Args:  plan.StepArgs{Text: "there"},
		},
		plan.Step{
			ID:     "check",
			Op:     plan.OpAssert,
			Where:  &plan.Selector{Text: "there"},
			Expect: &plan.Expectation{Count: &two},
		},
	)

	throw := false
	receipt, err := ExecuteCompiledPlan(d, compiled, &Options{ThrowOnAssertFailure: &throw})
	require.NoError(t, err)

	assert.False(t, receipt.Success)
	require.NotNil(t, receipt.Failure)
	assert.Equal(t, plan.ErrCodePreconditionFailed, receipt.Failure.Code)
	assert.Equal(t, []string{"check"}, receipt.Failure.Details["failed_steps"])
	assert.Equal(t, plan.EffectAssertFailed, receipt.Steps[1].Effect)
	assert.Equal(t, receipt.Revision.Before, receipt.Revision.After)

	assert.Equal(t, []string{"hello world"}, blockTexts(t, d))
}

func TestExecute_ScopedAssert(t *testing.T) {
	root := &doc.Node{Type: "doc", Children: []*doc.Node{
		testutil.Container("table", "t1",
			testutil.BuildBlock(testutil.Block{ID: "p1", Text: "cell one"}),
			testutil.BuildBlock(testutil.Block{ID: "p2", Text: "cell two"}),
		),
		testutil.BuildBlock(testutil.Block{ID: "p3", Text: "outside"}),
	}}
	d := doc.New(root)
	two := 2
	compiled := mustCompile(t, d, plan.Step{
		Op:     plan.OpAssert,
		Where:  &plan.Selector{NodeType: "paragraph", Within: &plan.Scope{BlockID: "t1"}},
		Expect: &plan.Expectation{Count: &two},
	})

	receipt, err := ExecuteCompiledPlan(d, compiled, nil)
	require.NoError(t, err)
	assert.Equal(t, plan.EffectAssertPassed, receipt.Steps[0].Effect)
	assert.Equal(t, 2, receipt.Steps[0].MatchCount)
}

func TestExecute_AssertMissingScopeFails(t *testing.T) {
	d := testutil.BuildDoc(testutil.Block{ID: "p1", Text: "hello"})
	compiled := mustCompile(t, d, plan.Step{
		Op:     plan.OpAssert,
		Where:  &plan.Selector{NodeType: "paragraph", Within: &plan.Scope{BlockID: "ghost"}},
		Expect: &plan.Expectation{Require: plan.RequireAll},
	})

	throw := false
	receipt, err := ExecuteCompiledPlan(d, compiled, &Options{ThrowOnAssertFailure: &throw})
	require.NoError(t, err)
	assert.False(t, receipt.Success)
	assert.Equal(t, plan.EffectAssertFailed, receipt.Steps[0].Effect)
}

func TestExecute_DryRun(t *testing.T) {
	d := testutil.BuildDoc(testutil.Block{ID: "p1", Text: "hello world"})
	compiled := mustCompile(t, d, plan.Step{
		Op:    plan.OpTextRewrite,
		Where: &plan.Selector{Text: "world"},
		Args:  plan.StepArgs{Text: "there"},
	})

	receipt, err := ExecuteCompiledPlan(d, compiled, &Options{DryRun: true})
	require.NoError(t, err)

	assert.True(t, receipt.Success)
	assert.Equal(t, plan.EffectChanged, receipt.Steps[0].Effect)
	assert.Equal(t, receipt.Revision.Before, receipt.Revision.After)
	assert.Equal(t, []string{"hello world"}, blockTexts(t, d))
	assert.Equal(t, int64(0), revision.Get(d))

	// The same plan can still run for real afterwards.
	receipt, err = ExecuteCompiledPlan(d, compiled, nil)
	require.NoError(t, err)
	assert.True(t, receipt.Success)
	assert.Equal(t, []string{"hello there"}, blockTexts(t, d))
}

func TestExecute_UnsupportedOperation(t *testing.T) {
	d := testutil.BuildDoc(testutil.Block{ID: "p1", Text: "hello"})
	compiled := &plan.CompiledPlan{
		MutationSteps: []plan.CompiledStep{{Step: plan.Step{ID: "s1", Op: "document.shred"}}},
	}

	_, err := ExecuteCompiledPlan(d, compiled, nil)
	require.Error(t, err)
	assert.True(t, plan.IsCode(err, plan.ErrCodeUnsupportedOperation))
}

func TestRegistry_CustomExecutor(t *testing.T) {
	t.Cleanup(RestoreBuiltins)

	called := false
	RegisterStepExecutor("custom.op", func(
		_ *doc.Node, _ *doc.Transaction, step plan.Step, _ []plan.CompiledTarget, _ *doc.Mapping,
	) (plan.StepOutcome, error) {
		called = true
		return plan.StepOutcome{StepID: step.ID, Effect: plan.EffectNoop}, nil
	})
	require.True(t, HasStepExecutor("custom.op"))

	d := testutil.BuildDoc(testutil.Block{ID: "p1", Text: "hello"})
	compiled := &plan.CompiledPlan{
		MutationSteps: []plan.CompiledStep{{Step: plan.Step{ID: "s1", Op: "custom.op"}}},
	}
	receipt, err := ExecuteCompiledPlan(d, compiled, nil)
	require.NoError(t, err)
	assert.True(t, called)
	assert.True(t, receipt.Success)

	ClearExecutorRegistry()
	assert.False(t, HasStepExecutor(plan.OpTextRewrite))
}
