package engine

import (
	"strings"

	"github.com/google/uuid"

	"github.com/wasimrehman05/superdoc-sub008/internal/compiler"
	"github.com/wasimrehman05/superdoc-sub008/internal/doc"
	"github.com/wasimrehman05/superdoc-sub008/internal/plan"
	"github.com/wasimrehman05/superdoc-sub008/internal/style"
)

// executeTextRewrite handles text.rewrite for Range and Span targets.
// The effect is noop iff the resulting text equals the original text
// exactly; a true no-op records no transaction mutation.
func executeTextRewrite(
	_ *doc.Node,
	tx *doc.Transaction,
	step plan.Step,
	targets []plan.CompiledTarget,
	mapping *doc.Mapping,
) (plan.StepOutcome, error) {
	paragraphs, err := compiler.NormalizeReplacementText(step.Args.Text)
	if err != nil {
		if pe, ok := plan.AsError(err); ok {
			return plan.StepOutcome{}, pe.WithStep(step.ID)
		}
		return plan.StepOutcome{}, err
	}

	changed := false
	for _, t := range targets {
		switch t.Kind {
		case plan.TargetRange:
			didChange, err := rewriteRange(tx, step, t.Range, paragraphs, mapping)
			if err != nil {
				return plan.StepOutcome{}, err
			}
			changed = changed || didChange
		case plan.TargetSpan:
			didChange, err := rewriteSpan(tx, step, t.Span, paragraphs, mapping)
			if err != nil {
				return plan.StepOutcome{}, err
			}
			changed = changed || didChange
		default:
			return plan.StepOutcome{}, plan.NewError(plan.ErrCodeInternal,
				"unknown target kind %q", t.Kind).WithStep(step.ID).WithDetail("source", "text.rewrite")
		}
	}

	effect := plan.EffectNoop
	if changed {
		effect = plan.EffectChanged
	}
	return plan.StepOutcome{StepID: step.ID, Effect: effect, MatchCount: len(targets)}, nil
}

func rewriteRange(tx *doc.Transaction, step plan.Step, rt *plan.RangeTarget, paragraphs []string, mapping *doc.Mapping) (bool, error) {
	anchor, from, to, err := remapRange(tx, mapping, step.ID, rt.BlockID, rt.AbsFrom, rt.AbsTo)
	if err != nil {
		return false, err
	}

	captured := rt.CapturedStyle
	if captured == nil {
		// Target built outside the normal compile path; capture now.
		c := style.Capture(anchor, from, to)
		captured = &c
	}
	marks, err := style.ResolveInline(captured, step.Args.Style, step.ID)
	if err != nil {
		return false, err
	}

	if len(paragraphs) == 1 && paragraphs[0] == rt.Text {
		return false, nil
	}

	anchorAttrs := anchor.Attrs
	anchorType := anchor.Type

	if err := tx.ReplaceTextRange(rt.BlockID, from, to, paragraphs[0], marks); err != nil {
		return false, plan.NewError(plan.ErrCodeInvalidTarget, "rewrite %q: %v", rt.BlockID, err).WithStep(step.ID)
	}
	anchorID := rt.BlockID
	for _, text := range paragraphs[1:] {
		node := inheritedBlock(anchorType, anchorAttrs, text, marks)
		if _, err := tx.InsertBlock(anchorID, false, node); err != nil {
			return false, plan.NewError(plan.ErrCodeInvalidTarget, "insert paragraph after %q: %v", anchorID, err).WithStep(step.ID)
		}
		anchorID = node.BlockID()
	}
	return true, nil
}

func rewriteSpan(tx *doc.Transaction, step plan.Step, st *plan.SpanTarget, paragraphs []string, mapping *doc.Mapping) (bool, error) {
	if err := checkSpanContiguity(st, mapping, step.ID); err != nil {
		return false, err
	}
	if strings.Join(paragraphs, "\n") == st.Text {
		return false, nil
	}

	marks, err := style.ResolveInline(mergeCapturedStyles(st.CapturedStyleBySegment), step.Args.Style, step.ID)
	if err != nil {
		return false, err
	}

	segs := make([]doc.SpanSegment, len(st.Segments))
	blockAttrs := make([]map[string]any, len(st.Segments))
	blockTypes := make([]string, len(st.Segments))
	for i, seg := range st.Segments {
		block, from, to, err := remapRange(tx, mapping, step.ID, seg.BlockID, seg.AbsFrom, seg.AbsTo)
		if err != nil {
			return false, err
		}
		segs[i] = doc.SpanSegment{BlockID: seg.BlockID, From: from, To: to}
		blockAttrs[i] = block.Attrs
		blockTypes[i] = block.Type
	}

	// Each replacement paragraph inherits the paragraph-level attrs of
	// the originally matched block at the same relative position.
	paraNodes := make([]*doc.Node, len(paragraphs))
	for i, text := range paragraphs {
		src := i
		if src >= len(st.Segments) {
			src = len(st.Segments) - 1
		}
		paraNodes[i] = inheritedBlock(blockTypes[src], blockAttrs[src], text, marks)
	}

	if err := tx.ReplaceSpan(segs, paraNodes); err != nil {
		return false, plan.NewError(plan.ErrCodeInvalidTarget, "span rewrite: %v", err).WithStep(step.ID)
	}
	return true, nil
}

// mergeCapturedStyles flattens per-segment captures into one capture
// for policy resolution across the whole span.
func mergeCapturedStyles(captures []plan.CapturedStyle) *plan.CapturedStyle {
	var runs []plan.Run
	for _, c := range captures {
		runs = append(runs, c.Runs...)
	}
	uniform := len(runs) > 0
	for i := 1; i < len(runs); i++ {
		if !doc.MarksEqual(runs[0].Marks, runs[i].Marks) {
			uniform = false
			break
		}
	}
	// Segment-local offsets never abut across segments, so uniformity
	// here means every run carries the same marks.
	return &plan.CapturedStyle{Runs: runs, IsUniform: uniform}
}

// inheritedBlock builds a replacement block that inherits the source
// block's paragraph-level attributes but never its stable identifier:
// a fresh identifier is minted to avoid collisions.
func inheritedBlock(nodeType string, srcAttrs map[string]any, text string, marks []doc.Mark) *doc.Node {
	attrs := make(map[string]any, len(srcAttrs)+1)
	for k, v := range srcAttrs {
		if k == doc.AttrBlockID {
			continue
		}
		attrs[k] = v
	}
	attrs[doc.AttrBlockID] = MintBlockID()
	node := &doc.Node{Type: nodeType, Attrs: attrs}
	if text != "" {
		node.Inline = []doc.Span{{Text: text, Marks: doc.CloneMarks(marks)}}
	}
	return node
}

// MintBlockID mints a fresh stable identifier for a new block.
var MintBlockID = func() string {
	return uuid.NewString()
}
