package engine

import (
	"github.com/wasimrehman05/superdoc-sub008/internal/compiler"
	"github.com/wasimrehman05/superdoc-sub008/internal/doc"
	"github.com/wasimrehman05/superdoc-sub008/internal/plan"
)

// executeCreate handles create.paragraph and create.heading. The
// anchor comes from the step's first target: a Range anchors on its
// block; a Span anchors on its first segment's block for "before" and
// its last segment's block for "after". Per-segment text offsets are
// ignored for positioning: anchors are structural, and insertion
// lands on the anchor's block boundary.
//
// After insertion the whole tree is scanned for duplicate stable ids
// among text-bearing blocks; a collision is an engine bug and raises
// INTERNAL_ERROR listing the duplicates.
func executeCreate(
	_ *doc.Node,
	tx *doc.Transaction,
	step plan.Step,
	targets []plan.CompiledTarget,
	_ *doc.Mapping,
) (plan.StepOutcome, error) {
	if len(targets) == 0 {
		return plan.StepOutcome{}, plan.NewError(plan.ErrCodeTargetNotFound, "create step has no anchor").WithStep(step.ID)
	}
	before := step.Args.Position == "before"

	anchorID, err := anchorBlockID(targets[0], before, step.ID)
	if err != nil {
		return plan.StepOutcome{}, err
	}

	paragraphs, err := compiler.NormalizeReplacementText(step.Args.Text)
	if err != nil {
		if pe, ok := plan.AsError(err); ok {
			return plan.StepOutcome{}, pe.WithStep(step.ID)
		}
		return plan.StepOutcome{}, err
	}

	nodeType := "paragraph"
	if step.Op == plan.OpCreateHeading {
		nodeType = "heading"
	}

	var createdIDs []string
	insertAnchor := anchorID
	insertBefore := before
	for _, text := range paragraphs {
		node := newCreatedBlock(nodeType, step, text)
		if _, err := tx.InsertBlock(insertAnchor, insertBefore, node); err != nil {
			return plan.StepOutcome{}, plan.NewError(plan.ErrCodeTargetNotFound,
				"insert relative to %q: %v", insertAnchor, err).WithStep(step.ID)
		}
		createdIDs = append(createdIDs, node.BlockID())
		// Subsequent paragraphs chain after the one just inserted.
		insertAnchor = node.BlockID()
		insertBefore = false
	}

	if dups := doc.DuplicateBlockIDs(tx.Root()); len(dups) > 0 {
		return plan.StepOutcome{}, plan.NewError(plan.ErrCodeInternal,
			"duplicate stable block identifiers after insert").
			WithStep(step.ID).
			WithDetail("duplicateBlockIds", dups).
			WithDetail("source", "create")
	}

	return plan.StepOutcome{
		StepID:     step.ID,
		Effect:     plan.EffectChanged,
		MatchCount: len(targets),
		Data:       map[string]any{"created_block_ids": createdIDs},
	}, nil
}

func anchorBlockID(target plan.CompiledTarget, before bool, stepID string) (string, error) {
	switch target.Kind {
	case plan.TargetRange:
		return target.Range.BlockID, nil
	case plan.TargetSpan:
		segs := target.Span.Segments
		if len(segs) == 0 {
			return "", plan.NewError(plan.ErrCodeInvalidTarget, "span anchor has no segments").WithStep(stepID)
		}
		if before {
			return segs[0].BlockID, nil
		}
		return segs[len(segs)-1].BlockID, nil
	default:
		return "", plan.NewError(plan.ErrCodeInternal, "unknown target kind %q", target.Kind).
			WithStep(stepID).WithDetail("source", "create")
	}
}

func newCreatedBlock(nodeType string, step plan.Step, text string) *doc.Node {
	attrs := make(map[string]any, len(step.Args.Attrs)+2)
	for k, v := range step.Args.Attrs {
		attrs[k] = v
	}
	if _, ok := attrs[doc.AttrBlockID]; !ok {
		attrs[doc.AttrBlockID] = MintBlockID()
	}
	if nodeType == "heading" && step.Args.Level > 0 {
		attrs["level"] = step.Args.Level
	}
	node := &doc.Node{Type: nodeType, Attrs: attrs}
	if text != "" {
		node.Inline = []doc.Span{{Text: text}}
	}
	return node
}
