package engine

import (
	"github.com/wasimrehman05/superdoc-sub008/internal/doc"
	"github.com/wasimrehman05/superdoc-sub008/internal/plan"
)

// remapRange translates a compiled absolute range through the ops
// applied so far in the transaction and rebases it onto the block's
// current position, yielding fresh block-relative rune offsets.
// Compiled offsets are valid only against the tree the plan was
// compiled from; any earlier replacement in the same block shifts the
// text under them. The contiguity guard does not cover this case: it
// checks gaps between span segments, not shifts inside a block.
func remapRange(tx *doc.Transaction, mapping *doc.Mapping, stepID, blockID string, absFrom, absTo int) (*doc.Node, int, int, error) {
	block, pos, ok := doc.FindBlock(tx.Root(), blockID)
	if !ok {
		return nil, 0, 0, plan.NewError(plan.ErrCodeTargetNotFound, "block %q not found", blockID).
			WithStep(stepID).WithDetail("block_id", blockID)
	}
	from := mapping.Map(absFrom) - (pos + 1)
	to := mapping.Map(absTo) - (pos + 1)
	if from < 0 || to < from || to > block.TextLen() {
		return nil, 0, 0, plan.NewError(plan.ErrCodeInvalidTarget,
			"remapped range [%d, %d) out of bounds for block %q (len %d)",
			from, to, blockID, block.TextLen()).
			WithStep(stepID).WithDetail("block_id", blockID)
	}
	return block, from, to, nil
}
