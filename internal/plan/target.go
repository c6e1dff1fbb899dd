package plan

import "github.com/wasimrehman05/superdoc-sub008/internal/doc"

// TargetKind discriminates the CompiledTarget union.
type TargetKind string

const (
	// TargetRange is a single-block target.
	TargetRange TargetKind = "range"

	// TargetSpan is a multi-block target with ordered segments.
	TargetSpan TargetKind = "span"
)

// Run is a maximal sub-range of a block's text with one constant mark
// set. Offsets are rune offsets within the block.
type Run struct {
	From      int        `json:"from"`
	To        int        `json:"to"`
	CharCount int        `json:"char_count"`
	Marks     []doc.Mark `json:"marks,omitempty"`
}

// CapturedStyle is the coalesced run list over exactly one matched
// range. IsUniform is true iff there is exactly one run.
type CapturedStyle struct {
	Runs      []Run `json:"runs"`
	IsUniform bool  `json:"is_uniform"`
}

// CompiledTarget is the address-resolved location of one step's
// mutation. Exactly one of Range/Span is set, per Kind. Consumers
// switch on Kind and treat unknown kinds as an internal error, so new
// target kinds cannot be silently ignored.
type CompiledTarget struct {
	Kind  TargetKind   `json:"kind"`
	Range *RangeTarget `json:"range,omitempty"`
	Span  *SpanTarget  `json:"span,omitempty"`
}

// RangeTarget addresses a sub-range of one block. Invariant:
// AbsTo-AbsFrom == To-From.
type RangeTarget struct {
	StepID        string         `json:"step_id"`
	Op            string         `json:"op"`
	BlockID       string         `json:"block_id"`
	From          int            `json:"from"`
	To            int            `json:"to"`
	AbsFrom       int            `json:"abs_from"`
	AbsTo         int            `json:"abs_to"`
	Text          string         `json:"text"`
	Marks         []doc.Mark     `json:"marks,omitempty"`
	CapturedStyle *CapturedStyle `json:"captured_style,omitempty"`
}

// Segment is one block's contribution to a Span target.
type Segment struct {
	BlockID string `json:"block_id"`
	From    int    `json:"from"`
	To      int    `json:"to"`
	AbsFrom int    `json:"abs_from"`
	AbsTo   int    `json:"abs_to"`
}

// SpanTarget addresses a contiguous multi-block match. Segments are
// ordered by document position.
type SpanTarget struct {
	StepID                 string          `json:"step_id"`
	Op                     string          `json:"op"`
	MatchID                string          `json:"match_id"`
	Segments               []Segment       `json:"segments"`
	Text                   string          `json:"text"`
	Marks                  []doc.Mark      `json:"marks,omitempty"`
	CapturedStyleBySegment []CapturedStyle `json:"captured_style_by_segment,omitempty"`
}

// CompiledStep pairs a step with its resolved targets.
type CompiledStep struct {
	Step    Step             `json:"step"`
	Targets []CompiledTarget `json:"targets"`
}

// CompiledPlan is the immutable unit handed to the executor. It is
// valid only against the revision it was compiled under; executing it
// after the document changed raises REVISION_CHANGED_SINCE_COMPILE.
type CompiledPlan struct {
	MutationSteps    []CompiledStep `json:"mutation_steps"`
	AssertSteps      []CompiledStep `json:"assert_steps"`
	CompiledRevision int64          `json:"compiled_revision"`
}
