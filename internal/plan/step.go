package plan

import "github.com/wasimrehman05/superdoc-sub008/internal/doc"

// Operation names with built-in executors.
const (
	OpTextRewrite     = "text.rewrite"
	OpFormatApply     = "format.apply"
	OpCreateParagraph = "create.paragraph"
	OpCreateHeading   = "create.heading"
	OpAssert          = "assert"
)

// Step is one high-level edit operation supplied by a planner.
type Step struct {
	ID     string       `json:"id"`
	Op     string       `json:"op"`
	Where  *Selector    `json:"where,omitempty"`
	Args   StepArgs     `json:"args,omitempty"`
	Expect *Expectation `json:"expect,omitempty"`
}

// IsAssert reports whether the step is a precondition/postcondition
// check rather than a mutation.
func (s Step) IsAssert() bool {
	return s.Op == OpAssert
}

// Selector is a step's "where" clause, resolved against the block
// index at compile time. Fields combine conjunctively.
type Selector struct {
	// Text matches a literal text occurrence. Matches spanning
	// adjacent blocks produce Span targets.
	Text string `json:"text,omitempty"`

	// NodeType matches blocks by node type (paragraph, heading, ...).
	NodeType string `json:"node_type,omitempty"`

	// BlockID matches exactly one block by stable id.
	BlockID string `json:"block_id,omitempty"`

	// Within scopes matching to the inside of one block or anchor.
	Within *Scope `json:"within,omitempty"`

	// Occurrence selects the 1-based nth match; 0 selects all.
	Occurrence int `json:"occurrence,omitempty"`
}

// Scope restricts a selector to the subtree of one block (by stable
// id) or to an inline anchor resolved to an absolute text range.
type Scope struct {
	BlockID    string `json:"block_id,omitempty"`
	AnchorText string `json:"anchor_text,omitempty"`
}

// StepArgs holds operation-specific arguments.
type StepArgs struct {
	// Text is the replacement content for text.rewrite. Runs of two or
	// more line feeds split it into multiple paragraphs.
	Text string `json:"text,omitempty"`

	// Style controls inline-style resolution for text.rewrite.
	Style *StylePolicy `json:"style,omitempty"`

	// Marks are added by format.apply.
	Marks []doc.Mark `json:"marks,omitempty"`

	// RemoveMarks lists mark types removed by format.apply.
	RemoveMarks []string `json:"remove_marks,omitempty"`

	// Position anchors create.* relative to the matched block:
	// "before" or "after" (default "after").
	Position string `json:"position,omitempty"`

	// Level is the heading level for create.heading.
	Level int `json:"level,omitempty"`

	// Attrs are extra block attributes for create.*.
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Style policy modes.
const (
	StylePreserve = "preserve"
	StyleSet      = "set"
	StyleClear    = "clear"

	// NonUniformMajority selects the mark set of the run(s) covering
	// the most characters when the captured style is not uniform.
	NonUniformMajority = "majority"
)

// StylePolicy resolves the final mark set of rewritten text against
// the style captured from the matched range.
type StylePolicy struct {
	Mode         string     `json:"mode,omitempty"`
	OnNonUniform string     `json:"on_non_uniform,omitempty"`
	Marks        []doc.Mark `json:"marks,omitempty"`
}

// Require semantics for assert steps.
const (
	RequireExactlyOne = "exactlyOne"
	RequireAll        = "all"
)

// Expectation is an assert step's expected outcome.
type Expectation struct {
	// Count is the exact expected match count.
	Count *int `json:"count,omitempty"`

	// Require is a shorthand: "exactlyOne" expects exactly one match,
	// "all" expects at least one.
	Require string `json:"require,omitempty"`
}
