package plan

// Effect categorizes what one step did.
type Effect string

const (
	EffectChanged      Effect = "changed"
	EffectNoop         Effect = "noop"
	EffectAssertPassed Effect = "assert_passed"
	EffectAssertFailed Effect = "assert_failed"
)

// StepOutcome is one step's contribution to a receipt.
type StepOutcome struct {
	StepID     string         `json:"step_id"`
	Effect     Effect         `json:"effect"`
	MatchCount int            `json:"match_count,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
}

// RevisionPair samples the document revision around an execution.
type RevisionPair struct {
	Before int64 `json:"before"`
	After  int64 `json:"after"`
}

// Receipt is the structured result of executing a compiled plan.
type Receipt struct {
	Success  bool          `json:"success"`
	Steps    []StepOutcome `json:"steps"`
	Revision RevisionPair  `json:"revision"`
	Failure  *Error        `json:"failure,omitempty"`
}
