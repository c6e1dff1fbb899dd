// Package planfile parses declarative plan files written in CUE into
// engine steps. Uses the CUE SDK's Go API directly (not CLI
// subprocess).
package planfile

import (
	"fmt"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/wasimrehman05/superdoc-sub008/internal/doc"
	"github.com/wasimrehman05/superdoc-sub008/internal/plan"
)

// PlanFile is one parsed plan document.
type PlanFile struct {
	// Name labels the plan in receipts and journal entries.
	Name string

	// Document names the document the plan targets. Optional; the CLI
	// lets a flag override it.
	Document string

	// Steps in declaration order. Mutation and assert steps may
	// interleave; phase separation happens at compile time.
	Steps []plan.Step
}

// ParseError is a plan-file parse failure with CUE position info.
type ParseError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *ParseError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// CompilePlanFile parses a CUE value into a PlanFile. The value should
// be the plan struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`plan: { ... }`)
//	pf, err := planfile.CompilePlanFile(v.LookupPath(cue.ParsePath("plan")))
func CompilePlanFile(v cue.Value) (*PlanFile, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	pf := &PlanFile{}

	if nameVal := v.LookupPath(cue.ParsePath("name")); nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		pf.Name = name
	}

	if docVal := v.LookupPath(cue.ParsePath("document")); docVal.Exists() {
		document, err := docVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		pf.Document = document
	}

	stepsVal := v.LookupPath(cue.ParsePath("steps"))
	if !stepsVal.Exists() {
		return nil, &ParseError{Field: "steps", Message: "steps is required", Pos: v.Pos()}
	}
	iter, err := stepsVal.List()
	if err != nil {
		return nil, &ParseError{Field: "steps", Message: "steps must be a list", Pos: stepsVal.Pos()}
	}
	for iter.Next() {
		step, err := parseStep(iter.Value())
		if err != nil {
			return nil, err
		}
		pf.Steps = append(pf.Steps, step)
	}
	if len(pf.Steps) == 0 {
		return nil, &ParseError{Field: "steps", Message: "at least one step is required", Pos: stepsVal.Pos()}
	}

	return pf, nil
}

func parseStep(v cue.Value) (plan.Step, error) {
	var step plan.Step

	opVal := v.LookupPath(cue.ParsePath("op"))
	if !opVal.Exists() {
		return step, &ParseError{Field: "op", Message: "op is required", Pos: v.Pos()}
	}
	op, err := opVal.String()
	if err != nil {
		return step, formatCUEError(err)
	}
	step.Op = op

	if idVal := v.LookupPath(cue.ParsePath("id")); idVal.Exists() {
		if step.ID, err = idVal.String(); err != nil {
			return step, formatCUEError(err)
		}
	}

	if whereVal := v.LookupPath(cue.ParsePath("where")); whereVal.Exists() {
		sel, err := parseSelector(whereVal)
		if err != nil {
			return step, err
		}
		step.Where = sel
	}

	if argsVal := v.LookupPath(cue.ParsePath("args")); argsVal.Exists() {
		args, err := parseArgs(argsVal)
		if err != nil {
			return step, err
		}
		step.Args = args
	}

	if expectVal := v.LookupPath(cue.ParsePath("expect")); expectVal.Exists() {
		expect, err := parseExpectation(expectVal)
		if err != nil {
			return step, err
		}
		step.Expect = expect
	}

	return step, nil
}

func parseSelector(v cue.Value) (*plan.Selector, error) {
	sel := &plan.Selector{}
	var err error

	if textVal := v.LookupPath(cue.ParsePath("text")); textVal.Exists() {
		if sel.Text, err = textVal.String(); err != nil {
			return nil, formatCUEError(err)
		}
	}
	if typeVal := v.LookupPath(cue.ParsePath("nodeType")); typeVal.Exists() {
		if sel.NodeType, err = typeVal.String(); err != nil {
			return nil, formatCUEError(err)
		}
	}
	if idVal := v.LookupPath(cue.ParsePath("blockId")); idVal.Exists() {
		if sel.BlockID, err = idVal.String(); err != nil {
			return nil, formatCUEError(err)
		}
	}
	if occVal := v.LookupPath(cue.ParsePath("occurrence")); occVal.Exists() {
		occ, err := occVal.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if occ < 1 {
			return nil, &ParseError{Field: "where.occurrence", Message: "occurrence must be >= 1", Pos: occVal.Pos()}
		}
		sel.Occurrence = int(occ)
	}
	if withinVal := v.LookupPath(cue.ParsePath("within")); withinVal.Exists() {
		scope := &plan.Scope{}
		if idVal := withinVal.LookupPath(cue.ParsePath("blockId")); idVal.Exists() {
			if scope.BlockID, err = idVal.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		if anchorVal := withinVal.LookupPath(cue.ParsePath("anchorText")); anchorVal.Exists() {
			if scope.AnchorText, err = anchorVal.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		if scope.BlockID == "" && scope.AnchorText == "" {
			return nil, &ParseError{Field: "where.within", Message: "within needs blockId or anchorText", Pos: withinVal.Pos()}
		}
		sel.Within = scope
	}

	if sel.Text == "" && sel.NodeType == "" && sel.BlockID == "" {
		return nil, &ParseError{Field: "where", Message: "where needs text, nodeType, or blockId", Pos: v.Pos()}
	}
	return sel, nil
}

func parseArgs(v cue.Value) (plan.StepArgs, error) {
	var args plan.StepArgs
	var err error

	if textVal := v.LookupPath(cue.ParsePath("text")); textVal.Exists() {
		if args.Text, err = textVal.String(); err != nil {
			return args, formatCUEError(err)
		}
	}
	if posVal := v.LookupPath(cue.ParsePath("position")); posVal.Exists() {
		if args.Position, err = posVal.String(); err != nil {
			return args, formatCUEError(err)
		}
	}
	if levelVal := v.LookupPath(cue.ParsePath("level")); levelVal.Exists() {
		level, err := levelVal.Int64()
		if err != nil {
			return args, formatCUEError(err)
		}
		args.Level = int(level)
	}
	if marksVal := v.LookupPath(cue.ParsePath("marks")); marksVal.Exists() {
		if args.Marks, err = parseMarks(marksVal); err != nil {
			return args, err
		}
	}
	if removeVal := v.LookupPath(cue.ParsePath("removeMarks")); removeVal.Exists() {
		iter, err := removeVal.List()
		if err != nil {
			return args, &ParseError{Field: "args.removeMarks", Message: "removeMarks must be a list", Pos: removeVal.Pos()}
		}
		for iter.Next() {
			markType, err := iter.Value().String()
			if err != nil {
				return args, formatCUEError(err)
			}
			args.RemoveMarks = append(args.RemoveMarks, markType)
		}
	}
	if attrsVal := v.LookupPath(cue.ParsePath("attrs")); attrsVal.Exists() {
		attrs := map[string]any{}
		if err := attrsVal.Decode(&attrs); err != nil {
			return args, formatCUEError(err)
		}
		args.Attrs = attrs
	}
	if styleVal := v.LookupPath(cue.ParsePath("style")); styleVal.Exists() {
		style, err := parseStyle(styleVal)
		if err != nil {
			return args, err
		}
		args.Style = style
	}

	return args, nil
}

func parseStyle(v cue.Value) (*plan.StylePolicy, error) {
	policy := &plan.StylePolicy{}
	var err error

	if modeVal := v.LookupPath(cue.ParsePath("mode")); modeVal.Exists() {
		if policy.Mode, err = modeVal.String(); err != nil {
			return nil, formatCUEError(err)
		}
	}
	switch policy.Mode {
	case "", plan.StylePreserve, plan.StyleSet, plan.StyleClear:
	default:
		return nil, &ParseError{Field: "args.style.mode", Message: fmt.Sprintf("unknown style mode %q", policy.Mode), Pos: v.Pos()}
	}

	if nuVal := v.LookupPath(cue.ParsePath("onNonUniform")); nuVal.Exists() {
		if policy.OnNonUniform, err = nuVal.String(); err != nil {
			return nil, formatCUEError(err)
		}
	}
	if marksVal := v.LookupPath(cue.ParsePath("marks")); marksVal.Exists() {
		if policy.Marks, err = parseMarks(marksVal); err != nil {
			return nil, err
		}
	}
	if policy.Mode == plan.StyleSet && len(policy.Marks) == 0 {
		return nil, &ParseError{Field: "args.style", Message: "style mode \"set\" needs marks", Pos: v.Pos()}
	}
	return policy, nil
}

func parseMarks(v cue.Value) ([]doc.Mark, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &ParseError{Field: "marks", Message: "marks must be a list", Pos: v.Pos()}
	}
	var marks []doc.Mark
	for iter.Next() {
		mv := iter.Value()
		typeVal := mv.LookupPath(cue.ParsePath("type"))
		if !typeVal.Exists() {
			return nil, &ParseError{Field: "marks", Message: "mark needs a type", Pos: mv.Pos()}
		}
		markType, err := typeVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		mark := doc.Mark{Type: markType}
		if attrsVal := mv.LookupPath(cue.ParsePath("attrs")); attrsVal.Exists() {
			attrs := map[string]any{}
			if err := attrsVal.Decode(&attrs); err != nil {
				return nil, formatCUEError(err)
			}
			mark.Attrs = attrs
		}
		marks = append(marks, mark)
	}
	return marks, nil
}

func parseExpectation(v cue.Value) (*plan.Expectation, error) {
	expect := &plan.Expectation{}

	if countVal := v.LookupPath(cue.ParsePath("count")); countVal.Exists() {
		count, err := countVal.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		c := int(count)
		expect.Count = &c
	}
	if reqVal := v.LookupPath(cue.ParsePath("require")); reqVal.Exists() {
		req, err := reqVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		switch req {
		case plan.RequireExactlyOne, plan.RequireAll:
		default:
			return nil, &ParseError{Field: "expect.require", Message: fmt.Sprintf("unknown require mode %q", req), Pos: reqVal.Pos()}
		}
		expect.Require = req
	}
	if expect.Count == nil && expect.Require == "" {
		return nil, &ParseError{Field: "expect", Message: "expect needs a count or a require mode", Pos: v.Pos()}
	}
	return expect, nil
}

// formatCUEError extracts position info from a CUE error.
func formatCUEError(err error) error {
	if cueErrs := cueerrors.Errors(err); len(cueErrs) > 0 {
		first := cueErrs[0]
		return &ParseError{
			Message: first.Error(),
			Pos:     first.Position(),
		}
	}
	return err
}
