package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wasimrehman05/superdoc-sub008/internal/plan"
	"github.com/wasimrehman05/superdoc-sub008/internal/planfile"
)

// ValidateResult summarizes a statically valid plan file.
type ValidateResult struct {
	Plan          string `json:"plan,omitempty"`
	Document      string `json:"document,omitempty"`
	MutationSteps int    `json:"mutation_steps"`
	AssertSteps   int    `json:"assert_steps"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <plan.cue>",
		Short: "Statically validate a plan file",
		Long: `Parse a CUE plan file and check its structure: known operations,
well-formed selectors, and consistent arguments. No document is needed;
selector resolution happens at compile time.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, planPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	pf, err := planfile.LoadFile(planPath)
	if err != nil {
		formatter.Error(ErrCodeParse, err.Error(), nil)
		return &ExitError{Code: ExitCommandError, Message: "plan file is invalid", Err: err}
	}

	result := ValidateResult{Plan: pf.Name, Document: pf.Document}
	for _, step := range pf.Steps {
		if err := validateStep(step); err != nil {
			formatter.Error(string(plan.ErrCodeInvalidInput), err.Error(), nil)
			return &ExitError{Code: ExitFailure, Message: "plan file is invalid", Err: err}
		}
		if step.IsAssert() {
			result.AssertSteps++
		} else {
			result.MutationSteps++
		}
	}

	if opts.Format == "json" {
		return formatter.SuccessJSON(result)
	}
	fmt.Fprintf(formatter.Writer, "plan %q is valid: %d mutation step(s), %d assert step(s)\n",
		pf.Name, result.MutationSteps, result.AssertSteps)
	return nil
}

func validateStep(step plan.Step) error {
	switch step.Op {
	case plan.OpTextRewrite, plan.OpFormatApply, plan.OpCreateParagraph, plan.OpCreateHeading, plan.OpAssert:
	default:
		return fmt.Errorf("step %q: unknown operation %q", step.ID, step.Op)
	}
	if step.Where == nil {
		return fmt.Errorf("step %q: missing where clause", step.ID)
	}
	if step.IsAssert() && step.Expect == nil {
		return fmt.Errorf("step %q: assert step needs an expectation", step.ID)
	}
	if !step.IsAssert() && step.Expect != nil {
		return fmt.Errorf("step %q: only assert steps carry expectations", step.ID)
	}
	return nil
}
