package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wasimrehman05/superdoc-sub008/internal/compiler"
	"github.com/wasimrehman05/superdoc-sub008/internal/doc"
	"github.com/wasimrehman05/superdoc-sub008/internal/plan"
	"github.com/wasimrehman05/superdoc-sub008/internal/planfile"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	DocPath string
}

// CompiledStepSummary is one step's compile-time resolution.
type CompiledStepSummary struct {
	StepID  string `json:"step_id"`
	Op      string `json:"op"`
	Targets int    `json:"targets"`
	Spans   int    `json:"spans"`
}

// CompileResult summarizes a compiled plan.
type CompileResult struct {
	Plan             string                `json:"plan,omitempty"`
	CompiledRevision int64                 `json:"compiled_revision"`
	MutationSteps    []CompiledStepSummary `json:"mutation_steps"`
	AssertSteps      int                   `json:"assert_steps"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <plan.cue>",
		Short: "Compile a plan against a document",
		Long: `Resolve a plan's selectors against a document and report the
compiled targets without executing anything. A compiled plan is valid
only against the document revision it was compiled under.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompileCmd(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.DocPath, "doc", "d", "", "document JSON file (required)")
	cmd.MarkFlagRequired("doc")

	return cmd
}

func runCompileCmd(opts *CompileOptions, planPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	pf, d, err := loadPlanAndDoc(planPath, opts.DocPath)
	if err != nil {
		return reportError(formatter, err)
	}
	formatter.VerboseLog("Compiling %d step(s) against %s", len(pf.Steps), opts.DocPath)

	compiled, err := compiler.CompilePlan(pf.Steps, d)
	if err != nil {
		return reportError(formatter, err)
	}

	result := CompileResult{
		Plan:             pf.Name,
		CompiledRevision: compiled.CompiledRevision,
		MutationSteps:    []CompiledStepSummary{},
		AssertSteps:      len(compiled.AssertSteps),
	}
	for _, cs := range compiled.MutationSteps {
		summary := CompiledStepSummary{StepID: cs.Step.ID, Op: cs.Step.Op, Targets: len(cs.Targets)}
		for _, target := range cs.Targets {
			if target.Kind == plan.TargetSpan {
				summary.Spans++
			}
		}
		result.MutationSteps = append(result.MutationSteps, summary)
	}

	if opts.Format == "json" {
		return formatter.SuccessJSON(result)
	}
	fmt.Fprintf(formatter.Writer, "compiled %q at revision %d\n", pf.Name, result.CompiledRevision)
	for _, s := range result.MutationSteps {
		fmt.Fprintf(formatter.Writer, "  %s (%s): %d target(s), %d span(s)\n", s.StepID, s.Op, s.Targets, s.Spans)
	}
	if result.AssertSteps > 0 {
		fmt.Fprintf(formatter.Writer, "  %d assert step(s) resolve at execution time\n", result.AssertSteps)
	}
	return nil
}

// loadPlanAndDoc loads a plan file and a document fixture.
func loadPlanAndDoc(planPath, docPath string) (*planfile.PlanFile, *doc.Doc, error) {
	pf, err := planfile.LoadFile(planPath)
	if err != nil {
		return nil, nil, &ExitError{Code: ExitCommandError, Message: "load plan", Err: err}
	}
	data, err := os.ReadFile(docPath)
	if err != nil {
		return nil, nil, &ExitError{Code: ExitCommandError, Message: "read document", Err: err}
	}
	d, err := doc.UnmarshalDocument(data)
	if err != nil {
		return nil, nil, &ExitError{Code: ExitCommandError, Message: "parse document", Err: err}
	}
	return pf, d, nil
}

// reportError renders an error through the formatter and converts it
// into an ExitError. Engine errors keep their code and details.
func reportError(formatter *OutputFormatter, err error) error {
	if pe, ok := plan.AsError(err); ok {
		formatter.Error(string(pe.Code), pe.Message, pe.Details)
		return &ExitError{Code: ExitFailure, Message: "plan failed", Err: err}
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		formatter.Error(ErrCodeIO, exitErr.Error(), nil)
		return exitErr
	}
	formatter.Error(string(plan.ErrCodeInternal), err.Error(), nil)
	return &ExitError{Code: ExitFailure, Message: "plan failed", Err: err}
}
