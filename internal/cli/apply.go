package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wasimrehman05/superdoc-sub008/internal/compiler"
	"github.com/wasimrehman05/superdoc-sub008/internal/doc"
	"github.com/wasimrehman05/superdoc-sub008/internal/engine"
	"github.com/wasimrehman05/superdoc-sub008/internal/plan"
	"github.com/wasimrehman05/superdoc-sub008/internal/store"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	DocPath     string
	OutPath     string
	JournalPath string
	DryRun      bool
	KeepGoing   bool
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <plan.cue>",
		Short: "Compile and execute a plan against a document",
		Long: `Compile a plan against a document, execute it atomically, and
write the mutated document back. Every step either succeeds or the
document is left untouched. The receipt goes to stdout; with --journal
it is also appended to a receipt journal.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.DocPath, "doc", "d", "", "document JSON file (required)")
	cmd.Flags().StringVarP(&opts.OutPath, "out", "o", "", "write the mutated document here instead of in place")
	cmd.Flags().StringVar(&opts.JournalPath, "journal", "", "append the receipt to this SQLite journal")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "execute without committing or writing")
	cmd.Flags().BoolVar(&opts.KeepGoing, "keep-going", false, "report failed asserts in the receipt instead of aborting")
	cmd.MarkFlagRequired("doc")

	return cmd
}

func runApply(opts *ApplyOptions, planPath string, cmd *cobra.Command) error {
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

	compiled, err := compiler.CompilePlan(pf.Steps, d)
	if err != nil {
		return reportError(formatter, err)
	}
	formatter.VerboseLog("Compiled %d mutation and %d assert step(s) at revision %d",
		len(compiled.MutationSteps), len(compiled.AssertSteps), compiled.CompiledRevision)

	throw := !opts.KeepGoing
	receipt, err := engine.ExecuteCompiledPlan(d, compiled, &engine.Options{
		ThrowOnAssertFailure: &throw,
		DryRun:               opts.DryRun,
	})
	if err != nil {
		return reportError(formatter, err)
	}

	if receipt.Success && !opts.DryRun {
		outPath := opts.OutPath
		if outPath == "" {
			outPath = opts.DocPath
		}
		data, err := doc.MarshalDocument(d)
		if err != nil {
			return reportError(formatter, err)
		}
		if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
			formatter.Error(ErrCodeIO, err.Error(), nil)
			return &ExitError{Code: ExitCommandError, Message: "write document", Err: err}
		}
		formatter.VerboseLog("Wrote document to %s", outPath)
	}

	if opts.JournalPath != "" {
		if err := journalReceipt(cmd, opts, pf.Name, receipt); err != nil {
			formatter.Error(ErrCodeIO, err.Error(), nil)
			return &ExitError{Code: ExitCommandError, Message: "journal receipt", Err: err}
		}
	}

	if opts.Format == "json" {
		if err := formatter.SuccessJSON(receipt); err != nil {
			return err
		}
	} else {
		printReceipt(formatter, receipt, opts.DryRun)
	}

	if !receipt.Success {
		return &ExitError{Code: ExitFailure, Message: "plan preconditions failed"}
	}
	return nil
}

func journalReceipt(cmd *cobra.Command, opts *ApplyOptions, planName string, receipt *plan.Receipt) error {
	s, err := store.Open(opts.JournalPath)
	if err != nil {
		return err
	}
	defer s.Close()

	_, err = s.WriteReceipt(cmd.Context(), store.Record{
		Document: opts.DocPath,
		PlanName: planName,
		Success:  receipt.Success,
		Receipt:  receipt,
	})
	return err
}

func printReceipt(formatter *OutputFormatter, receipt *plan.Receipt, dryRun bool) {
	status := "applied"
	if dryRun {
		status = "dry run"
	}
	if !receipt.Success {
		status = "failed"
	}
	fmt.Fprintf(formatter.Writer, "%s: revision %d -> %d\n", status, receipt.Revision.Before, receipt.Revision.After)
	for _, step := range receipt.Steps {
		fmt.Fprintf(formatter.Writer, "  %s: %s", step.StepID, step.Effect)
		if step.MatchCount > 0 {
			fmt.Fprintf(formatter.Writer, " (%d match(es))", step.MatchCount)
		}
		fmt.Fprintln(formatter.Writer)
	}
	if receipt.Failure != nil {
		fmt.Fprintf(formatter.Writer, "  failure: %s\n", receipt.Failure.Error())
	}
}
