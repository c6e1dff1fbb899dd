package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wasimrehman05/superdoc-sub008/internal/store"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	Document string
	Limit    int
	ID       string
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal <journal.db>",
		Short: "Inspect the receipt journal",
		Long: `List receipts from a journal database, newest first, or show one
receipt in full with --id.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Document, "document", "", "only list receipts for this document")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum receipts to list (0 for all)")
	cmd.Flags().StringVar(&opts.ID, "id", "", "show one receipt by id")

	return cmd
}

func runJournal(opts *JournalOptions, dbPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(dbPath); err != nil {
		formatter.Error(ErrCodeIO, fmt.Sprintf("journal not found: %s", dbPath), nil)
		return &ExitError{Code: ExitCommandError, Message: "journal not found", Err: err}
	}

	s, err := store.Open(dbPath)
	if err != nil {
		formatter.Error(ErrCodeIO, err.Error(), nil)
		return &ExitError{Code: ExitCommandError, Message: "open journal", Err: err}
	}
	defer s.Close()

	if opts.ID != "" {
		rec, err := s.ReadReceipt(cmd.Context(), opts.ID)
		if err != nil {
			formatter.Error(ErrCodeIO, err.Error(), nil)
			return &ExitError{Code: ExitFailure, Message: "read receipt", Err: err}
		}
		if opts.Format == "json" {
			return formatter.SuccessJSON(rec)
		}
		printRecord(formatter, rec, true)
		return nil
	}

	records, err := s.ListReceipts(cmd.Context(), opts.Document, opts.Limit)
	if err != nil {
		formatter.Error(ErrCodeIO, err.Error(), nil)
		return &ExitError{Code: ExitFailure, Message: "list receipts", Err: err}
	}
	if opts.Format == "json" {
		return formatter.SuccessJSON(records)
	}
	if len(records) == 0 {
		fmt.Fprintln(formatter.Writer, "no receipts")
		return nil
	}
	for _, rec := range records {
		printRecord(formatter, rec, false)
	}
	return nil
}

func printRecord(formatter *OutputFormatter, rec store.Record, full bool) {
	status := "ok"
	if !rec.Success {
		status = "failed"
	}
	fmt.Fprintf(formatter.Writer, "%s  %s  %-6s  %s", rec.CreatedAt.Format(time.RFC3339), rec.ID, status, rec.Document)
	if rec.PlanName != "" {
		fmt.Fprintf(formatter.Writer, "  (%s)", rec.PlanName)
	}
	fmt.Fprintln(formatter.Writer)

	if full && rec.Receipt != nil {
		fmt.Fprintf(formatter.Writer, "  revision %d -> %d\n", rec.Receipt.Revision.Before, rec.Receipt.Revision.After)
		for _, step := range rec.Receipt.Steps {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n", step.StepID, step.Effect)
		}
		if rec.Receipt.Failure != nil {
			fmt.Fprintf(formatter.Writer, "  failure: %s\n", rec.Receipt.Failure.Error())
		}
	}
}
