package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tokenforge/emissary/internal/schedule"
)

// IssueResult is the payload reported after a successful issuance.
type IssueResult struct {
	RecordID    string    `json:"record_id"`
	Cycle       int       `json:"cycle"`
	Amount      uint64    `json:"amount"`
	To          string    `json:"to"`
	IssuedAt    time.Time `json:"issued_at"`
	TotalIssued uint64    `json:"total_issued"`
}

// NewIssueCommand creates the issue command.
func NewIssueCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		as string
		at string
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Trigger the next scheduled issuance",
		Long: `Attempt the next scheduled issuance as the given caller.

Advances at most one cycle per invocation; when several intervals have
elapsed, run issue repeatedly to catch up. Fails when the caller is not
the issuance authority, the next cycle is not yet due, or the schedule
is exhausted.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIssue(rootOpts, as, at, cmd)
		},
	}

	cmd.Flags().StringVar(&as, "as", "", "calling account (required)")
	cmd.Flags().StringVar(&at, "at", "", "issuance time (RFC3339, default now)")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func runIssue(opts *RootOptions, as, at string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	now, err := parseAt(at)
	if err != nil {
		return err
	}

	a, err := openApp(opts.Config)
	if err != nil {
		return err
	}
	defer a.Close()

	iss, err := a.Scheduler.TryIssue(context.Background(), as, now)
	if err != nil {
		var details interface{}
		var schedErr *schedule.Error
		if errors.As(err, &schedErr) && len(schedErr.Details) > 0 {
			details = schedErr.Details
		}
		_ = formatter.Error(scheduleErrorCode(err), err.Error(), details)
		return NewExitError(ExitFailure, err.Error())
	}

	result := IssueResult{
		RecordID:    iss.Record.ID,
		Cycle:       iss.Cycle,
		Amount:      iss.Amount,
		To:          iss.Record.To,
		IssuedAt:    iss.Record.Time,
		TotalIssued: a.Scheduler.State().TotalIssued,
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "Cycle %d issued: %s to %s (total issued %s)\n",
		result.Cycle, FormatAmount(result.Amount), result.To, FormatAmount(result.TotalIssued))
	return nil
}
