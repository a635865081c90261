package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NextResult is the payload for the next command.
type NextResult struct {
	Exhausted bool       `json:"exhausted"`
	Cycle     int        `json:"cycle,omitempty"`
	Amount    *uint64    `json:"amount,omitempty"`
	Due       *time.Time `json:"due,omitempty"`
}

// NewNextCommand creates the next command.
func NewNextCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "next",
		Short:         "Show the next scheduled issuance",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNext(rootOpts, cmd)
		},
	}
}

func runNext(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	a, err := openApp(opts.Config)
	if err != nil {
		return err
	}
	defer a.Close()

	due, ok := a.Scheduler.NextIssuanceTime()
	if !ok {
		if formatter.Format == "json" {
			return formatter.Success(NextResult{Exhausted: true})
		}
		fmt.Fprintln(formatter.Writer, "Schedule exhausted; no further issuances.")
		return nil
	}
	amount, _ := a.Scheduler.NextIssuanceAmount()

	result := NextResult{
		Cycle:  a.Scheduler.State().CurrentCycle + 1,
		Amount: &amount,
		Due:    &due,
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "Cycle %d: %s due %s\n",
		result.Cycle, FormatAmount(amount), due.Format(time.RFC3339))
	return nil
}
