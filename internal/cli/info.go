package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewInfoCommand creates the info command.
func NewInfoCommand(rootOpts *RootOptions) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the schedule state",
		Long: `Report the current cycle, issued and circulating totals, remaining
schedulable supply, and whether the next issuance is due at the given
time.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(rootOpts, at, cmd)
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "evaluation time (RFC3339, default now)")
	return cmd
}

func runInfo(opts *RootOptions, at string, cmd *cobra.Command) error {
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

	info, err := a.Scheduler.Info(context.Background(), now)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	if formatter.Format == "json" {
		return formatter.Success(info)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%s (%s)\n", a.Config.Name, a.Config.Symbol)
	fmt.Fprintf(w, "  cycle:        %d\n", info.Cycle)
	fmt.Fprintf(w, "  issued:       %s / %s\n",
		FormatAmount(info.TotalIssued), FormatAmount(a.Scheduler.State().MaxSupply))
	fmt.Fprintf(w, "  circulating:  %s\n", FormatAmount(info.CirculatingSupply))
	fmt.Fprintf(w, "  remaining:    %s\n", FormatAmount(info.Remaining))
	if info.Exhausted {
		fmt.Fprintf(w, "  schedule:     exhausted\n")
	} else {
		fmt.Fprintf(w, "  next amount:  %s\n", FormatAmount(*info.NextAmount))
		fmt.Fprintf(w, "  next due:     %s", info.NextTime.Format(time.RFC3339))
		if info.Due {
			fmt.Fprintf(w, " (due now)")
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "  authority:    %s\n", a.Gate.Owner())
	return nil
}
