package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// BalanceResult is the payload for the balance command.
type BalanceResult struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

// NewBalanceCommand creates the balance command.
func NewBalanceCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "balance <account>",
		Short:         "Show an account balance",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBalance(rootOpts, args[0], cmd)
		},
	}
}

func runBalance(opts *RootOptions, account string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	a, err := openApp(opts.Config)
	if err != nil {
		return err
	}
	defer a.Close()

	bal, err := a.Ledger.BalanceOf(context.Background(), account)
	if err != nil {
		_ = formatter.Error(ledgerErrorCode(err), err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}

	if formatter.Format == "json" {
		return formatter.Success(BalanceResult{Account: account, Balance: bal})
	}
	fmt.Fprintf(formatter.Writer, "%s: %s\n", account, FormatAmount(bal))
	return nil
}

// NewTransferCommand creates the transfer command.
func NewTransferCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "transfer <from> <to> <amount>",
		Short:         "Move units between accounts",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			return runLedgerOp(rootOpts, cmd, func(a *app) error {
				return a.Ledger.Transfer(context.Background(), args[0], args[1], amount)
			}, fmt.Sprintf("Transferred %s: %s -> %s", FormatAmount(amount), args[0], args[1]))
		},
	}
}

// NewApproveCommand creates the approve command.
func NewApproveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "approve <owner> <spender> <amount>",
		Short:         "Set a spender's allowance on an owner's balance",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			return runLedgerOp(rootOpts, cmd, func(a *app) error {
				return a.Ledger.Approve(context.Background(), args[0], args[1], amount)
			}, fmt.Sprintf("Approved %s: %s may spend from %s", FormatAmount(amount), args[1], args[0]))
		},
	}
}

// NewTransferFromCommand creates the transfer-from command.
func NewTransferFromCommand(rootOpts *RootOptions) *cobra.Command {
	var as string

	cmd := &cobra.Command{
		Use:           "transfer-from <owner> <to> <amount>",
		Short:         "Spend an allowance on behalf of an owner",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			return runLedgerOp(rootOpts, cmd, func(a *app) error {
				return a.Ledger.TransferFrom(context.Background(), as, args[0], args[1], amount)
			}, fmt.Sprintf("Transferred %s: %s -> %s (by %s)", FormatAmount(amount), args[0], args[1], as))
		},
	}

	cmd.Flags().StringVar(&as, "as", "", "spending account (required)")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

// NewBurnCommand creates the burn command.
func NewBurnCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "burn <account> <amount>",
		Short: "Permanently destroy units from an account",
		Long: `Destroy units from an account's balance. Burned units leave
circulation but stay counted against the issuance cap; burning never
frees capacity for future issuance.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return runLedgerOp(rootOpts, cmd, func(a *app) error {
				return a.Ledger.Burn(context.Background(), args[0], amount)
			}, fmt.Sprintf("Burned %s from %s", FormatAmount(amount), args[0]))
		},
	}
}

// runLedgerOp opens the app, runs one ledger mutation, and reports it.
func runLedgerOp(opts *RootOptions, cmd *cobra.Command, op func(*app) error, okMsg string) error {
	formatter := newFormatter(opts, cmd)

	a, err := openApp(opts.Config)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := op(a); err != nil {
		_ = formatter.Error(ledgerErrorCode(err), err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]string{"result": okMsg})
	}
	fmt.Fprintln(formatter.Writer, okMsg)
	return nil
}

func parseAmount(s string) (uint64, error) {
	amount, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("%s: invalid amount %q", ErrCodeGeneric, s))
	}
	return amount, nil
}
