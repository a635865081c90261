package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tokenforge/emissary/internal/authority"
)

// NewHandoverCommand creates the handover command.
func NewHandoverCommand(rootOpts *RootOptions) *cobra.Command {
	var as string

	cmd := &cobra.Command{
		Use:   "handover <new-authority>",
		Short: "Hand issuance authority to another account",
		Long: `Transfer issuance authority from the current holder to another
account. Only the current authority may hand over; the change is
durable before it takes effect.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHandover(rootOpts, as, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&as, "as", "", "calling account (required)")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func runHandover(opts *RootOptions, as, newOwner string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	a, err := openApp(opts.Config)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Gate.TransferOwnership(context.Background(), as, newOwner); err != nil {
		code := ErrCodeGeneric
		if errors.Is(err, authority.ErrNotOwner) {
			code = ErrCodeUnauthorized
		} else if errors.Is(err, authority.ErrInvalidOwner) {
			code = ErrCodeInvalidAccount
		}
		_ = formatter.Error(code, err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]string{"authority": newOwner})
	}
	fmt.Fprintf(formatter.Writer, "Authority handed over: %s -> %s\n", as, newOwner)
	return nil
}
