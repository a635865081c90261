package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tokenforge/emissary/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                     `json:"valid"`
	Errors []config.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate a deployment config without touching the database",
		Long: `Validate the deployment config file against the schema.

Checks field types, ranges, and the cross-field rule that the emission
schedule sums to exactly 100% of max supply. Safe to run repeatedly;
never opens or creates the database.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, violations, err := config.Load(opts.Config)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading config", err)
	}

	formatter.VerboseLog("Loaded %s", opts.Config)

	if len(violations) > 0 {
		if formatter.Format == "json" {
			_ = formatter.Success(ValidationResult{Valid: false, Errors: violations})
		} else {
			fmt.Fprintln(formatter.Writer, "✗ Config invalid")
			fmt.Fprintln(formatter.Writer)
			for _, v := range violations {
				fmt.Fprintf(formatter.Writer, "  %s\n", v.Error())
			}
		}
		return NewExitError(ExitFailure, fmt.Sprintf("config failed with %d violation(s)", len(violations)))
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}
	fmt.Fprintf(formatter.Writer, "✓ %s valid (%s, max supply %s)\n",
		opts.Config, cfg.Symbol, FormatAmount(cfg.MaxSupply))
	return nil
}
