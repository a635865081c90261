package cli

import (
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tokenforge/emissary/internal/watch"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		as   string
		poll time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the issuance daemon",
		Long: `Run until the schedule is exhausted, sleeping between cycles and
triggering each issuance as it comes due. Stops cleanly on SIGINT or
SIGTERM. Logs go to stderr: human-readable in text format, structured
JSON in json format.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(rootOpts, as, poll, cmd)
		},
	}

	cmd.Flags().StringVar(&as, "as", "", "calling account (required)")
	cmd.Flags().DurationVar(&poll, "poll", time.Minute, "retry delay after a failed attempt")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func runWatch(opts *RootOptions, as string, poll time.Duration, cmd *cobra.Command) error {
	a, err := openApp(opts.Config)
	if err != nil {
		return err
	}
	defer a.Close()

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}
	var w io.Writer = cmd.ErrOrStderr()
	if opts.Format == "text" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	log := zerolog.New(w).Level(level).With().
		Timestamp().
		Str("symbol", a.Config.Symbol).
		Logger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := watch.Run(ctx, a.Scheduler, watch.Options{
		Caller: as,
		Poll:   poll,
		Log:    log,
	}); err != nil {
		return NewExitError(ExitFailure, err.Error())
	}
	return nil
}
