package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tokenforge/emissary/internal/authority"
	"github.com/tokenforge/emissary/internal/ledger"
	"github.com/tokenforge/emissary/internal/schedule"
	"github.com/tokenforge/emissary/internal/store"
)

// InitResult is the payload reported after a successful deployment.
type InitResult struct {
	Symbol       string    `json:"symbol"`
	MaxSupply    uint64    `json:"max_supply"`
	InitialGrant uint64    `json:"initial_grant"`
	Deployer     string    `json:"deployer"`
	Authority    string    `json:"authority"`
	DeployedAt   time.Time `json:"deployed_at"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Deploy the emission schedule",
		Long: `Create the deployment: open (or create) the database, record the
schedule, and apply the initial grant to the deployer. A database can
hold exactly one deployment; running init twice is an error.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, at, cmd)
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "deployment time (RFC3339, default now)")
	return cmd
}

func runInit(opts *RootOptions, at string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return err
	}
	deployTime, err := parseAt(at)
	if err != nil {
		return err
	}

	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening database", err)
	}
	defer s.Close()

	if _, err := s.LoadDeployment(context.Background()); err == nil {
		msg := fmt.Sprintf("%s already holds a deployment", cfg.DBPath)
		_ = formatter.Error(ErrCodeAlreadyDeployed, msg, nil)
		return NewExitError(ExitCommandError, msg)
	} else if !errors.Is(err, store.ErrNoDeployment) {
		return WrapExitError(ExitCommandError, "checking deployment", err)
	}

	gate, err := authority.New(cfg.Authority, s)
	if err != nil {
		return WrapExitError(ExitCommandError, "creating authority gate", err)
	}

	formatter.VerboseLog("Deploying %s at %s", cfg.Symbol, deployTime.Format(time.RFC3339))

	// The deployment sink stamps the authority into the schedule row
	// while it applies the cycle-0 grant, all in one transaction.
	sched, err := schedule.New(context.Background(), schedule.Params{
		MaxSupply:         cfg.MaxSupply,
		InitialBps:        cfg.InitialPercentBps,
		DeploymentTime:    deployTime,
		FoundationAccount: cfg.FoundationAccount,
		Deployer:          cfg.Deployer,
	}, gate, ledger.New(s.DB()), s.DeploymentSink(cfg.Authority), schedule.UUIDv7Generator{})
	if err != nil {
		_ = formatter.Error(scheduleErrorCode(err), err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}

	state := sched.State()
	result := InitResult{
		Symbol:       cfg.Symbol,
		MaxSupply:    state.MaxSupply,
		InitialGrant: state.TotalIssued,
		Deployer:     cfg.Deployer,
		Authority:    cfg.Authority,
		DeployedAt:   state.DeploymentTime,
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "Deployed %s: granted %s to %s, authority %s\n",
		cfg.Symbol, FormatAmount(result.InitialGrant), result.Deployer, result.Authority)
	return nil
}
