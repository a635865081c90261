package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tokenforge/emissary/internal/authority"
	"github.com/tokenforge/emissary/internal/config"
	"github.com/tokenforge/emissary/internal/ledger"
	"github.com/tokenforge/emissary/internal/schedule"
	"github.com/tokenforge/emissary/internal/store"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric         = "E001" // Generic/unknown error
	ErrCodeConfig          = "E002" // Config load or schema failure
	ErrCodeStore           = "E003" // Database error
	ErrCodeNoDeployment    = "E004" // Store has no deployment yet
	ErrCodeAlreadyDeployed = "E005" // Store already holds a deployment
	ErrCodeBadTime         = "E006" // Unparseable --at value

	// Issuance errors, mapped from the engine's typed codes.
	ErrCodeInvalidConfiguration = "E101"
	ErrCodeUnauthorized         = "E102"
	ErrCodeScheduleExhausted    = "E103"
	ErrCodeNotYetDue            = "E104"
	ErrCodeSupplyCapExceeded    = "E105"

	// Ledger errors.
	ErrCodeInsufficientFunds     = "E111"
	ErrCodeInsufficientAllowance = "E112"
	ErrCodeInvalidAccount        = "E113"
)

// app bundles the opened collaborators a command works against.
type app struct {
	Config    config.Config
	Store     *store.Store
	Ledger    *ledger.Ledger
	Gate      *authority.Gate
	Scheduler *schedule.Scheduler
}

func (a *app) Close() {
	if a.Store != nil {
		a.Store.Close()
	}
}

// loadConfig loads and schema-checks the config file. Violations are
// command errors; issue/info against a broken file should not get as
// far as the database.
func loadConfig(path string) (config.Config, error) {
	cfg, violations, err := config.Load(path)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "loading config", err)
	}
	if len(violations) > 0 {
		return config.Config{}, NewExitError(ExitCommandError,
			fmt.Sprintf("%s: %s", ErrCodeConfig, violations[0].Error()))
	}
	return cfg, nil
}

// openApp opens the store named by the config and resumes the deployed
// scheduler. Fails with ErrCodeNoDeployment when init has not run.
func openApp(configPath string) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "opening database", err)
	}

	dep, err := s.LoadDeployment(context.Background())
	if errors.Is(err, store.ErrNoDeployment) {
		s.Close()
		return nil, NewExitError(ExitCommandError,
			fmt.Sprintf("%s: no deployment in %s (run init first)", ErrCodeNoDeployment, cfg.DBPath))
	}
	if err != nil {
		s.Close()
		return nil, WrapExitError(ExitCommandError, "loading deployment", err)
	}

	gate, err := authority.New(dep.Authority, s)
	if err != nil {
		s.Close()
		return nil, WrapExitError(ExitCommandError, "restoring authority", err)
	}

	led := ledger.New(s.DB())
	sched, err := schedule.Resume(dep.State, gate, led, s, schedule.UUIDv7Generator{})
	if err != nil {
		s.Close()
		return nil, WrapExitError(ExitCommandError, "resuming schedule", err)
	}

	return &app{Config: cfg, Store: s, Ledger: led, Gate: gate, Scheduler: sched}, nil
}

// scheduleErrorCode maps an engine error to a CLI error code.
func scheduleErrorCode(err error) string {
	switch schedule.CodeOf(err) {
	case schedule.ErrCodeInvalidConfiguration:
		return ErrCodeInvalidConfiguration
	case schedule.ErrCodeUnauthorized:
		return ErrCodeUnauthorized
	case schedule.ErrCodeScheduleExhausted:
		return ErrCodeScheduleExhausted
	case schedule.ErrCodeNotYetDue:
		return ErrCodeNotYetDue
	case schedule.ErrCodeSupplyCapExceeded:
		return ErrCodeSupplyCapExceeded
	default:
		return ErrCodeGeneric
	}
}

// ledgerErrorCode maps a ledger error to a CLI error code.
func ledgerErrorCode(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return ErrCodeInsufficientFunds
	case errors.Is(err, ledger.ErrInsufficientAllowance):
		return ErrCodeInsufficientAllowance
	case errors.Is(err, ledger.ErrInvalidAccount):
		return ErrCodeInvalidAccount
	default:
		return ErrCodeGeneric
	}
}

// parseAt parses an --at flag. Empty means the current wall clock;
// everything the engine does takes the instant explicitly, so this is
// the only place the system clock is read.
func parseAt(at string) (time.Time, error) {
	if at == "" {
		return time.Now().UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return time.Time{}, NewExitError(ExitCommandError,
			fmt.Sprintf("%s: invalid --at %q (want RFC3339, e.g. 2030-01-01T00:00:00Z)", ErrCodeBadTime, at))
	}
	return ts.UTC(), nil
}
