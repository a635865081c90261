// Package watch runs the long-lived issuance daemon.
//
// The engine itself is passive; something has to call it when a cycle
// comes due. The watcher sleeps until the next scheduled instant,
// triggers the issuance as the configured caller, and goes back to
// sleep. It owns the only loop in the system that reads a clock.
package watch

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tokenforge/emissary/internal/schedule"
)

// Issuer is the slice of the scheduler the watcher drives.
// *schedule.Scheduler satisfies this.
type Issuer interface {
	TryIssue(ctx context.Context, caller string, now time.Time) (schedule.Issuance, error)
	NextIssuanceTime() (time.Time, bool)
}

// Options configures a watch run.
type Options struct {
	// Caller is the account issuances are attempted as. Must hold
	// issuance authority or every attempt fails.
	Caller string

	// Poll bounds the retry delay after a failed or premature attempt.
	// Defaults to one minute.
	Poll time.Duration

	// Now supplies the current instant. Defaults to time.Now; tests
	// inject a fake.
	Now func() time.Time

	// Log receives structured events for every attempt.
	Log zerolog.Logger
}

// Run drives the scheduler until the schedule is exhausted or ctx is
// canceled. Returns nil on exhaustion, ctx.Err() on cancellation.
// Unauthorized callers fail fast rather than retrying forever.
func Run(ctx context.Context, issuer Issuer, opts Options) error {
	if opts.Poll <= 0 {
		opts.Poll = time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Log.With().Str("caller", opts.Caller).Logger()

	for {
		due, ok := issuer.NextIssuanceTime()
		if !ok {
			log.Info().Msg("schedule exhausted, watcher done")
			return nil
		}

		now := opts.Now()
		if wait := due.Sub(now); wait > 0 {
			log.Info().
				Time("due", due).
				Dur("wait", wait).
				Msg("sleeping until next cycle")
			if err := sleep(ctx, wait); err != nil {
				return err
			}
			now = opts.Now()
		}

		iss, err := issuer.TryIssue(ctx, opts.Caller, now)
		switch {
		case err == nil:
			log.Info().
				Int("cycle", iss.Cycle).
				Uint64("amount", iss.Amount).
				Str("to", iss.Record.To).
				Str("record_id", iss.Record.ID).
				Msg("cycle issued")
			// Loop immediately; more cycles may already be due.

		case schedule.IsExhausted(err):
			log.Info().Msg("schedule exhausted, watcher done")
			return nil

		case schedule.IsUnauthorized(err):
			// Retrying cannot help until authority changes.
			log.Error().Err(err).Msg("caller not authorized, stopping")
			return err

		case schedule.IsNotYetDue(err):
			// Clock skew between our sleep and the engine's check.
			log.Debug().Err(err).Msg("not yet due, polling")
			if err := sleep(ctx, opts.Poll); err != nil {
				return err
			}

		default:
			// Storage or cap errors may be transient; keep trying.
			log.Error().Err(err).Dur("retry_in", opts.Poll).Msg("issuance failed")
			if err := sleep(ctx, opts.Poll); err != nil {
				return err
			}
		}
	}
}

// sleep waits for d, honoring cancellation.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
