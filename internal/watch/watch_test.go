package watch

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenforge/emissary/internal/schedule"
	"github.com/tokenforge/emissary/internal/testutil"
)

// scriptedIssuer feeds the watcher a fixed sequence of outcomes.
type scriptedIssuer struct {
	clock   *testutil.FakeClock
	due     []time.Time // next issuance times, consumed per loop
	results []error     // TryIssue outcomes, consumed per call
	calls   int
	callers []string
}

func (s *scriptedIssuer) NextIssuanceTime() (time.Time, bool) {
	if len(s.due) == 0 {
		return time.Time{}, false
	}
	return s.due[0], true
}

func (s *scriptedIssuer) TryIssue(_ context.Context, caller string, now time.Time) (schedule.Issuance, error) {
	s.calls++
	s.callers = append(s.callers, caller)
	err := s.results[0]
	s.results = s.results[1:]
	if err != nil {
		return schedule.Issuance{}, err
	}
	s.due = s.due[1:]
	return schedule.Issuance{
		Cycle:  s.calls,
		Amount: 20,
		Record: schedule.Record{ID: "rec", To: "foundation", Time: now},
	}, nil
}

// typedError produces a genuine engine error by driving a real
// scheduler into the named failure.
func typedError(t *testing.T, gate schedule.Authorizer, now time.Time) error {
	t.Helper()
	sched, err := schedule.Resume(schedule.State{
		DeploymentTime:    time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		CurrentCycle:      0,
		TotalIssued:       30,
		MaxSupply:         200,
		FoundationAccount: "foundation",
	}, gate, nil, nil, schedule.NewFixedGenerator("r1"))
	require.NoError(t, err)
	_, err = sched.TryIssue(context.Background(), "caller", now)
	require.Error(t, err)
	return err
}

type allowAll struct{}

func (allowAll) IsAuthorized(string) bool { return true }

type denyAll struct{}

func (denyAll) IsAuthorized(string) bool { return false }

// TestRun_IssuesUntilExhausted tests the happy path: two due cycles,
// then exhaustion ends the run.
func TestRun_IssuesUntilExhausted(t *testing.T) {
	start := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := testutil.NewFakeClock(start)
	issuer := &scriptedIssuer{
		clock:   clock,
		due:     []time.Time{start.Add(-time.Hour), start.Add(-time.Minute)},
		results: []error{nil, nil},
	}

	err := Run(context.Background(), issuer, Options{
		Caller: "authority",
		Poll:   time.Millisecond,
		Now:    clock.Now,
		Log:    zerolog.Nop(),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, issuer.calls)
	assert.Equal(t, []string{"authority", "authority"}, issuer.callers)
}

// TestRun_RetriesTransientFailure tests that a failed attempt is
// retried after the poll interval.
func TestRun_RetriesTransientFailure(t *testing.T) {
	start := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := testutil.NewFakeClock(start)
	issuer := &scriptedIssuer{
		clock:   clock,
		due:     []time.Time{start.Add(-time.Hour)},
		results: []error{assert.AnError, nil},
	}

	err := Run(context.Background(), issuer, Options{
		Caller: "authority",
		Poll:   time.Millisecond,
		Now:    clock.Now,
		Log:    zerolog.Nop(),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, issuer.calls)
}

// TestRun_StopsOnUnauthorized tests fail-fast on an unauthorized caller.
func TestRun_StopsOnUnauthorized(t *testing.T) {
	unauthorized := typedError(t, denyAll{}, time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC))
	require.True(t, schedule.IsUnauthorized(unauthorized))

	start := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := testutil.NewFakeClock(start)
	issuer := &scriptedIssuer{
		clock:   clock,
		due:     []time.Time{start.Add(-time.Hour)},
		results: []error{unauthorized},
	}

	err := Run(context.Background(), issuer, Options{
		Caller: "intruder",
		Poll:   time.Millisecond,
		Now:    clock.Now,
		Log:    zerolog.Nop(),
	})
	assert.True(t, schedule.IsUnauthorized(err))
	assert.Equal(t, 1, issuer.calls)
}

// TestRun_PollsWhenNotYetDue tests the skew path: a NotYetDue result
// polls instead of stopping.
func TestRun_PollsWhenNotYetDue(t *testing.T) {
	start := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := testutil.NewFakeClock(start)
	premature := typedError(t, allowAll{}, start)
	require.True(t, schedule.IsNotYetDue(premature))

	issuer := &scriptedIssuer{
		clock:   clock,
		due:     []time.Time{start.Add(-time.Minute)},
		results: []error{premature, nil},
	}

	err := Run(context.Background(), issuer, Options{
		Caller: "authority",
		Poll:   time.Millisecond,
		Now:    clock.Now,
		Log:    zerolog.Nop(),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, issuer.calls)
}

// TestRun_Cancellation tests that a canceled context interrupts the
// sleep before the distant next cycle.
func TestRun_Cancellation(t *testing.T) {
	start := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := testutil.NewFakeClock(start)
	issuer := &scriptedIssuer{
		clock: clock,
		due:   []time.Time{start.Add(24 * time.Hour)},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, issuer, Options{
			Caller: "authority",
			Now:    clock.Now,
			Log:    zerolog.Nop(),
		})
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop on cancellation")
	}
	assert.Zero(t, issuer.calls)
}

// TestRun_EmptySchedule tests immediate exit on an exhausted schedule.
func TestRun_EmptySchedule(t *testing.T) {
	issuer := &scriptedIssuer{}
	err := Run(context.Background(), issuer, Options{Caller: "authority", Log: zerolog.Nop()})
	require.NoError(t, err)
	assert.Zero(t, issuer.calls)
}
