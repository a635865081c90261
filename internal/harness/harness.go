package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/tokenforge/emissary/internal/authority"
	"github.com/tokenforge/emissary/internal/ledger"
	"github.com/tokenforge/emissary/internal/schedule"
	"github.com/tokenforge/emissary/internal/store"
	"github.com/tokenforge/emissary/internal/testutil"
)

// scenarioEpoch is the fixed deployment time every scenario starts at.
// Scenarios advance from here; wall time never enters a trace.
var scenarioEpoch = time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)

// Result holds a completed scenario run.
type Result struct {
	Trace []string
}

func (r *Result) add(format string, args ...interface{}) {
	r.Trace = append(r.Trace, fmt.Sprintf(format, args...))
}

// Run executes a scenario against a fresh in-memory engine.
//
// The returned trace has one line per observable event: the deployment
// grant, every issuance attempt with its outcome, ledger mutations, and
// requested state snapshots. Runs are fully deterministic.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("harness: open store: %w", err)
	}
	defer st.Close()

	gate, err := authority.New(scenario.Authority, st)
	if err != nil {
		return nil, fmt.Errorf("harness: %w", err)
	}

	// One ID per possible issuance: the grant plus nine cycles.
	ids := schedule.NewFixedGenerator(
		"rec-0", "rec-1", "rec-2", "rec-3", "rec-4",
		"rec-5", "rec-6", "rec-7", "rec-8", "rec-9",
	)

	clock := testutil.NewFakeClock(scenarioEpoch)
	led := ledger.New(st.DB())
	ctx := context.Background()
	result := &Result{}

	sched, err := schedule.New(ctx, schedule.Params{
		MaxSupply:         scenario.MaxSupply,
		InitialBps:        scenario.InitialPercentBps,
		DeploymentTime:    scenarioEpoch,
		FoundationAccount: scenario.FoundationAccount,
		Deployer:          scenario.Deployer,
	}, gate, led, st.DeploymentSink(scenario.Authority), ids)
	if err != nil {
		result.add("deploy result=%s", schedule.CodeOf(err))
		return result, nil
	}
	result.add("deploy deployer=%s amount=%d total_issued=%d",
		scenario.Deployer, sched.State().TotalIssued, sched.State().TotalIssued)

	for i, step := range scenario.Steps {
		switch step.Op {
		case "advance":
			d, _ := time.ParseDuration(step.By)
			clock.Advance(d)
			result.add("advance by=%s", step.By)

		case "issue":
			iss, err := sched.TryIssue(ctx, step.As, clock.Now())
			if err != nil {
				result.add("issue caller=%s result=%s", step.As, schedule.CodeOf(err))
				continue
			}
			state := sched.State()
			result.add("issue caller=%s result=ok cycle=%d amount=%d total_issued=%d remaining=%d",
				step.As, iss.Cycle, iss.Amount, state.TotalIssued, sched.RemainingSchedulableSupply())

		case "transfer":
			outcome := "ok"
			if err := led.Transfer(ctx, step.From, step.To, step.Amount); err != nil {
				outcome = "error"
			}
			result.add("transfer from=%s to=%s amount=%d result=%s",
				step.From, step.To, step.Amount, outcome)

		case "burn":
			outcome := "ok"
			if err := led.Burn(ctx, step.Account, step.Amount); err != nil {
				outcome = "error"
			}
			circulating, cErr := led.CirculatingSupply(ctx)
			if cErr != nil {
				return nil, fmt.Errorf("harness: step %d: %w", i, cErr)
			}
			result.add("burn account=%s amount=%d result=%s circulating=%d",
				step.Account, step.Amount, outcome, circulating)

		case "state":
			info, err := sched.Info(ctx, clock.Now())
			if err != nil {
				return nil, fmt.Errorf("harness: step %d: %w", i, err)
			}
			result.add("state cycle=%d issued=%d circulating=%d remaining=%d exhausted=%t due=%t",
				info.Cycle, info.TotalIssued, info.CirculatingSupply, info.Remaining,
				info.Exhausted, info.Due)

		default:
			return nil, fmt.Errorf("harness: step %d: unknown op %q", i, step.Op)
		}
	}

	return result, nil
}
