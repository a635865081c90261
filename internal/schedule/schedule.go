package schedule

import (
	"context"
	"math/bits"
	"sync"
	"time"
)

// MaxCycle is the terminal schedule cycle. Cycle 0 is the initial grant;
// cycles 1 through MaxCycle are time-gated emissions.
const MaxCycle = 9

// Interval is the fixed duration between scheduled emissions.
const Interval = 180 * 24 * time.Hour

// Basis-point constants for the fixed schedule shape: 10% of max supply
// for cycles 1-8, 5% for the final cycle. These are deliberately
// independent of the config validator's constants; the supply-cap check
// in TryIssue is the backstop if the two are configured inconsistently.
const (
	bpsDenominator  = 10_000
	regularCycleBps = 1_000
	finalCycleBps   = 500
)

// State is the schedule state machine's complete state.
//
// DeploymentTime, MaxSupply, and FoundationAccount are set once at
// construction and never mutated. CurrentCycle and TotalIssued advance
// together, exactly once per successful issuance.
type State struct {
	DeploymentTime    time.Time
	CurrentCycle      int
	TotalIssued       uint64
	MaxSupply         uint64
	FoundationAccount string
}

// Params configures a new deployment.
type Params struct {
	MaxSupply         uint64
	InitialBps        uint64 // initial grant, in basis points of MaxSupply
	DeploymentTime    time.Time
	FoundationAccount string // destination of all scheduled emissions
	Deployer          string // receives the initial grant
}

// Authorizer is the access gate for the mutating operation.
// Must return true for exactly one designated account at a time.
type Authorizer interface {
	IsAuthorized(caller string) bool
}

// Ledger exposes the circulating-supply figure for read-only reporting.
// Never consulted for cap enforcement: the scheduler's own TotalIssued
// bookkeeping is the source of truth there, and the two diverge as soon
// as units are burned.
type Ledger interface {
	CirculatingSupply(ctx context.Context) (uint64, error)
}

// IssuanceSink applies a successful issuance.
//
// The contract is all-or-nothing: credit rec.Amount to rec.To, append
// rec to the issuance log, and persist the post-issuance state - in a
// single transaction. The scheduler commits its in-memory state only
// after the sink returns nil, so a sink failure leaves the schedule
// byte-for-byte unchanged.
type IssuanceSink interface {
	ApplyIssuance(ctx context.Context, rec Record, next State) error
}

// Scheduler owns schedule state and the decision of whether and how much
// may be issued at a given time.
//
// State-mutating calls are serialized by an internal mutex; queries take
// the same lock so they always observe the latest applied issuance.
type Scheduler struct {
	mu     sync.Mutex
	state  State
	gate   Authorizer
	ledger Ledger
	sink   IssuanceSink
	ids    RecordIDGenerator
}

// Issuance is the successful result of TryIssue: the applied cycle and
// amount, plus the emitted log record.
type Issuance struct {
	Cycle  int
	Amount uint64
	Record Record
}

// New creates a fresh deployment and applies the initial grant.
//
// The initial amount is MaxSupply * InitialBps / 10000 with truncating
// integer division. Cycle 0 is entered atomically with the grant: the
// sink credits the deployer and appends the cycle-0 record before the
// scheduler is returned.
//
// Fails with INVALID_CONFIGURATION if the foundation account or deployer
// is unset, MaxSupply is zero, or InitialBps exceeds 100%.
func New(
	ctx context.Context,
	p Params,
	gate Authorizer,
	ledger Ledger,
	sink IssuanceSink,
	ids RecordIDGenerator,
) (*Scheduler, error) {
	if p.FoundationAccount == "" {
		return nil, newInvalidConfiguration(0, "foundation account is unset")
	}
	if p.Deployer == "" {
		return nil, newInvalidConfiguration(0, "deployer account is unset")
	}
	if p.MaxSupply == 0 {
		return nil, newInvalidConfiguration(0, "max supply is zero")
	}
	if p.InitialBps > bpsDenominator {
		return nil, newInvalidConfiguration(0, "initial grant exceeds 100% of max supply")
	}

	initialAmount := bpsOf(p.MaxSupply, p.InitialBps)
	state := State{
		DeploymentTime:    p.DeploymentTime,
		CurrentCycle:      0,
		TotalIssued:       initialAmount,
		MaxSupply:         p.MaxSupply,
		FoundationAccount: p.FoundationAccount,
	}

	rec := Record{
		ID:     ids.Generate(),
		Cycle:  0,
		To:     p.Deployer,
		Amount: initialAmount,
		Time:   p.DeploymentTime,
	}
	if err := sink.ApplyIssuance(ctx, rec, state); err != nil {
		return nil, err
	}

	return &Scheduler{
		state:  state,
		gate:   gate,
		ledger: ledger,
		sink:   sink,
		ids:    ids,
	}, nil
}

// Resume reconstructs a scheduler from previously persisted state.
// Used when reopening an existing deployment.
//
// Fails with INVALID_CONFIGURATION if the loaded state violates the
// schedule invariants (cycle out of range, issued beyond the cap).
func Resume(
	state State,
	gate Authorizer,
	ledger Ledger,
	sink IssuanceSink,
	ids RecordIDGenerator,
) (*Scheduler, error) {
	if state.FoundationAccount == "" {
		return nil, newInvalidConfiguration(state.CurrentCycle, "foundation account is unset")
	}
	if state.CurrentCycle < 0 || state.CurrentCycle > MaxCycle {
		return nil, newInvalidConfiguration(state.CurrentCycle, "cycle out of range")
	}
	if state.TotalIssued > state.MaxSupply {
		return nil, newInvalidConfiguration(state.CurrentCycle, "total issued exceeds max supply")
	}

	return &Scheduler{
		state:  state,
		gate:   gate,
		ledger: ledger,
		sink:   sink,
		ids:    ids,
	}, nil
}

// TryIssue attempts to advance the schedule by exactly one cycle.
//
// `now` is read once by the caller and used consistently throughout the
// operation. When many intervals have elapsed, each call still advances
// a single cycle; catching up requires one call per cycle.
//
// On success the sink has credited the foundation account, the record is
// in the issuance log, and the returned Issuance holds the applied cycle
// and amount. On any failure the schedule state is unchanged.
func (s *Scheduler) TryIssue(ctx context.Context, caller string, now time.Time) (Issuance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.gate.IsAuthorized(caller) {
		return Issuance{}, newUnauthorized(s.state.CurrentCycle, caller)
	}
	if s.state.CurrentCycle >= MaxCycle {
		return Issuance{}, newScheduleExhausted()
	}
	if now.Before(s.state.DeploymentTime) {
		return Issuance{}, newInvalidConfiguration(s.state.CurrentCycle, "now precedes deployment time")
	}

	elapsed := now.Sub(s.state.DeploymentTime)
	targetCycle := int(elapsed / Interval)
	if targetCycle <= s.state.CurrentCycle {
		return Issuance{}, newNotYetDue(s.state.CurrentCycle, s.nextTimeLocked())
	}

	cycle := s.state.CurrentCycle + 1
	amount := amountForCycle(s.state.MaxSupply, cycle)

	// Unreachable when the fixed percentages sum to 100%, enforced
	// rather than assumed.
	if amount > s.state.MaxSupply-s.state.TotalIssued {
		return Issuance{}, newSupplyCapExceeded(cycle, s.state.TotalIssued, amount, s.state.MaxSupply)
	}

	rec := Record{
		ID:     s.ids.Generate(),
		Cycle:  cycle,
		To:     s.state.FoundationAccount,
		Amount: amount,
		Time:   now,
	}
	next := s.state
	next.CurrentCycle = cycle
	next.TotalIssued += amount

	if err := s.sink.ApplyIssuance(ctx, rec, next); err != nil {
		return Issuance{}, err
	}
	s.state = next

	return Issuance{Cycle: cycle, Amount: amount, Record: rec}, nil
}

// State returns a snapshot of the current schedule state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// NextIssuanceTime returns the time at which the next cycle becomes due.
// ok is false once the schedule is exhausted.
func (s *Scheduler) NextIssuanceTime() (next time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.CurrentCycle >= MaxCycle {
		return time.Time{}, false
	}
	return s.nextTimeLocked(), true
}

// NextIssuanceAmount returns the amount the next successful TryIssue
// would emit. ok is false once the schedule is exhausted.
func (s *Scheduler) NextIssuanceAmount() (amount uint64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.CurrentCycle >= MaxCycle {
		return 0, false
	}
	return amountForCycle(s.state.MaxSupply, s.state.CurrentCycle+1), true
}

// RemainingSchedulableSupply returns MaxSupply - TotalIssued.
// Defined purely in terms of cumulative issuance; burning circulating
// units does not change it.
func (s *Scheduler) RemainingSchedulableSupply() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.MaxSupply - s.state.TotalIssued
}

// IssuanceDue reports whether a TryIssue at `now` would advance the cycle.
func (s *Scheduler) IssuanceDue(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.CurrentCycle >= MaxCycle {
		return false
	}
	if now.Before(s.state.DeploymentTime) {
		return false
	}
	return int(now.Sub(s.state.DeploymentTime)/Interval) > s.state.CurrentCycle
}

// Info is an aggregate read-only snapshot of the schedule.
// CirculatingSupply comes from the Ledger; everything else from
// internal state. A composition for reporting, not an independent
// source of truth.
type Info struct {
	Cycle             int        `json:"cycle"`
	TotalIssued       uint64     `json:"total_issued"`
	CirculatingSupply uint64     `json:"circulating_supply"`
	Remaining         uint64     `json:"remaining"`
	Exhausted         bool       `json:"exhausted"`
	Due               bool       `json:"due"`
	NextTime          *time.Time `json:"next_time,omitempty"`
	NextAmount        *uint64    `json:"next_amount,omitempty"`
}

// Info assembles the aggregate snapshot for `now`.
func (s *Scheduler) Info(ctx context.Context, now time.Time) (Info, error) {
	circulating, err := s.ledger.CirculatingSupply(ctx)
	if err != nil {
		return Info{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	info := Info{
		Cycle:             s.state.CurrentCycle,
		TotalIssued:       s.state.TotalIssued,
		CirculatingSupply: circulating,
		Remaining:         s.state.MaxSupply - s.state.TotalIssued,
		Exhausted:         s.state.CurrentCycle >= MaxCycle,
	}
	if !info.Exhausted {
		next := s.nextTimeLocked()
		amount := amountForCycle(s.state.MaxSupply, s.state.CurrentCycle+1)
		info.NextTime = &next
		info.NextAmount = &amount
		info.Due = !now.Before(s.state.DeploymentTime) &&
			int(now.Sub(s.state.DeploymentTime)/Interval) > s.state.CurrentCycle
	}
	return info, nil
}

// nextTimeLocked computes deploymentTime + (currentCycle+1) * Interval.
// Caller must hold s.mu.
func (s *Scheduler) nextTimeLocked() time.Time {
	return s.state.DeploymentTime.Add(time.Duration(s.state.CurrentCycle+1) * Interval)
}

// amountForCycle returns the scheduled emission for cycles 1..MaxCycle.
func amountForCycle(maxSupply uint64, cycle int) uint64 {
	if cycle == MaxCycle {
		return bpsOf(maxSupply, finalCycleBps)
	}
	return bpsOf(maxSupply, regularCycleBps)
}

// bpsOf computes amount * bps / 10000 with truncating division.
// The 128-bit intermediate keeps supplies near the uint64 ceiling exact;
// bps never reaches the denominator times 2^64, so Div64 cannot panic.
func bpsOf(amount, bps uint64) uint64 {
	hi, lo := bits.Mul64(amount, bps)
	q, _ := bits.Div64(hi, lo, bpsDenominator)
	return q
}
