// Package schedule implements the emission schedule state machine.
//
// The scheduler decides, for a given wall-clock time, whether a new
// issuance of token supply is due, computes its exact amount, and applies
// the state transition atomically. It is the only component that mutates
// schedule state; balances and circulating supply live behind the Ledger
// and IssuanceSink collaborators.
//
// ARCHITECTURE:
//
// Sequential State Machine:
// States are cycles 0 through 9. Cycle 0 is entered at construction,
// together with the initial grant. The single transition advances the
// cycle by exactly one when at least one full emission interval has
// elapsed beyond the current cycle. Cycle 9 is terminal.
//
// Issuance Flow:
//  1. Caller invokes TryIssue with an explicit `now`
//  2. Authorizer gates the call (single designated account)
//  3. Eligibility and amount computed from internal state + `now`
//  4. IssuanceSink applies credit, record, and state row in one transaction
//  5. In-memory state committed only after the sink succeeds
//
// CRITICAL PATTERNS:
//
// Explicit Time:
// Wall-clock time is a parameter to every time-sensitive operation and is
// never read internally. One `now` per operation, used consistently
// throughout that operation.
//
// Cumulative vs Circulating:
// TotalIssued tracks units ever created and never decreases. Circulating
// supply (ledger-owned) decreases on burns. Cap enforcement uses
// TotalIssued only; burning units never frees issuance capacity.
package schedule
