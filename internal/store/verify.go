package store

import (
	"context"
	"fmt"
)

// Audit is the result of replaying the issuance log against the
// schedule row and the balance tables.
type Audit struct {
	Records        int
	ReplayedIssued uint64 // sum of log amounts
	TotalIssued    uint64 // schedule row figure
	Circulating    uint64 // sum of balances
	Problems       []string
}

// Consistent reports whether the audit found no problems.
func (a Audit) Consistent() bool { return len(a.Problems) == 0 }

// VerifyLog replays the issuance log and reconciles it with the schedule
// row. The log is the observable history; the row is the working state.
// The two must always agree:
//   - cycles are 0..currentCycle with no gaps or repeats
//   - the sum of logged amounts equals total_issued
//   - total_issued never exceeds max_supply
//   - circulating supply never exceeds total_issued (burns only destroy)
//
// Returns an error only for storage failures; consistency findings are
// reported in the Audit.
func (s *Store) VerifyLog(ctx context.Context) (Audit, error) {
	var audit Audit

	dep, err := s.LoadDeployment(ctx)
	if err != nil {
		return audit, err
	}
	audit.TotalIssued = dep.State.TotalIssued

	recs, err := s.Issuances(ctx)
	if err != nil {
		return audit, err
	}
	audit.Records = len(recs)

	for i, rec := range recs {
		if rec.Cycle != i {
			audit.Problems = append(audit.Problems,
				fmt.Sprintf("log position %d holds cycle %d (gap or repeat)", i, rec.Cycle))
		}
		audit.ReplayedIssued += rec.Amount
	}

	if len(recs) == 0 {
		audit.Problems = append(audit.Problems, "deployment exists but log is empty")
	} else if last := recs[len(recs)-1].Cycle; last != dep.State.CurrentCycle {
		audit.Problems = append(audit.Problems,
			fmt.Sprintf("log ends at cycle %d but schedule row is at cycle %d", last, dep.State.CurrentCycle))
	}

	if audit.ReplayedIssued != dep.State.TotalIssued {
		audit.Problems = append(audit.Problems,
			fmt.Sprintf("log sums to %d but schedule row says %d issued", audit.ReplayedIssued, dep.State.TotalIssued))
	}
	if dep.State.TotalIssued > dep.State.MaxSupply {
		audit.Problems = append(audit.Problems,
			fmt.Sprintf("issued %d exceeds max supply %d", dep.State.TotalIssued, dep.State.MaxSupply))
	}

	var circulating int64
	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(balance), 0) FROM accounts
	`).Scan(&circulating)
	if err != nil {
		return audit, fmt.Errorf("verify log: sum balances: %w", err)
	}
	audit.Circulating = uint64(circulating)

	if audit.Circulating > dep.State.TotalIssued {
		audit.Problems = append(audit.Problems,
			fmt.Sprintf("circulating %d exceeds issued %d", audit.Circulating, dep.State.TotalIssued))
	}

	return audit, nil
}
