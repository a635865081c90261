package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tokenforge/emissary/internal/schedule"
)

// ErrNoDeployment is returned when the schedule row does not exist yet.
var ErrNoDeployment = errors.New("no deployment found")

// Deployment is the persisted schedule state plus the current authority.
type Deployment struct {
	State     schedule.State
	Authority string
}

// LoadDeployment reads the singleton schedule row.
// Returns ErrNoDeployment if the store has not been initialized.
func (s *Store) LoadDeployment(ctx context.Context) (Deployment, error) {
	var (
		deployedAt  int64
		cycle       int
		totalIssued int64
		maxSupply   int64
		foundation  string
		authority   string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT deployed_at, current_cycle, total_issued, max_supply, foundation, authority
		FROM schedule WHERE id = 1
	`).Scan(&deployedAt, &cycle, &totalIssued, &maxSupply, &foundation, &authority)
	if errors.Is(err, sql.ErrNoRows) {
		return Deployment{}, ErrNoDeployment
	}
	if err != nil {
		return Deployment{}, fmt.Errorf("load deployment: %w", err)
	}

	return Deployment{
		State: schedule.State{
			DeploymentTime:    time.Unix(deployedAt, 0).UTC(),
			CurrentCycle:      cycle,
			TotalIssued:       uint64(totalIssued),
			MaxSupply:         uint64(maxSupply),
			FoundationAccount: foundation,
		},
		Authority: authority,
	}, nil
}

// SetAuthority updates the designated issuance authority.
// Returns ErrNoDeployment if the store has not been initialized.
func (s *Store) SetAuthority(ctx context.Context, account string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE schedule SET authority = ? WHERE id = 1
	`, account)
	if err != nil {
		return fmt.Errorf("set authority: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set authority: rows affected: %w", err)
	}
	if n == 0 {
		return ErrNoDeployment
	}
	return nil
}

// ApplyIssuance implements schedule.IssuanceSink for an existing deployment.
//
// The balance credit, the log record, and the schedule row advance are
// applied in a single transaction. The row update is guarded on the
// previous cycle, so out-of-sequence applies fail rather than corrupt
// state, and a cycle that is already in the log is a no-op (idempotent
// via the UNIQUE(cycle) constraint).
func (s *Store) ApplyIssuance(ctx context.Context, rec schedule.Record, next schedule.State) error {
	return s.applyIssuance(ctx, rec, next, "")
}

// DeploymentSink returns a sink that creates the schedule row when it
// sees the cycle-0 record, stamping `authority` as the initial issuance
// authority. Used once, at deployment; resumed schedulers use the store's
// own ApplyIssuance.
func (s *Store) DeploymentSink(authority string) schedule.IssuanceSink {
	return deploymentSink{s: s, authority: authority}
}

type deploymentSink struct {
	s         *Store
	authority string
}

func (k deploymentSink) ApplyIssuance(ctx context.Context, rec schedule.Record, next schedule.State) error {
	return k.s.applyIssuance(ctx, rec, next, k.authority)
}

func (s *Store) applyIssuance(ctx context.Context, rec schedule.Record, next schedule.State, authority string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("apply issuance: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	// Step 1: Claim the cycle slot. ON CONFLICT(cycle) DO NOTHING makes
	// re-applying a recorded cycle a silent no-op: no double credit.
	res, err := tx.ExecContext(ctx, `
		INSERT INTO issuances (id, cycle, account, amount, issued_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(cycle) DO NOTHING
	`, rec.ID, rec.Cycle, rec.To, int64(rec.Amount), rec.Time.Unix())
	if err != nil {
		return fmt.Errorf("apply issuance: insert record: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("apply issuance: rows affected: %w", err)
	}
	if inserted == 0 {
		// Cycle already applied - nothing more to do.
		return tx.Commit()
	}

	// Step 2: Advance the schedule row.
	if rec.Cycle == 0 {
		if authority == "" {
			return fmt.Errorf("apply issuance: cycle 0 requires a deployment sink")
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO schedule (id, deployed_at, current_cycle, total_issued, max_supply, foundation, authority)
			VALUES (1, ?, ?, ?, ?, ?, ?)
		`,
			next.DeploymentTime.Unix(),
			next.CurrentCycle,
			int64(next.TotalIssued),
			int64(next.MaxSupply),
			next.FoundationAccount,
			authority,
		)
		if err != nil {
			return fmt.Errorf("apply issuance: create deployment: %w", err)
		}
	} else {
		res, err = tx.ExecContext(ctx, `
			UPDATE schedule
			SET current_cycle = ?, total_issued = ?
			WHERE id = 1 AND current_cycle = ?
		`, next.CurrentCycle, int64(next.TotalIssued), rec.Cycle-1)
		if err != nil {
			return fmt.Errorf("apply issuance: advance schedule: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("apply issuance: rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("apply issuance: schedule row not at cycle %d", rec.Cycle-1)
		}
	}

	// Step 3: Credit the destination account.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO accounts (account, balance)
		VALUES (?, ?)
		ON CONFLICT(account) DO UPDATE SET balance = balance + excluded.balance
	`, rec.To, int64(rec.Amount))
	if err != nil {
		return fmt.Errorf("apply issuance: credit account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("apply issuance: commit: %w", err)
	}
	return nil
}

// Issuances returns the full issuance log ordered by cycle.
func (s *Store) Issuances(ctx context.Context) ([]schedule.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, cycle, account, amount, issued_at
		FROM issuances
		ORDER BY cycle ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("read issuances: %w", err)
	}
	defer rows.Close()

	var recs []schedule.Record
	for rows.Next() {
		var (
			rec      schedule.Record
			amount   int64
			issuedAt int64
		)
		if err := rows.Scan(&rec.ID, &rec.Cycle, &rec.To, &amount, &issuedAt); err != nil {
			return nil, fmt.Errorf("read issuances: scan: %w", err)
		}
		rec.Amount = uint64(amount)
		rec.Time = time.Unix(issuedAt, 0).UTC()
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read issuances: %w", err)
	}
	return recs, nil
}
