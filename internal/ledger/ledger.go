package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	// ErrInsufficientFunds is returned when a debit exceeds the account balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientAllowance is returned when a spend exceeds the approved allowance.
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	// ErrInvalidAccount is returned for empty account names or self-directed moves.
	ErrInvalidAccount = errors.New("invalid account")
)

// Ledger provides balance accounting over a store's database.
// All mutations are transactional; debits are guarded so a balance can
// never go negative.
type Ledger struct {
	db *sql.DB
}

// New returns a Ledger over the given database. The database is
// expected to carry the store schema (accounts and allowances tables).
func New(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// BalanceOf returns the balance of an account. Unknown accounts hold zero.
func (l *Ledger) BalanceOf(ctx context.Context, account string) (uint64, error) {
	if account == "" {
		return 0, fmt.Errorf("balance of: %w: empty account", ErrInvalidAccount)
	}
	var bal int64
	err := l.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(balance), 0) FROM accounts WHERE account = ?
	`, account).Scan(&bal)
	if err != nil {
		return 0, fmt.Errorf("balance of %s: %w", account, err)
	}
	return uint64(bal), nil
}

// CirculatingSupply returns the sum of all balances. Implements the
// read side the scheduler reports against.
func (l *Ledger) CirculatingSupply(ctx context.Context) (uint64, error) {
	var total int64
	err := l.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(balance), 0) FROM accounts
	`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("circulating supply: %w", err)
	}
	return uint64(total), nil
}

// Allowance returns the amount spender may move from owner's balance.
func (l *Ledger) Allowance(ctx context.Context, owner, spender string) (uint64, error) {
	if owner == "" || spender == "" {
		return 0, fmt.Errorf("allowance: %w: empty account", ErrInvalidAccount)
	}
	var amount int64
	err := l.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM allowances WHERE owner = ? AND spender = ?
	`, owner, spender).Scan(&amount)
	if err != nil {
		return 0, fmt.Errorf("allowance %s->%s: %w", owner, spender, err)
	}
	return uint64(amount), nil
}

// Transfer moves amount from one account to another.
func (l *Ledger) Transfer(ctx context.Context, from, to string, amount uint64) error {
	if err := checkAccounts(from, to); err != nil {
		return fmt.Errorf("transfer: %w", err)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("transfer: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := debit(ctx, tx, from, amount); err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	if err := credit(ctx, tx, to, amount); err != nil {
		return fmt.Errorf("transfer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transfer: commit: %w", err)
	}
	return nil
}

// Approve sets (not adds to) the allowance spender holds on owner's balance.
func (l *Ledger) Approve(ctx context.Context, owner, spender string, amount uint64) error {
	if owner == "" || spender == "" {
		return fmt.Errorf("approve: %w: empty account", ErrInvalidAccount)
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO allowances (owner, spender, amount)
		VALUES (?, ?, ?)
		ON CONFLICT(owner, spender) DO UPDATE SET amount = excluded.amount
	`, owner, spender, int64(amount))
	if err != nil {
		return fmt.Errorf("approve: %w", err)
	}
	return nil
}

// TransferFrom moves amount from owner to recipient on spender's
// authority, consuming allowance.
func (l *Ledger) TransferFrom(ctx context.Context, spender, owner, to string, amount uint64) error {
	if spender == "" {
		return fmt.Errorf("transfer from: %w: empty spender", ErrInvalidAccount)
	}
	if err := checkAccounts(owner, to); err != nil {
		return fmt.Errorf("transfer from: %w", err)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("transfer from: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	// Consume allowance first; guarded exactly like a balance debit.
	res, err := tx.ExecContext(ctx, `
		UPDATE allowances SET amount = amount - ?
		WHERE owner = ? AND spender = ? AND amount >= ?
	`, int64(amount), owner, spender, int64(amount))
	if err != nil {
		return fmt.Errorf("transfer from: consume allowance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transfer from: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transfer from %s by %s: %w", owner, spender, ErrInsufficientAllowance)
	}

	if err := debit(ctx, tx, owner, amount); err != nil {
		return fmt.Errorf("transfer from: %w", err)
	}
	if err := credit(ctx, tx, to, amount); err != nil {
		return fmt.Errorf("transfer from: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transfer from: commit: %w", err)
	}
	return nil
}

// Burn permanently destroys amount from an account's balance. The
// destroyed units leave circulation but remain counted as issued; burns
// never free issuance capacity.
func (l *Ledger) Burn(ctx context.Context, account string, amount uint64) error {
	if account == "" {
		return fmt.Errorf("burn: %w: empty account", ErrInvalidAccount)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("burn: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := debit(ctx, tx, account, amount); err != nil {
		return fmt.Errorf("burn: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("burn: commit: %w", err)
	}
	return nil
}

func checkAccounts(from, to string) error {
	if from == "" || to == "" {
		return fmt.Errorf("%w: empty account", ErrInvalidAccount)
	}
	if from == to {
		return fmt.Errorf("%w: %s to itself", ErrInvalidAccount, from)
	}
	return nil
}

// debit removes amount from an account inside tx. The balance guard in
// the WHERE clause makes insufficient funds a zero-row update rather
// than a constraint violation.
func debit(ctx context.Context, tx *sql.Tx, account string, amount uint64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts SET balance = balance - ?
		WHERE account = ? AND balance >= ?
	`, int64(amount), account, int64(amount))
	if err != nil {
		return fmt.Errorf("debit %s: %w", account, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit %s: rows affected: %w", account, err)
	}
	if n == 0 {
		return fmt.Errorf("debit %s: %w", account, ErrInsufficientFunds)
	}
	return nil
}

func credit(ctx context.Context, tx *sql.Tx, account string, amount uint64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (account, balance)
		VALUES (?, ?)
		ON CONFLICT(account) DO UPDATE SET balance = balance + excluded.balance
	`, account, int64(amount))
	if err != nil {
		return fmt.Errorf("credit %s: %w", account, err)
	}
	return nil
}
