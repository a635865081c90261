package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenforge/emissary/internal/schedule"
	"github.com/tokenforge/emissary/internal/store"
)

// newTestLedger opens a temp-dir store, deploys a schedule with a
// cycle-0 grant of 100 units to "alice", and returns a ledger over it.
func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	deployed := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
	rec := schedule.Record{ID: "rec-0", Cycle: 0, To: "alice", Amount: 100, Time: deployed}
	state := schedule.State{
		DeploymentTime:    deployed,
		TotalIssued:       100,
		MaxSupply:         1000,
		FoundationAccount: "foundation",
	}
	require.NoError(t, s.DeploymentSink("authority").ApplyIssuance(context.Background(), rec, state))

	return New(s.DB())
}

func requireBalance(t *testing.T, l *Ledger, account string, want uint64) {
	t.Helper()
	got, err := l.BalanceOf(context.Background(), account)
	require.NoError(t, err)
	assert.Equal(t, want, got, "balance of %s", account)
}

// TestBalanceOf tests known and unknown accounts.
func TestBalanceOf(t *testing.T) {
	l := newTestLedger(t)

	requireBalance(t, l, "alice", 100)
	requireBalance(t, l, "nobody", 0)

	_, err := l.BalanceOf(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidAccount)
}

// TestTransfer tests a simple move between accounts.
func TestTransfer(t *testing.T) {
	l := newTestLedger(t)

	require.NoError(t, l.Transfer(context.Background(), "alice", "bob", 40))
	requireBalance(t, l, "alice", 60)
	requireBalance(t, l, "bob", 40)

	supply, err := l.CirculatingSupply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(100), supply, "transfers preserve circulating supply")
}

// TestTransfer_InsufficientFunds tests the balance guard.
func TestTransfer_InsufficientFunds(t *testing.T) {
	l := newTestLedger(t)

	err := l.Transfer(context.Background(), "alice", "bob", 101)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	requireBalance(t, l, "alice", 100)
	requireBalance(t, l, "bob", 0)

	// Accounts with no row are just zero balances.
	err = l.Transfer(context.Background(), "nobody", "bob", 1)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

// TestTransfer_InvalidAccounts tests the account validation.
func TestTransfer_InvalidAccounts(t *testing.T) {
	l := newTestLedger(t)

	assert.ErrorIs(t, l.Transfer(context.Background(), "", "bob", 1), ErrInvalidAccount)
	assert.ErrorIs(t, l.Transfer(context.Background(), "alice", "", 1), ErrInvalidAccount)
	assert.ErrorIs(t, l.Transfer(context.Background(), "alice", "alice", 1), ErrInvalidAccount)
}

// TestApproveAndAllowance tests that Approve sets rather than adds.
func TestApproveAndAllowance(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	allowance, err := l.Allowance(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Zero(t, allowance)

	require.NoError(t, l.Approve(ctx, "alice", "bob", 50))
	require.NoError(t, l.Approve(ctx, "alice", "bob", 30))

	allowance, err = l.Allowance(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(30), allowance)
}

// TestTransferFrom tests allowance consumption.
func TestTransferFrom(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Approve(ctx, "alice", "bob", 50))
	require.NoError(t, l.TransferFrom(ctx, "bob", "alice", "carol", 30))

	requireBalance(t, l, "alice", 70)
	requireBalance(t, l, "carol", 30)

	allowance, err := l.Allowance(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(20), allowance)
}

// TestTransferFrom_InsufficientAllowance tests the allowance guard and
// that a failed spend leaves balances untouched.
func TestTransferFrom_InsufficientAllowance(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Approve(ctx, "alice", "bob", 10))
	err := l.TransferFrom(ctx, "bob", "alice", "carol", 30)
	assert.ErrorIs(t, err, ErrInsufficientAllowance)
	requireBalance(t, l, "alice", 100)
	requireBalance(t, l, "carol", 0)
}

// TestTransferFrom_InsufficientFunds tests that allowance is not
// consumed when the owner balance cannot cover the spend.
func TestTransferFrom_InsufficientFunds(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Approve(ctx, "alice", "bob", 500))
	err := l.TransferFrom(ctx, "bob", "alice", "carol", 200)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// The whole transaction rolled back, allowance included.
	allowance, err := l.Allowance(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(500), allowance)
}

// TestBurn tests that burns destroy circulating units.
func TestBurn(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Burn(ctx, "alice", 60))
	requireBalance(t, l, "alice", 40)

	supply, err := l.CirculatingSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(40), supply)

	assert.ErrorIs(t, l.Burn(ctx, "alice", 41), ErrInsufficientFunds)
}
