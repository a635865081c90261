// Package authority implements the single-owner issuance gate.
//
// Exactly one account holds issuance authority at any time. The holder
// can hand it to another account, and the handoff is persisted before
// the in-memory gate flips, so a crash mid-transfer leaves the old
// owner in charge rather than nobody.
package authority

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNotOwner is returned when a caller other than the current
	// authority attempts a privileged operation.
	ErrNotOwner = errors.New("caller is not the issuance authority")
	// ErrInvalidOwner is returned for an empty or self-directed handoff.
	ErrInvalidOwner = errors.New("invalid owner account")
)

// Persister records authority changes durably.
// *store.Store satisfies this with SetAuthority.
type Persister interface {
	SetAuthority(ctx context.Context, account string) error
}

// Gate guards issuance behind a single owner account.
// Implements schedule.Authorizer.
type Gate struct {
	mu      sync.Mutex
	owner   string
	persist Persister
}

// New returns a gate owned by the given account. persist may be nil
// for in-memory use (tests, dry runs).
func New(owner string, persist Persister) (*Gate, error) {
	if owner == "" {
		return nil, fmt.Errorf("new gate: %w: empty", ErrInvalidOwner)
	}
	return &Gate{owner: owner, persist: persist}, nil
}

// IsAuthorized reports whether caller holds issuance authority.
func (g *Gate) IsAuthorized(caller string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return caller != "" && caller == g.owner
}

// Owner returns the current authority account.
func (g *Gate) Owner() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.owner
}

// TransferOwnership hands authority from caller to newOwner. Only the
// current owner may transfer. The change is persisted first; if
// persistence fails the gate is unchanged.
func (g *Gate) TransferOwnership(ctx context.Context, caller, newOwner string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if caller != g.owner {
		return fmt.Errorf("transfer ownership: %w: %s", ErrNotOwner, caller)
	}
	if newOwner == "" {
		return fmt.Errorf("transfer ownership: %w: empty", ErrInvalidOwner)
	}
	if newOwner == g.owner {
		return fmt.Errorf("transfer ownership: %w: %s already owns", ErrInvalidOwner, newOwner)
	}

	if g.persist != nil {
		if err := g.persist.SetAuthority(ctx, newOwner); err != nil {
			return fmt.Errorf("transfer ownership: %w", err)
		}
	}
	g.owner = newOwner
	return nil
}
