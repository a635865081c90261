package authority

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPersister captures SetAuthority calls and can fail on demand.
type recordingPersister struct {
	set  []string
	fail error
}

func (p *recordingPersister) SetAuthority(_ context.Context, account string) error {
	if p.fail != nil {
		return p.fail
	}
	p.set = append(p.set, account)
	return nil
}

// TestNew tests gate construction.
func TestNew(t *testing.T) {
	g, err := New("authority", nil)
	require.NoError(t, err)
	assert.Equal(t, "authority", g.Owner())

	_, err = New("", nil)
	assert.ErrorIs(t, err, ErrInvalidOwner)
}

// TestIsAuthorized tests the caller check.
func TestIsAuthorized(t *testing.T) {
	g, err := New("authority", nil)
	require.NoError(t, err)

	assert.True(t, g.IsAuthorized("authority"))
	assert.False(t, g.IsAuthorized("intruder"))
	assert.False(t, g.IsAuthorized(""))
}

// TestTransferOwnership tests a successful persisted handoff.
func TestTransferOwnership(t *testing.T) {
	p := &recordingPersister{}
	g, err := New("authority", p)
	require.NoError(t, err)

	require.NoError(t, g.TransferOwnership(context.Background(), "authority", "successor"))
	assert.Equal(t, "successor", g.Owner())
	assert.True(t, g.IsAuthorized("successor"))
	assert.False(t, g.IsAuthorized("authority"))
	assert.Equal(t, []string{"successor"}, p.set)

	// The old owner cannot transfer back.
	err = g.TransferOwnership(context.Background(), "authority", "authority")
	assert.ErrorIs(t, err, ErrNotOwner)
}

// TestTransferOwnership_Invalid tests rejected handoffs.
func TestTransferOwnership_Invalid(t *testing.T) {
	g, err := New("authority", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, g.TransferOwnership(context.Background(), "intruder", "x"), ErrNotOwner)
	assert.ErrorIs(t, g.TransferOwnership(context.Background(), "authority", ""), ErrInvalidOwner)
	assert.ErrorIs(t, g.TransferOwnership(context.Background(), "authority", "authority"), ErrInvalidOwner)
	assert.Equal(t, "authority", g.Owner())
}

// TestTransferOwnership_PersistFailure tests that a failed write leaves
// the gate unchanged.
func TestTransferOwnership_PersistFailure(t *testing.T) {
	boom := errors.New("disk full")
	p := &recordingPersister{fail: boom}
	g, err := New("authority", p)
	require.NoError(t, err)

	err = g.TransferOwnership(context.Background(), "authority", "successor")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "authority", g.Owner())
	assert.True(t, g.IsAuthorized("authority"))
}
