package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenforge/emissary/internal/schedule"
)

// TestVerifyLog_Consistent tests a clean deployment plus two cycles.
func TestVerifyLog_Consistent(t *testing.T) {
	s := openTestStore(t)
	state := deployTestSchedule(t, s)

	prev := state
	for cycle := 1; cycle <= 2; cycle++ {
		next := prev
		next.CurrentCycle = cycle
		next.TotalIssued += 20
		rec := schedule.Record{
			ID:     "rec-" + string(rune('0'+cycle)),
			Cycle:  cycle,
			To:     "foundation",
			Amount: 20,
			Time:   testDeployTime.Add(time.Duration(cycle) * schedule.Interval),
		}
		require.NoError(t, s.ApplyIssuance(context.Background(), rec, next))
		prev = next
	}

	audit, err := s.VerifyLog(context.Background())
	require.NoError(t, err)
	assert.True(t, audit.Consistent(), "problems: %v", audit.Problems)
	assert.Equal(t, 3, audit.Records)
	assert.Equal(t, uint64(70), audit.ReplayedIssued)
	assert.Equal(t, uint64(70), audit.TotalIssued)
	assert.Equal(t, uint64(70), audit.Circulating)
}

// TestVerifyLog_NoDeployment tests the empty-store case.
func TestVerifyLog_NoDeployment(t *testing.T) {
	s := openTestStore(t)

	_, err := s.VerifyLog(context.Background())
	assert.ErrorIs(t, err, ErrNoDeployment)
}

// TestVerifyLog_DetectsTamperedRow tests that a doctored schedule row is
// flagged against the replayed log.
func TestVerifyLog_DetectsTamperedRow(t *testing.T) {
	s := openTestStore(t)
	deployTestSchedule(t, s)

	_, err := s.DB().Exec(`UPDATE schedule SET total_issued = 999 WHERE id = 1`)
	require.NoError(t, err)

	audit, err := s.VerifyLog(context.Background())
	require.NoError(t, err)
	assert.False(t, audit.Consistent())
	assert.Contains(t, audit.Problems[0], "log sums to 30")
}

// TestVerifyLog_BurnReducesCirculating tests that destroyed units do not
// break the circulating <= issued check.
func TestVerifyLog_BurnReducesCirculating(t *testing.T) {
	s := openTestStore(t)
	deployTestSchedule(t, s)

	_, err := s.DB().Exec(`UPDATE accounts SET balance = balance - 10 WHERE account = 'deployer'`)
	require.NoError(t, err)

	audit, err := s.VerifyLog(context.Background())
	require.NoError(t, err)
	assert.True(t, audit.Consistent(), "problems: %v", audit.Problems)
	assert.Equal(t, uint64(20), audit.Circulating)
	assert.Equal(t, uint64(30), audit.TotalIssued)
}
