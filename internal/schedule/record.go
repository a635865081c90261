package schedule

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is one entry of the append-only issuance log.
// A record is emitted for every successful issuance, including the
// initial grant as cycle 0.
type Record struct {
	ID     string    `json:"id"`
	Cycle  int       `json:"cycle"`
	To     string    `json:"to"`
	Amount uint64    `json:"amount"`
	Time   time.Time `json:"time"`
}

// RecordIDGenerator generates unique issuance record IDs.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type RecordIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 record IDs.
//
// UUIDv7 embeds a timestamp in the most significant bits, so record IDs
// sort by creation time. Helpful when eyeballing the issuance log.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined record IDs for testing.
//
// This enables deterministic issuance logs and golden trace comparison.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns IDs in order.
//
// Example:
//
//	gen := NewFixedGenerator("rec-1", "rec-2")
//	gen.Generate() // "rec-1"
//	gen.Generate() // "rec-2"
//	gen.Generate() // panic: all IDs exhausted
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined ID.
//
// Panics if all IDs have been consumed. Fail-fast to catch test
// misconfiguration (test issued more cycles than expected).
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all IDs exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
