package shared

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// ═══════════════════════════════════════════════════════════════════════════
// Identity
// ═══════════════════════════════════════════════════════════════════════════

// IDGenerator produces fresh opaque identifiers.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator generates random UUIDv4 identifiers.
type UUIDGenerator struct{}

// NewID implements IDGenerator.
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// PrefixedIDGenerator prepends a fixed prefix to UUIDs, e.g. "share_".
type PrefixedIDGenerator struct {
	Prefix string
}

// NewID implements IDGenerator.
func (g PrefixedIDGenerator) NewID() string {
	return g.Prefix + uuid.NewString()
}

// ═══════════════════════════════════════════════════════════════════════════
// Time
// ═══════════════════════════════════════════════════════════════════════════

// Clock returns the current time.
type Clock func() time.Time

// SystemClock returns the wall clock in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// Now returns the clock's time, falling back to SystemClock when c is nil.
func (c Clock) Now() time.Time {
	if c == nil {
		return SystemClock()
	}
	return c()
}

// FixedClock returns a Clock that always reports t. Handy in tests.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// ═══════════════════════════════════════════════════════════════════════════
// Ordered string sets
// ═══════════════════════════════════════════════════════════════════════════

// AppendUnique appends id to ids unless it is already present. The second
// return value reports whether ids changed.
func AppendUnique(ids []string, id string) ([]string, bool) {
	for _, existing := range ids {
		if existing == id {
			return ids, false
		}
	}
	return append(ids, id), true
}

// ContainsString reports whether ids contains id.
func ContainsString(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

// SortedPair returns a and b in ascending order.
func SortedPair(a, b string) (string, string) {
	pair := []string{a, b}
	sort.Strings(pair)
	return pair[0], pair[1]
}
