// Package enrollment answers "is this patient enrolled for the reminder
// service?" with a short-TTL cache in front of the authoritative check.
// The cache gates creation of spreadsheet-derived visits; TTL expiry is the
// only invalidation mechanism.
package enrollment

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL matches the source system's 30-unit cache timeout.
const DefaultTTL = 30 * time.Second

// Checker is the authoritative enrollment lookup against the external source.
type Checker interface {
	IsEnrolled(ctx context.Context, fileNo string) (bool, error)
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(ctx context.Context, fileNo string) (bool, error)

func (f CheckerFunc) IsEnrolled(ctx context.Context, fileNo string) (bool, error) {
	return f(ctx, fileNo)
}

// Cache is a memoized enrollment lookup shared across one import run or
// process, never per-request.
type Cache interface {
	IsEnrolled(ctx context.Context, fileNo string) (bool, error)
}

type memoryEntry struct {
	enrolled  bool
	expiresAt time.Time
}

// MemoryCache memoizes enrollment answers in process memory. The clock is
// injectable so TTL expiry is testable without sleeping.
type MemoryCache struct {
	checker Checker
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemoryCache(checker Checker, ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		checker: checker,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

// WithClock overrides the time source, for tests.
func (c *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	c.now = now
	return c
}

func (c *MemoryCache) IsEnrolled(ctx context.Context, fileNo string) (bool, error) {
	c.mu.Lock()
	entry, ok := c.entries[fileNo]
	if ok && c.now().Before(entry.expiresAt) {
		c.mu.Unlock()
		return entry.enrolled, nil
	}
	c.mu.Unlock()

	enrolled, err := c.checker.IsEnrolled(ctx, fileNo)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	c.entries[fileNo] = memoryEntry{enrolled: enrolled, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return enrolled, nil
}
