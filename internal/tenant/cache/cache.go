// Package cache remembers which tenant namespaces were recently verified as
// fully provisioned, so hot-path tenant access skips the information_schema
// round trips. Entries expire so drift is still detected within the TTL, and
// they are invalidated explicitly on deactivation and deletion.
package cache

import (
	"context"
	"sync"
	"time"
)

// ProvisionCache tracks recently verified namespaces.
// A miss is always safe; it only costs a re-verification.
type ProvisionCache interface {
	// IsProvisioned reports whether ns was verified within the TTL.
	IsProvisioned(ctx context.Context, ns string) bool

	// MarkProvisioned records a successful verification of ns.
	MarkProvisioned(ctx context.Context, ns string)

	// Invalidate forgets ns so the next access re-verifies.
	Invalidate(ctx context.Context, ns string)
}

// Memory is an in-process ProvisionCache with TTL expiry.
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemory creates an in-memory cache. Entries expire after ttl.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// WithClock overrides the time source for tests.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) IsProvisioned(_ context.Context, ns string) bool {
	m.mu.RLock()
	expiry, ok := m.entries[ns]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	if m.now().After(expiry) {
		m.Invalidate(context.Background(), ns)
		return false
	}
	return true
}

func (m *Memory) MarkProvisioned(_ context.Context, ns string) {
	m.mu.Lock()
	m.entries[ns] = m.now().Add(m.ttl)
	m.mu.Unlock()
}

func (m *Memory) Invalidate(_ context.Context, ns string) {
	m.mu.Lock()
	delete(m.entries, ns)
	m.mu.Unlock()
}

var _ ProvisionCache = (*Memory)(nil)
