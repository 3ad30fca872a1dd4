// Package syncstate stores the per-scope record of which user the
// organization sync last ran for.
package syncstate

import (
	"context"
	"sync"
	"time"
)

// maxSweepInterval bounds how often expired scopes are swept.
const maxSweepInterval = time.Minute

type entry struct {
	userID string
	seen   time.Time
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithTTL forgets a scope that has not been seen for d. Zero keeps
// scopes until Reset.
func WithTTL(d time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = d }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// Memory is an in-process guard store.
type Memory struct {
	mu        sync.Mutex
	scopes    map[string]entry
	ttl       time.Duration
	now       func() time.Time
	nextSweep time.Time
}

// NewMemory creates an empty Memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{scopes: make(map[string]entry), now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Begin implements orgsync.Guard. Every call refreshes the scope.
func (m *Memory) Begin(ctx context.Context, scope, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweep(now)

	e, ok := m.scopes[scope]
	fresh := !ok || e.userID != userID || m.expired(e, now)
	m.scopes[scope] = entry{userID: userID, seen: now}
	return fresh, nil
}

// Reset implements orgsync.Guard.
func (m *Memory) Reset(ctx context.Context, scope string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scopes, scope)
	return nil
}

// Len returns the number of scopes held.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.scopes)
}

func (m *Memory) expired(e entry, now time.Time) bool {
	return m.ttl > 0 && now.Sub(e.seen) >= m.ttl
}

func (m *Memory) sweep(now time.Time) {
	if m.ttl <= 0 || now.Before(m.nextSweep) {
		return
	}
	for scope, e := range m.scopes {
		if m.expired(e, now) {
			delete(m.scopes, scope)
		}
	}
	m.nextSweep = now.Add(min(m.ttl, maxSweepInterval))
}
