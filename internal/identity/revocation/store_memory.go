package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryList is a single-process revocation list. Entries expire lazily on
// read; Sweep exists for long-running processes.
type MemoryList struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	clock   func() time.Time
}

// MemoryListOption configures a MemoryList.
type MemoryListOption func(*MemoryList)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) MemoryListOption {
	return func(l *MemoryList) {
		if clock != nil {
			l.clock = clock
		}
	}
}

func NewMemory(opts ...MemoryListOption) *MemoryList {
	l := &MemoryList{
		revoked: make(map[string]time.Time),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *MemoryList) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.revoked[jti] = l.clock().Add(ttl)
	return nil
}

func (l *MemoryList) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	l.mu.RLock()
	expiresAt, ok := l.revoked[jti]
	l.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if l.clock().After(expiresAt) {
		l.mu.Lock()
		delete(l.revoked, jti)
		l.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// Sweep drops expired entries.
func (l *MemoryList) Sweep() {
	now := l.clock()
	l.mu.Lock()
	defer l.mu.Unlock()
	for jti, expiresAt := range l.revoked {
		if now.After(expiresAt) {
			delete(l.revoked, jti)
		}
	}
}
