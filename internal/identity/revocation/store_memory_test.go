package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryListRevoke(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemory(WithClock(func() time.Time { return now }))

	require.NoError(t, l.Revoke(ctx, "jti-1", time.Hour))

	revoked, err := l.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = l.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestMemoryListExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemory(WithClock(func() time.Time { return now }))

	require.NoError(t, l.Revoke(ctx, "jti-1", time.Minute))

	now = now.Add(time.Minute + time.Second)

	revoked, err := l.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "expired entries read as not revoked")
}

func TestMemoryListEmptyJTI(t *testing.T) {
	ctx := context.Background()
	l := NewMemory()

	require.NoError(t, l.Revoke(ctx, "", time.Hour))
	revoked, err := l.IsRevoked(ctx, "")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestMemoryListSweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemory(WithClock(func() time.Time { return now }))

	require.NoError(t, l.Revoke(ctx, "old", time.Minute))
	require.NoError(t, l.Revoke(ctx, "fresh", time.Hour))

	now = now.Add(10 * time.Minute)
	l.Sweep()

	l.mu.RLock()
	defer l.mu.RUnlock()
	assert.NotContains(t, l.revoked, "old")
	assert.Contains(t, l.revoked, "fresh")
}
