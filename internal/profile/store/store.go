package store

import (
	"context"
	"time"

	"campusgate/internal/profile"
)

// Store persists profile documents keyed by user id. UpsertMerge has merge
// semantics: unrelated fields survive a partial write. Implementations
// return sentinel.ErrNotFound for missing records on point reads.
type Store interface {
	Get(ctx context.Context, userID string) (profile.Profile, error)
	UpsertMerge(ctx context.Context, userID string, patch profile.Patch) error
	SetAdminVerified(ctx context.Context, userID string, verified bool) error
	SetLastLogin(ctx context.Context, userID string, at time.Time) error
}
