package store

import (
	"context"
	"time"
)

// Code is one active verification code per user. Generating a new code for a
// user overwrites any prior unconsumed one. Email and name are denormalized
// so the verification screen can render without a second profile read.
type Code struct {
	UserID    string
	UserEmail string
	UserName  string
	Code      string
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
}

// Expired reports whether the code is past its expiry at the given instant.
func (c Code) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Store persists one verification code per user. Put overwrites any prior
// record for the same user. Get returns sentinel.ErrNotFound for a missing
// record.
//
// Consume is the transactional heart of the design: it must mark the code
// used AND flip admin_verified on the profile as one atomic unit. Either
// both writes land or neither does. Implementations return
// sentinel.ErrAlreadyUsed when the code was consumed concurrently.
type Store interface {
	Put(ctx context.Context, code Code) error
	Get(ctx context.Context, userID string) (Code, error)
	Consume(ctx context.Context, userID string) error
}

// ProfileVerifier is the slice of the profile store the in-memory code store
// needs to grant admin verification inside Consume.
type ProfileVerifier interface {
	SetAdminVerified(ctx context.Context, userID string, verified bool) error
}
