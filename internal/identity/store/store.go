package store

import (
	"context"
	"time"
)

// Credential is the password-backed account record owned by the identity
// provider. Application-level role and verification flags live in the
// profile store, not here.
type Credential struct {
	UserID        string
	Email         string
	Name          string
	PasswordHash  string
	EmailVerified bool
	CreatedAt     time.Time
}

// CredentialStore persists accounts keyed by user id with a unique email.
// Implementations return sentinel.ErrNotFound for missing records and
// sentinel.ErrConflict for duplicate emails.
type CredentialStore interface {
	Create(ctx context.Context, cred Credential) error
	FindByEmail(ctx context.Context, email string) (Credential, error)
	FindByID(ctx context.Context, userID string) (Credential, error)
	SetEmailVerified(ctx context.Context, userID string, verified bool) error
	SetPasswordHash(ctx context.Context, userID string, hash string) error
}
