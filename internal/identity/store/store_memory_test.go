package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"campusgate/pkg/platform/sentinel"
)

type InMemoryCredentialStoreSuite struct {
	suite.Suite
	store *InMemoryCredentialStore
}

func TestInMemoryCredentialStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryCredentialStoreSuite))
}

func (s *InMemoryCredentialStoreSuite) SetupTest() {
	s.store = NewMemory()
}

func (s *InMemoryCredentialStoreSuite) cred(id, email string) Credential {
	return Credential{
		UserID:       id,
		Email:        email,
		Name:         "Test User",
		PasswordHash: "hash",
		CreatedAt:    time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (s *InMemoryCredentialStoreSuite) TestCreate() {
	ctx := context.Background()

	s.Run("creates and finds by id and email", func() {
		err := s.store.Create(ctx, s.cred("u1", "A@B.com"))
		s.NoError(err)

		byID, err := s.store.FindByID(ctx, "u1")
		s.NoError(err)
		s.Equal("A@B.com", byID.Email)

		// Email lookup is case-insensitive
		byEmail, err := s.store.FindByEmail(ctx, "a@b.COM")
		s.NoError(err)
		s.Equal("u1", byEmail.UserID)
	})

	s.Run("duplicate email conflicts", func() {
		s.NoError(s.store.Create(ctx, s.cred("u2", "dup@x.com")))
		err := s.store.Create(ctx, s.cred("u3", "DUP@x.com"))
		s.ErrorIs(err, sentinel.ErrConflict)
	})
}

func (s *InMemoryCredentialStoreSuite) TestFindMissing() {
	ctx := context.Background()

	_, err := s.store.FindByID(ctx, "nope")
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByEmail(ctx, "nope@x.com")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryCredentialStoreSuite) TestSetEmailVerified() {
	ctx := context.Background()
	s.NoError(s.store.Create(ctx, s.cred("u1", "a@b.com")))

	s.NoError(s.store.SetEmailVerified(ctx, "u1", true))

	cred, err := s.store.FindByID(ctx, "u1")
	s.NoError(err)
	s.True(cred.EmailVerified)

	s.ErrorIs(s.store.SetEmailVerified(ctx, "ghost", true), sentinel.ErrNotFound)
}

func (s *InMemoryCredentialStoreSuite) TestSetPasswordHash() {
	ctx := context.Background()
	s.NoError(s.store.Create(ctx, s.cred("u1", "a@b.com")))

	s.NoError(s.store.SetPasswordHash(ctx, "u1", "new-hash"))

	cred, err := s.store.FindByID(ctx, "u1")
	s.NoError(err)
	s.Equal("new-hash", cred.PasswordHash)
}
