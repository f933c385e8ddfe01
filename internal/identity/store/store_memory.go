package store

import (
	"context"
	"strings"
	"sync"

	"campusgate/pkg/platform/sentinel"
)

// InMemoryCredentialStore keeps accounts in a mutex-guarded map. It favors
// clarity over performance and backs development and unit tests.
type InMemoryCredentialStore struct {
	mu      sync.RWMutex
	byID    map[string]Credential
	byEmail map[string]string
}

func NewMemory() *InMemoryCredentialStore {
	return &InMemoryCredentialStore{
		byID:    make(map[string]Credential),
		byEmail: make(map[string]string),
	}
}

func (s *InMemoryCredentialStore) Create(_ context.Context, cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := normalizeEmail(cred.Email)
	if _, exists := s.byEmail[email]; exists {
		return sentinel.ErrConflict
	}
	s.byID[cred.UserID] = cred
	s.byEmail[email] = cred.UserID
	return nil
}

func (s *InMemoryCredentialStore) FindByEmail(_ context.Context, email string) (Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return Credential{}, sentinel.ErrNotFound
	}
	return s.byID[userID], nil
}

func (s *InMemoryCredentialStore) FindByID(_ context.Context, userID string) (Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.byID[userID]
	if !ok {
		return Credential{}, sentinel.ErrNotFound
	}
	return cred, nil
}

func (s *InMemoryCredentialStore) SetEmailVerified(_ context.Context, userID string, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.byID[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	cred.EmailVerified = verified
	s.byID[userID] = cred
	return nil
}

func (s *InMemoryCredentialStore) SetPasswordHash(_ context.Context, userID string, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.byID[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	cred.PasswordHash = hash
	s.byID[userID] = cred
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
