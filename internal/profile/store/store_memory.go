package store

import (
	"context"
	"sync"
	"time"

	"campusgate/internal/profile"
	"campusgate/pkg/platform/sentinel"
	"campusgate/pkg/requestcontext"
)

// InMemoryStore keeps profiles in a mutex-guarded map.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]profile.Profile
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[string]profile.Profile)}
}

func (s *InMemoryStore) Get(_ context.Context, userID string) (profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return profile.Profile{}, sentinel.ErrNotFound
	}
	return p, nil
}

func (s *InMemoryStore) UpsertMerge(ctx context.Context, userID string, patch profile.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.profiles[userID]
	p.UserID = userID
	patch.Apply(&p)
	p.UpdatedAt = requestcontext.Now(ctx)
	s.profiles[userID] = p
	return nil
}

func (s *InMemoryStore) SetAdminVerified(_ context.Context, userID string, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.AdminVerified = verified
	s.profiles[userID] = p
	return nil
}

func (s *InMemoryStore) SetLastLogin(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.LastLogin = at
	s.profiles[userID] = p
	return nil
}
