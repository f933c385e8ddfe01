package store

import (
	"context"
	"sync"

	"campusgate/pkg/platform/sentinel"
)

// InMemoryStore keeps codes in a mutex-guarded map. Consume holds the lock
// across both writes and reverts the code record if the profile write fails,
// so observers never see a consumed code without the verified flag.
type InMemoryStore struct {
	mu       sync.Mutex
	codes    map[string]Code
	profiles ProfileVerifier
}

func NewMemory(profiles ProfileVerifier) *InMemoryStore {
	return &InMemoryStore{
		codes:    make(map[string]Code),
		profiles: profiles,
	}
}

func (s *InMemoryStore) Put(_ context.Context, code Code) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code.UserID] = code
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, userID string) (Code, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[userID]
	if !ok {
		return Code{}, sentinel.ErrNotFound
	}
	return c, nil
}

func (s *InMemoryStore) Consume(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.codes[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if c.Used {
		return sentinel.ErrAlreadyUsed
	}

	c.Used = true
	s.codes[userID] = c

	if err := s.profiles.SetAdminVerified(ctx, userID, true); err != nil {
		// Roll the code back so the user can retry once the profile
		// store recovers.
		c.Used = false
		s.codes[userID] = c
		return err
	}
	return nil
}
