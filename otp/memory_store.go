package otp

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"
)

// MemoryStore is a process-local [Store] holding one challenge per user.
// It is safe for concurrent use and is intended for tests and single-node
// deployments; multi-node deployments use the Redis-backed store wired by
// the engine builder.
type MemoryStore struct {
	mu         sync.Mutex
	challenges map[string]*Challenge
}

// NewMemoryStore creates an empty in-memory challenge store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{challenges: make(map[string]*Challenge)}
}

func (s *MemoryStore) Save(_ context.Context, ch Challenge, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.challenges[ch.UserID] = &ch
	return nil
}

func (s *MemoryStore) FindValid(_ context.Context, userID string, now time.Time) (*Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.challenges[userID]
	if !ok || ch.Used || ch.Expired(now) {
		return nil, nil
	}
	copied := *ch
	return &copied, nil
}

func (s *MemoryStore) FindByUserAndCode(_ context.Context, userID, code string) (*Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.challenges[userID]
	if !ok || subtle.ConstantTimeCompare([]byte(ch.Code), []byte(code)) != 1 {
		return nil, nil
	}
	copied := *ch
	return &copied, nil
}

func (s *MemoryStore) Consume(_ context.Context, userID, code string, now time.Time, maxAttempts int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.challenges[userID]
	if !ok || ch.Used || ch.Expired(now) {
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(ch.Code), []byte(code)) != 1 {
		ch.Attempts++
		if maxAttempts > 0 && ch.Attempts >= maxAttempts {
			delete(s.challenges, userID)
		}
		return false, nil
	}
	ch.Used = true
	return true, nil
}

func (s *MemoryStore) DeleteAllForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.challenges, userID)
	return nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for userID, ch := range s.challenges {
		if ch.Expired(now) {
			delete(s.challenges, userID)
			removed++
		}
	}
	return removed, nil
}
