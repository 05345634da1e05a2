package auth

import (
	"context"
	"sync"
	"time"
)

type credentialSlot struct {
	hash      string
	expiresAt time.Time
}

// NewInMemoryCredentialStore returns a CredentialStore backed by an in-memory map.
func NewInMemoryCredentialStore() *InMemoryCredentialStore {
	return &InMemoryCredentialStore{slots: make(map[string]credentialSlot)}
}

// InMemoryCredentialStore implements CredentialStore for tests and local development.
type InMemoryCredentialStore struct {
	mu    sync.Mutex
	slots map[string]credentialSlot
}

// Store overwrites the user's refresh credential slot.
func (s *InMemoryCredentialStore) Store(_ context.Context, userID, credentialHash string, expiresAt time.Time) error {
	s.mu.Lock()
	s.slots[userID] = credentialSlot{hash: credentialHash, expiresAt: expiresAt}
	s.mu.Unlock()
	return nil
}

// Swap replaces the slot only when it currently holds oldHash.
func (s *InMemoryCredentialStore) Swap(_ context.Context, userID, oldHash, newHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[userID]
	if !ok || slot.hash != oldHash {
		return ErrCredentialMismatch
	}
	s.slots[userID] = credentialSlot{hash: newHash, expiresAt: expiresAt}
	return nil
}

// Clear empties the user's slot.
func (s *InMemoryCredentialStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	delete(s.slots, userID)
	s.mu.Unlock()
	return nil
}

// Has reports whether a slot holds the provided hash. Useful for tests.
func (s *InMemoryCredentialStore) Has(userID, credentialHash string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[userID]
	return ok && slot.hash == credentialHash
}
