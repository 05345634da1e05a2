package storage

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/clipstream/backend/internal/models"
)

type recordingStore struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (s *recordingStore) Put(_ context.Context, key string, _ io.Reader) (models.MediaRef, error) {
	return models.MediaRef{URL: key, StoreID: key}, nil
}

func (s *recordingStore) Delete(_ context.Context, storeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, storeID)
	return nil
}

func (s *recordingStore) deletedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

func TestReleaserDeletesQueuedObjects(t *testing.T) {
	store := &recordingStore{}
	releaser := NewReleaser(store, ReleaserConfig{QueueSize: 4, Workers: 2}, nil)

	refs := []models.MediaRef{
		{URL: "https://cdn.example.com/a.png", StoreID: "avatars/a.png"},
		{URL: "https://cdn.example.com/b.png", StoreID: "avatars/b.png"},
	}
	for _, ref := range refs {
		if err := releaser.Release(context.Background(), ref); err != nil {
			t.Fatalf("Release returned error: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := releaser.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}

	deleted := store.deletedKeys()
	if len(deleted) != 2 {
		t.Fatalf("deleted %d objects, want 2", len(deleted))
	}
}

func TestReleaserIgnoresExternalRefs(t *testing.T) {
	store := &recordingStore{}
	releaser := NewReleaser(store, ReleaserConfig{}, nil)

	// A ref without a store id points outside the object store.
	if err := releaser.Release(context.Background(), models.MediaRef{URL: "https://elsewhere.example.com/x.png"}); err != nil {
		t.Fatalf("Release returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := releaser.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}
	if len(store.deletedKeys()) != 0 {
		t.Fatal("external refs must not be deleted")
	}
}

func TestReleaserRejectsAfterShutdown(t *testing.T) {
	store := &recordingStore{}
	releaser := NewReleaser(store, ReleaserConfig{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := releaser.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}

	err := releaser.Release(context.Background(), models.MediaRef{StoreID: "late.png"})
	if !errors.Is(err, errReleaserClosed) {
		t.Fatalf("Release after Shutdown error = %v, want errReleaserClosed", err)
	}
}

func TestReleaserSurvivesDeleteFailures(t *testing.T) {
	store := &recordingStore{err: errors.New("bucket gone")}
	releaser := NewReleaser(store, ReleaserConfig{}, nil)

	if err := releaser.Release(context.Background(), models.MediaRef{StoreID: "gone.png"}); err != nil {
		t.Fatalf("Release returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := releaser.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}
}
