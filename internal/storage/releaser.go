package storage

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/clipstream/backend/internal/models"
)

// ReleaserConfig controls the concurrency characteristics of the releaser.
type ReleaserConfig struct {
	QueueSize int
	Workers   int
}

// Releaser deletes replaced or orphaned media objects in the background.
// Deletes are best effort: a failure is logged and the object leaks until the
// next cleanup, which is preferable to failing the request that replaced it.
type Releaser struct {
	store  ObjectStore
	logger *slog.Logger

	jobs   chan string
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

var errReleaserClosed = errors.New("media releaser closed")

// NewReleaser starts a background worker pool deleting released objects.
func NewReleaser(store ObjectStore, cfg ReleaserConfig, logger *slog.Logger) *Releaser {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	r := &Releaser{
		store:  store,
		logger: logger,
		jobs:   make(chan string, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	r.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go r.worker()
	}

	return r
}

// Release schedules deletion of the object behind ref. References without a
// store id (external URLs, empty slots) are ignored.
func (r *Releaser) Release(ctx context.Context, ref models.MediaRef) error {
	if ref.StoreID == "" {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.ctx.Done():
		return errReleaserClosed
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.ctx.Done():
		return errReleaserClosed
	case r.jobs <- ref.StoreID:
		return nil
	}
}

// Shutdown stops accepting work and waits for queued deletes to drain.
func (r *Releaser) Shutdown(ctx context.Context) error {
	r.once.Do(func() {
		r.cancel()
		close(r.jobs)
	})

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (r *Releaser) worker() {
	defer r.wg.Done()

	for storeID := range r.jobs {
		r.deleteObject(storeID)
	}
}

func (r *Releaser) deleteObject(storeID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := r.store.Delete(ctx, storeID); err != nil {
		r.logger.Error("release media object", "storeId", storeID, "error", err)
	}
}
