package views

import (
	"context"
	"sync"
	"time"

	"github.com/clipstream/backend/internal/models"
)

type countEntry struct {
	value   int64
	expires time.Time
}

// CachingEngagement wraps an engagement reader with a TTL cache over the
// aggregate counters. Per-viewer flags pass straight through; only the
// counts, which every viewer shares, are worth caching. Counts may trail a
// toggle by up to the TTL.
type CachingEngagement struct {
	EngagementReader
	ttl time.Duration

	mu     sync.RWMutex
	counts map[string]countEntry
}

// NewCachingEngagement returns an engagement reader caching counters for the
// provided TTL.
func NewCachingEngagement(base EngagementReader, ttl time.Duration) *CachingEngagement {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachingEngagement{
		EngagementReader: base,
		ttl:              ttl,
		counts:           make(map[string]countEntry),
	}
}

// CountLikes returns the cached like counter, refreshing it on expiry.
func (c *CachingEngagement) CountLikes(ctx context.Context, kind models.LikeKind, targetID string) (int64, error) {
	return c.cached("likes:"+string(kind)+":"+targetID, func() (int64, error) {
		return c.EngagementReader.CountLikes(ctx, kind, targetID)
	})
}

// CountSubscribers returns the cached subscriber counter.
func (c *CachingEngagement) CountSubscribers(ctx context.Context, channelID string) (int64, error) {
	return c.cached("subscribers:"+channelID, func() (int64, error) {
		return c.EngagementReader.CountSubscribers(ctx, channelID)
	})
}

// CountSubscriptions returns the cached subscribed-to counter.
func (c *CachingEngagement) CountSubscriptions(ctx context.Context, subscriberID string) (int64, error) {
	return c.cached("subscriptions:"+subscriberID, func() (int64, error) {
		return c.EngagementReader.CountSubscriptions(ctx, subscriberID)
	})
}

func (c *CachingEngagement) cached(key string, load func() (int64, error)) (int64, error) {
	now := time.Now()

	c.mu.RLock()
	entry, ok := c.counts[key]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.value, nil
	}

	value, err := load()
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.counts[key] = countEntry{value: value, expires: now.Add(c.ttl)}
	c.mu.Unlock()

	return value, nil
}
