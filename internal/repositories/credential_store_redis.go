package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clipstream/backend/internal/auth"
)

const refreshKeyPrefix = "session:refresh:"

// swapScript rotates the refresh slot only when it still holds the expected
// hash, making the compare-and-swap atomic on the Redis side.
var swapScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
	return 1
end
return 0
`)

// NewRedisCredentialStore returns a refresh credential store keeping the
// single slot per user in Redis with a TTL matching the token expiry.
func NewRedisCredentialStore(client *redis.Client) *RedisCredentialStore {
	return &RedisCredentialStore{client: client}
}

// RedisCredentialStore implements auth.CredentialStore on a Redis keyspace.
type RedisCredentialStore struct {
	client *redis.Client
}

var _ auth.CredentialStore = (*RedisCredentialStore)(nil)

// Store overwrites the user's refresh credential slot.
func (s *RedisCredentialStore) Store(ctx context.Context, userID, credentialHash string, expiresAt time.Time) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("store refresh credential: expiry %v is in the past", expiresAt)
	}
	if err := s.client.Set(ctx, refreshKeyPrefix+userID, credentialHash, ttl).Err(); err != nil {
		return fmt.Errorf("store refresh credential: %w", err)
	}
	return nil
}

// Swap rotates the slot with an atomic compare-and-swap.
func (s *RedisCredentialStore) Swap(ctx context.Context, userID, oldHash, newHash string, expiresAt time.Time) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("rotate refresh credential: expiry %v is in the past", expiresAt)
	}

	swapped, err := swapScript.Run(ctx, s.client,
		[]string{refreshKeyPrefix + userID}, oldHash, newHash, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("rotate refresh credential: %w", err)
	}
	if swapped == 0 {
		return auth.ErrCredentialMismatch
	}
	return nil
}

// Clear empties the user's slot.
func (s *RedisCredentialStore) Clear(ctx context.Context, userID string) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	if err := s.client.Del(ctx, refreshKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("clear refresh credential: %w", err)
	}
	return nil
}
