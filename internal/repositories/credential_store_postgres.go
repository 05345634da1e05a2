package repositories

import (
	"context"
	"time"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/db"
)

// NewPostgresCredentialStore returns a refresh credential store persisting the
// single slot per user on the users row.
func NewPostgresCredentialStore(pool db.Pool) *PostgresCredentialStore {
	return &PostgresCredentialStore{pool: pool}
}

// PostgresCredentialStore implements auth.CredentialStore on the users table.
type PostgresCredentialStore struct {
	pool db.Pool
}

var _ auth.CredentialStore = (*PostgresCredentialStore)(nil)

// Store overwrites the user's refresh credential slot.
func (s *PostgresCredentialStore) Store(ctx context.Context, userID, credentialHash string, expiresAt time.Time) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return mapError("store refresh credential", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx,
		`UPDATE users SET refresh_hash = $2, refresh_expires_at = $3 WHERE id = $1`,
		userID, credentialHash, expiresAt)
	if err != nil {
		return mapError("store refresh credential", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Swap rotates the slot with a compare-and-swap on the stored hash. When two
// refreshes race with the same token, the row predicate lets exactly one win.
func (s *PostgresCredentialStore) Swap(ctx context.Context, userID, oldHash, newHash string, expiresAt time.Time) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return mapError("rotate refresh credential", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx,
		`UPDATE users
		 SET refresh_hash = $3, refresh_expires_at = $4
		 WHERE id = $1 AND refresh_hash = $2 AND refresh_hash <> '' AND refresh_expires_at > now()`,
		userID, oldHash, newHash, expiresAt)
	if err != nil {
		return mapError("rotate refresh credential", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrCredentialMismatch
	}
	return nil
}

// Clear empties the user's slot. Clearing an unknown user is a no-op.
func (s *PostgresCredentialStore) Clear(ctx context.Context, userID string) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return mapError("clear refresh credential", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx,
		`UPDATE users SET refresh_hash = '', refresh_expires_at = NULL WHERE id = $1`,
		userID)
	return mapError("clear refresh credential", err)
}
