package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

var (
	// ErrInvalidCredentials indicates a password check failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the presented token failed verification or
	// no longer matches the stored refresh credential.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrCredentialMismatch indicates a compare-and-swap on the stored
	// refresh credential failed: the presented token has been superseded.
	ErrCredentialMismatch = errors.New("refresh credential superseded")
)

// CredentialStore persists the single current refresh credential per user.
// Swap must be atomic with respect to concurrent refreshes: exactly one of
// two racing rotations presenting the same old hash may succeed.
type CredentialStore interface {
	// Store overwrites the user's refresh credential slot.
	Store(ctx context.Context, userID, credentialHash string, expiresAt time.Time) error
	// Swap replaces the slot only if it currently holds oldHash, failing
	// with ErrCredentialMismatch otherwise.
	Swap(ctx context.Context, userID, oldHash, newHash string, expiresAt time.Time) error
	// Clear empties the slot so every outstanding refresh credential is
	// rejected.
	Clear(ctx context.Context, userID string) error
}

// HashCredential derives the stored form of a refresh token. Only the hash is
// persisted so a leaked store cannot replay live credentials.
func HashCredential(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
