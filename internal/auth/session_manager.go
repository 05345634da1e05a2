package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/models"
)

const (
	tokenIssuer = "clipstream"

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims carries the signed session claims alongside the registered set.
type Claims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// UserDirectory captures the user lookups the session manager needs.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByLogin(ctx context.Context, identifier string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// Manager issues, verifies, and rotates paired access/refresh credentials.
// Each user holds exactly one valid refresh credential at a time, so the most
// recent login or refresh invalidates every earlier session's refresh ability.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	users UserDirectory
	creds CredentialStore

	// NowFunc overrides the time source in tests.
	NowFunc func() time.Time
}

// NewManager constructs a Manager signing tokens with the provided secret.
func NewManager(secret []byte, accessTTL, refreshTTL time.Duration, users UserDirectory, creds CredentialStore) *Manager {
	if len(secret) == 0 {
		panic("auth: signing secret must not be empty")
	}
	if users == nil || creds == nil {
		panic("auth: user directory and credential store must not be nil")
	}
	return &Manager{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		users:      users,
		creds:      creds,
	}
}

// Login authenticates by username or email (case-folded) and issues a fresh
// token pair, overwriting any previously stored refresh credential.
func (m *Manager) Login(ctx context.Context, identifier, password string) (models.User, models.SessionTokens, error) {
	user, err := m.users.FindByLogin(ctx, identifier)
	if err != nil {
		return models.User{}, models.SessionTokens{}, err
	}

	if !CheckPassword(user.Password, password) {
		return models.User{}, models.SessionTokens{}, ErrInvalidCredentials
	}

	tokens, err := m.Issue(ctx, user.ID)
	if err != nil {
		return models.User{}, models.SessionTokens{}, err
	}
	return user, tokens, nil
}

// Issue mints a new access/refresh pair for the user and stores the refresh
// credential hash as the user's single valid slot.
func (m *Manager) Issue(ctx context.Context, userID string) (models.SessionTokens, error) {
	if userID == "" {
		return models.SessionTokens{}, errors.New("user id must be provided")
	}

	tokens, err := m.mint(userID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.creds.Store(ctx, userID, HashCredential(tokens.RefreshToken), tokens.RefreshExpiresAt); err != nil {
		return models.SessionTokens{}, fmt.Errorf("store refresh credential: %w", err)
	}
	return tokens, nil
}

// Refresh exchanges a refresh token for a new pair, rotating the stored
// credential. Presenting a superseded token fails even when its signature and
// expiry are still valid.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	claims, err := m.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return models.SessionTokens{}, err
	}
	userID := claims.Subject

	if _, err := m.users.FindByID(ctx, userID); err != nil {
		return models.SessionTokens{}, ErrInvalidToken
	}

	tokens, err := m.mint(userID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	err = m.creds.Swap(ctx, userID,
		HashCredential(refreshToken), HashCredential(tokens.RefreshToken), tokens.RefreshExpiresAt)
	if err != nil {
		if errors.Is(err, ErrCredentialMismatch) {
			return models.SessionTokens{}, ErrInvalidToken
		}
		return models.SessionTokens{}, fmt.Errorf("rotate refresh credential: %w", err)
	}

	return tokens, nil
}

// Logout clears the stored refresh credential; outstanding refresh tokens
// stop working immediately. Access tokens remain valid until they expire.
func (m *Manager) Logout(ctx context.Context, userID string) error {
	return m.creds.Clear(ctx, userID)
}

// VerifyAccess validates an access token and returns the embedded user id.
// It never touches the stored refresh credential.
func (m *Manager) VerifyAccess(token string) (string, error) {
	claims, err := m.parse(token, tokenTypeAccess)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ChangePassword verifies the old password before replacing the stored hash.
// Outstanding tokens are deliberately left valid; see DESIGN.md.
func (m *Manager) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if !CheckPassword(user.Password, oldPassword) {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return m.users.UpdatePassword(ctx, userID, hash)
}

func (m *Manager) mint(userID string) (models.SessionTokens, error) {
	now := m.now()

	access, accessExp, err := m.sign(userID, tokenTypeAccess, now, m.accessTTL)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, refreshExp, err := m.sign(userID, tokenTypeRefresh, now, m.refreshTTL)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return models.SessionTokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (m *Manager) sign(userID, tokenType string, now time.Time, ttl time.Duration) (string, time.Time, error) {
	expiresAt := now.Add(ttl)
	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (m *Manager) parse(token, wantType string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.TokenType != wantType || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

func (m *Manager) now() time.Time {
	if m.NowFunc != nil {
		return m.NowFunc()
	}
	return time.Now().UTC()
}
