package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

var (
	// ErrInvalidToken indicates a token that is missing, malformed, expired,
	// or carries a bad signature.
	ErrInvalidToken = errors.New("invalid token")
	// ErrStaleRefreshToken indicates a refresh token that no longer matches
	// the single value stored for the user. Issued tokens go stale the moment
	// a newer pair is minted or the user logs out.
	ErrStaleRefreshToken = errors.New("refresh token is stale or revoked")
	// ErrUnknownUser indicates the token references a user that no longer exists.
	ErrUnknownUser = errors.New("token references unknown user")
)

// UserStore is the slice of user persistence the token manager needs. The
// refresh token update is a dedicated call so that persisting a token never
// re-runs credential hashing or full-record validation.
type UserStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	UpdateRefreshToken(ctx context.Context, userID, refreshToken string) error
}

// AccessClaims are carried inside access tokens. The token is self-contained:
// the middleware can resolve the caller without a second credential lookup.
type AccessClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	jwt.RegisteredClaims
}

// TokenManager mints and validates the two classes of bearer token. Access
// tokens are short-lived and verified purely by signature; refresh tokens are
// longer-lived and additionally checked against the single value mirrored on
// the user record.
type TokenManager struct {
	users         UserStore
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string

	nowFunc func() time.Time
}

// NewTokenManager constructs a TokenManager backed by the provided user store.
func NewTokenManager(users UserStore, accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, issuer string) *TokenManager {
	if users == nil {
		panic("auth: user store must not be nil")
	}
	return &TokenManager{
		users:         users,
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		issuer:        issuer,
	}
}

// IssuePair mints a fresh access and refresh token for the user and persists
// the new refresh token onto the user record, invalidating any prior one.
func (m *TokenManager) IssuePair(ctx context.Context, userID string) (models.TokenPair, error) {
	if userID == "" {
		return models.TokenPair{}, errors.New("user id must be provided")
	}

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("load user for token issue: %w", err)
	}

	now := m.now()
	accessExpiry := now.Add(m.accessTTL)
	refreshExpiry := now.Add(m.refreshTTL)

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExpiry),
		},
	})
	accessToken, err := access.SignedString(m.accessSecret)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExpiry),
		},
	})
	refreshToken, err := refresh.SignedString(m.refreshSecret)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := m.users.UpdateRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return models.TokenPair{}, fmt.Errorf("persist refresh token: %w", err)
	}

	return models.TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiry,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

// VerifyAccess validates the signature and expiry of an access token and
// returns its claims.
func (m *TokenManager) VerifyAccess(raw string) (AccessClaims, error) {
	if raw == "" {
		return AccessClaims{}, ErrInvalidToken
	}

	var claims AccessClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return m.accessSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return AccessClaims{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return AccessClaims{}, ErrInvalidToken
	}

	return claims, nil
}

// RotateRefresh exchanges a refresh token for a brand-new pair. Only the most
// recently stored refresh token is honored; presenting any earlier one fails.
func (m *TokenManager) RotateRefresh(ctx context.Context, raw string) (models.TokenPair, error) {
	if raw == "" {
		return models.TokenPair{}, ErrInvalidToken
	}

	var claims refreshClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return m.refreshSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid || claims.Subject == "" {
		return models.TokenPair{}, ErrInvalidToken
	}

	user, err := m.users.FindByID(ctx, claims.Subject)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.TokenPair{}, ErrUnknownUser
	}
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("load user for token rotation: %w", err)
	}

	if user.RefreshToken == "" || user.RefreshToken != raw {
		return models.TokenPair{}, ErrStaleRefreshToken
	}

	return m.IssuePair(ctx, user.ID)
}

// Revoke clears the stored refresh token for the user, permanently
// invalidating every outstanding refresh token.
func (m *TokenManager) Revoke(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("user id must be provided")
	}
	return m.users.UpdateRefreshToken(ctx, userID, "")
}

func (m *TokenManager) now() time.Time {
	if m.nowFunc != nil {
		return m.nowFunc()
	}
	return time.Now().UTC()
}
