// Package auth issues, verifies, rotates and revokes the access/refresh token pairs
// that identify VideoTube users.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/videotube/backend/internal/config"
	"github.com/videotube/backend/internal/errs"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/metrics"
	"github.com/videotube/backend/internal/models"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// UserStore is the slice of user persistence the token manager relies on.
type UserStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	// SetRefreshToken overwrites the stored refresh token digest. Missing users yield errs.ErrNotFound.
	SetRefreshToken(ctx context.Context, userID, tokenHash string) error
	// SwapRefreshToken replaces currentHash with nextHash only when currentHash is still stored.
	// A mismatch yields errs.ErrNotFound.
	SwapRefreshToken(ctx context.Context, userID, currentHash, nextHash string) error
	// ClearRefreshToken removes any stored digest and succeeds when none is present.
	ClearRefreshToken(ctx context.Context, userID string) error
}

// Claims carried by both token kinds. Profile fields are only populated on access tokens.
type Claims struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"fullName,omitempty"`
	Type     string `json:"typ"`
	jwt.RegisteredClaims
}

// Manager signs HS256 tokens and keeps a single active refresh token per user.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	users UserStore
	now   func() time.Time
}

// NewManager constructs a Manager from the auth configuration.
func NewManager(cfg config.AuthConfig, users UserStore) *Manager {
	if users == nil {
		panic("auth: user store must not be nil")
	}
	return &Manager{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		users:         users,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithNowFunc allows tests to override the time source.
func (m *Manager) WithNowFunc(now func() time.Time) *Manager {
	m.now = now
	return m
}

// IssueTokenPair signs a fresh pair for userID and stores the refresh token digest,
// superseding any earlier session.
func (m *Manager) IssueTokenPair(ctx context.Context, userID string) (models.SessionTokens, error) {
	ctx, span := logging.StartSpan(ctx, "auth.issue")
	defer span.End()

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return models.SessionTokens{}, errs.New(errs.ErrNotFound, "user not found")
		}
		return models.SessionTokens{}, fmt.Errorf("load user: %w", err)
	}

	tokens, err := m.sign(user)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.users.SetRefreshToken(ctx, user.ID, HashToken(tokens.RefreshToken)); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return models.SessionTokens{}, errs.New(errs.ErrNotFound, "user not found")
		}
		return models.SessionTokens{}, fmt.Errorf("store refresh token: %w", err)
	}

	metrics.TokenEvents.WithLabelValues("issued").Inc()
	logging.FromContext(ctx).Info("issued token pair", "userId", user.ID)
	return tokens, nil
}

// VerifyAccessToken checks signature, expiry and token type.
func (m *Manager) VerifyAccessToken(token string) (*Claims, error) {
	return m.parse(token, m.accessSecret, tokenTypeAccess)
}

// Authenticate verifies an access token and resolves its user. A user that no longer
// exists is reported as an invalid token.
func (m *Manager) Authenticate(ctx context.Context, token string) (models.User, error) {
	claims, err := m.VerifyAccessToken(token)
	if err != nil {
		return models.User{}, err
	}

	user, err := m.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return models.User{}, errs.New(errs.ErrInvalidToken, "invalid access token")
		}
		return models.User{}, fmt.Errorf("resolve token subject: %w", err)
	}

	return user.Public(), nil
}

// Rotate exchanges the currently stored refresh token for a new pair. Tokens that fail
// verification, or that are no longer the stored one, are rejected.
func (m *Manager) Rotate(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	ctx, span := logging.StartSpan(ctx, "auth.rotate")
	defer span.End()

	claims, err := m.parse(refreshToken, m.refreshSecret, tokenTypeRefresh)
	if err != nil {
		metrics.TokenEvents.WithLabelValues("rejected").Inc()
		span.Fail(err)
		return models.SessionTokens{}, err
	}

	user, err := m.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return models.SessionTokens{}, errs.New(errs.ErrInvalidToken, "invalid refresh token")
		}
		return models.SessionTokens{}, fmt.Errorf("resolve token subject: %w", err)
	}

	tokens, err := m.sign(user)
	if err != nil {
		return models.SessionTokens{}, err
	}

	err = m.users.SwapRefreshToken(ctx, user.ID, HashToken(refreshToken), HashToken(tokens.RefreshToken))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			metrics.TokenEvents.WithLabelValues("rejected").Inc()
			logging.FromContext(ctx).Warn("refresh token is not the active one", "userId", user.ID)
			return models.SessionTokens{}, errs.New(errs.ErrInvalidToken, "refresh token is expired or used")
		}
		return models.SessionTokens{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	metrics.TokenEvents.WithLabelValues("rotated").Inc()
	return tokens, nil
}

// Revoke clears the stored refresh token for userID. It is idempotent.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if err := m.users.ClearRefreshToken(ctx, userID); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	metrics.TokenEvents.WithLabelValues("revoked").Inc()
	return nil
}

func (m *Manager) sign(user models.User) (models.SessionTokens, error) {
	now := m.now()
	accessExp := now.Add(m.accessTTL)
	refreshExp := now.Add(m.refreshTTL)

	access := &Claims{
		Username:         user.Username,
		Email:            user.Email,
		FullName:         user.FullName,
		Type:             tokenTypeAccess,
		RegisteredClaims: m.registered(user.ID, now, accessExp),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, access).SignedString(m.accessSecret)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh := &Claims{
		Type:             tokenTypeRefresh,
		RegisteredClaims: m.registered(user.ID, now, refreshExp),
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refresh).SignedString(m.refreshSecret)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (m *Manager) registered(subject string, now, expires time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
}

func (m *Manager) parse(token string, secret []byte, wantType string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errs.New(errs.ErrInvalidToken, "invalid "+wantType+" token")
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return nil, errs.New(errs.ErrInvalidToken, "invalid "+wantType+" token")
	}
	if claims.Type != wantType || claims.Subject == "" {
		return nil, errs.New(errs.ErrInvalidToken, "invalid "+wantType+" token")
	}

	return claims, nil
}
