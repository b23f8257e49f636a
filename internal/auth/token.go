package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/ledger"
)

// TokenPair is an access token with its companion refresh token and the
// (provider, identity) it was issued for.
type TokenPair struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	Identity              string
	Provider              string
}

// TokenManager issues token pairs and validates them against the signature and the ledger.
type TokenManager struct {
	codec      *Codec
	ledger     *ledger.Client
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *zap.Logger
}

// NewTokenManager builds a new manager.
func NewTokenManager(codec *Codec, ledgerClient *ledger.Client, accessTTL, refreshTTL time.Duration, logger *zap.Logger) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 14 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenManager{
		codec:      codec,
		ledger:     ledgerClient,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// IssuePair signs a new access and refresh token from one shared issue time.
// It does not touch the ledger; see Grant.
func (m *TokenManager) IssuePair(identity string, role domain.Role, provider string) (*TokenPair, error) {
	if identity == "" {
		return nil, errors.New("auth: identity required")
	}
	if !role.Valid() {
		return nil, fmt.Errorf("auth: unknown role %q", role)
	}
	if provider == "" {
		provider = ledger.ProviderLocal
	}

	now := m.codec.Now().UTC().Truncate(time.Second)
	accessExp := now.Add(m.accessTTL)
	refreshExp := now.Add(m.refreshTTL)

	access, err := m.codec.Issue(Claims{
		Kind:     KindAccess,
		Identity: identity,
		Role:     role,
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
	})
	if err != nil {
		return nil, err
	}

	refresh, err := m.codec.Issue(Claims{
		Kind: KindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExp),
		},
	})
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:           access,
		RefreshToken:          refresh,
		AccessTokenExpiresAt:  accessExp,
		RefreshTokenExpiresAt: refreshExp,
		Identity:              identity,
		Provider:              provider,
	}, nil
}

// Grant issues a pair and records its refresh token as the only live one for
// (provider, identity), replacing whatever was stored there.
func (m *TokenManager) Grant(ctx context.Context, identity string, role domain.Role, provider string) (*TokenPair, error) {
	pair, err := m.IssuePair(identity, role, provider)
	if err != nil {
		return nil, err
	}
	key := ledger.RefreshKey(provider, identity)
	if err := m.ledger.Put(ctx, key, ledger.Active(pair.RefreshToken), m.refreshTTL); err != nil {
		return nil, err
	}
	return pair, nil
}

// ValidateAccess checks the ledger for the literal token, then its signature and
// expiry, then whether the identity was withdrawn.
func (m *TokenManager) ValidateAccess(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrEmpty
	}

	if err := m.rejectRevoked(ctx, ledger.AccessKey(token)); err != nil {
		return nil, err
	}

	claims, err := m.codec.Parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Kind != KindAccess {
		return nil, fmt.Errorf("%w: %s token used for access", ErrMalformed, claims.Kind)
	}

	entry, ok, err := m.ledger.Lookup(ctx, ledger.RefreshKey(claims.Provider, claims.Identity))
	if errors.Is(err, ledger.ErrCorruptEntry) {
		return nil, fmt.Errorf("%w: %w", ErrRevoked, err)
	}
	if err != nil {
		return nil, err
	}
	if ok && entry.State == ledger.StateAccountDeleted {
		return nil, fmt.Errorf("%w: account deleted", ErrRevoked)
	}

	withdrawn, err := m.withdrawnSince(ctx, claims.Identity, claims.IssuedAt)
	if err != nil {
		return nil, err
	}
	if withdrawn {
		return nil, fmt.Errorf("%w: account deleted", ErrRevoked)
	}

	return newPrincipal(claims, token), nil
}

// ValidateRefresh reports whether token is a well-formed, unexpired refresh token
// and, when key is given, whether the ledger still holds it as the live token under key.
// Only store failures are returned as errors.
func (m *TokenManager) ValidateRefresh(ctx context.Context, token, key string) (bool, error) {
	claims, err := m.codec.Parse(token)
	if err != nil {
		m.logger.Debug("refresh token rejected", zap.String("code", ErrorCode(err)))
		return false, nil
	}
	if claims.Kind != KindRefresh {
		return false, nil
	}
	if key == "" {
		return true, nil
	}

	entry, ok, err := m.ledger.Lookup(ctx, key)
	switch {
	case errors.Is(err, ledger.ErrCorruptEntry):
		m.logger.Warn("corrupt refresh ledger entry", zap.String("key", key))
		return false, nil
	case err != nil:
		return false, err
	case !ok:
		return false, nil
	case entry.Revoked():
		return false, nil
	case !entry.Holds(token):
		return false, nil
	}

	if _, identity, ok := ledger.ParseRefreshKey(key); ok {
		withdrawn, err := m.withdrawnSince(ctx, identity, claims.IssuedAt)
		if err != nil {
			return false, err
		}
		return !withdrawn, nil
	}
	return true, nil
}

// IsExpired reports whether token is past its expiry. Any parse failure counts as expired.
func (m *TokenManager) IsExpired(token string) bool {
	claims, err := m.codec.Parse(token)
	if err != nil || claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return !m.codec.Now().Before(claims.ExpiresAt.Time)
}

// Logout records accessToken as logged out for the rest of its lifetime and
// ends the refresh session of its identity.
func (m *TokenManager) Logout(ctx context.Context, accessToken string) error {
	claims, err := m.accessClaims(accessToken)
	if err != nil {
		return err
	}
	if err := m.revokeAccess(ctx, accessToken, claims); err != nil {
		return err
	}
	return m.ledger.Remove(ctx, ledger.RefreshKey(claims.Provider, claims.Identity))
}

// Withdraw marks the identity behind accessToken as deleted. Every token of that
// identity issued up to now is rejected from then on, whatever its provider, even
// after a later grant for the same identity overwrites the refresh key.
func (m *TokenManager) Withdraw(ctx context.Context, accessToken string) error {
	claims, err := m.accessClaims(accessToken)
	if err != nil {
		return err
	}
	key := ledger.RefreshKey(claims.Provider, claims.Identity)
	if err := m.ledger.Put(ctx, key, ledger.AccountDeleted(), 0); err != nil {
		return err
	}
	if err := m.ledger.MarkWithdrawn(ctx, claims.Identity, m.codec.Now(), m.refreshTTL); err != nil {
		return err
	}
	return m.revokeAccess(ctx, accessToken, claims)
}

// accessClaims parses an access token, tolerating expiry.
func (m *TokenManager) accessClaims(token string) (*Claims, error) {
	claims, err := m.codec.Parse(token)
	if err != nil && !errors.Is(err, ErrExpired) {
		return nil, err
	}
	if claims.Kind != KindAccess {
		return nil, fmt.Errorf("%w: %s token used for access", ErrMalformed, claims.Kind)
	}
	return claims, nil
}

func (m *TokenManager) revokeAccess(ctx context.Context, token string, claims *Claims) error {
	remaining := claims.ExpiresAt.Time.Sub(m.codec.Now())
	if remaining <= 0 {
		return nil
	}
	return m.ledger.Put(ctx, ledger.AccessKey(token), ledger.LoggedOut(), remaining)
}

// withdrawnSince reports whether identity withdrew at or after issuedAt. Issue
// times have second precision, so a token issued in the withdrawal's second is revoked too.
func (m *TokenManager) withdrawnSince(ctx context.Context, identity string, issuedAt *jwt.NumericDate) (bool, error) {
	at, ok, err := m.ledger.WithdrawnAt(ctx, identity)
	if errors.Is(err, ledger.ErrCorruptEntry) {
		m.logger.Warn("corrupt withdrawal ledger entry")
		return true, nil
	}
	if err != nil || !ok {
		return false, err
	}
	return issuedAt == nil || !issuedAt.Time.After(at), nil
}

func (m *TokenManager) rejectRevoked(ctx context.Context, key string) error {
	entry, ok, err := m.ledger.Lookup(ctx, key)
	if errors.Is(err, ledger.ErrCorruptEntry) {
		return fmt.Errorf("%w: %w", ErrRevoked, err)
	}
	if err != nil {
		return err
	}
	if ok && entry.Revoked() {
		return fmt.Errorf("%w: %s", ErrRevoked, entry.State)
	}
	return nil
}
