package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/ledger"
)

// PrincipalLookup resolves a token identity to the member it belongs to.
// Implementations return domain.ErrMemberNotFound for unknown identities.
type PrincipalLookup interface {
	GetByEmail(ctx context.Context, email string) (*domain.Member, error)
}

// ReissueState is a step of the reissue protocol.
type ReissueState int

const (
	StateValidatingRefresh ReissueState = iota
	StateReissuing
	StateDone
	StateRejected
)

func (s ReissueState) String() string {
	switch s {
	case StateValidatingRefresh:
		return "validating_refresh"
	case StateReissuing:
		return "reissuing"
	case StateDone:
		return "done"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Reissuer trades a live refresh token plus the prior access token for a new pair.
type Reissuer struct {
	tokens  *TokenManager
	members PrincipalLookup
	logger  *zap.Logger
}

// NewReissuer builds a reissuer. members may be nil, in which case the role
// embedded in the old access token is carried over.
func NewReissuer(tokens *TokenManager, members PrincipalLookup, logger *zap.Logger) *Reissuer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reissuer{tokens: tokens, members: members, logger: logger}
}

// Reissue runs the protocol. Rejections wrap ErrReauthenticationRequired and are
// final; ledger failures wrap ErrTransientStore and may be retried.
// An old access token that has not expired yet is accepted.
func (r *Reissuer) Reissue(ctx context.Context, oldAccessToken, refreshToken string) (*TokenPair, error) {
	state := StateValidatingRefresh

	claims, err := r.tokens.codec.Parse(oldAccessToken)
	if err != nil && !errors.Is(err, ErrExpired) {
		return nil, r.reject(state, err)
	}
	if claims.Kind != KindAccess {
		return nil, r.reject(state, fmt.Errorf("%w: %s token in place of access token", ErrMalformed, claims.Kind))
	}

	key := ledger.RefreshKey(claims.Provider, claims.Identity)
	ok, err := r.tokens.ValidateRefresh(ctx, refreshToken, key)
	if err != nil {
		r.logger.Warn("reissue ledger failure", zap.Stringer("state", state), zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, r.reject(state, errors.New("refresh token not live"))
	}

	state = r.advance(state, StateReissuing)
	role, err := r.resolveRole(ctx, claims)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return nil, r.reject(state, err)
		}
		return nil, err
	}

	pair, err := r.tokens.Grant(ctx, claims.Identity, role, claims.Provider)
	if err != nil {
		r.logger.Warn("reissue grant failed", zap.Stringer("state", state), zap.Error(err))
		return nil, err
	}
	r.advance(state, StateDone)
	return pair, nil
}

func (r *Reissuer) resolveRole(ctx context.Context, claims *Claims) (domain.Role, error) {
	if r.members == nil {
		return claims.Role, nil
	}
	member, err := r.members.GetByEmail(ctx, claims.Identity)
	if err != nil {
		return "", err
	}
	if !member.Role.Valid() {
		return claims.Role, nil
	}
	return member.Role, nil
}

func (r *Reissuer) advance(from, to ReissueState) ReissueState {
	r.logger.Debug("reissue transition", zap.Stringer("from", from), zap.Stringer("to", to))
	return to
}

func (r *Reissuer) reject(from ReissueState, cause error) error {
	r.advance(from, StateRejected)
	return fmt.Errorf("%w: %w", ErrReauthenticationRequired, cause)
}
