package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/auth"
	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/events"
	"github.com/spec-kit/shop-service/internal/ledger"
	"github.com/spec-kit/shop-service/internal/repository"
)

// ErrInvalidProvider is returned when a social grant names no external provider.
var ErrInvalidProvider = errors.New("social grant requires an external provider")

// AuthService coordinates registration, login, logout, reissue and withdrawal flows.
type AuthService struct {
	members    repository.MemberRepository
	tokens     *auth.TokenManager
	reissuer   *auth.Reissuer
	events     events.Dispatcher
	bcryptCost int
	logger     *zap.Logger
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	Members    repository.MemberRepository
	Tokens     *auth.TokenManager
	Dispatcher events.Dispatcher
	BcryptCost int
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher(logger)
	}
	return &AuthService{
		members:    deps.Members,
		tokens:     deps.Tokens,
		reissuer:   auth.NewReissuer(deps.Tokens, deps.Members, logger),
		events:     dispatcher,
		bcryptCost: deps.BcryptCost,
		logger:     logger,
	}
}

// Register creates a ROLE_USER member with a bcrypt password hash.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (*domain.Member, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	member := &domain.Member{
		Email:        normalizeEmail(email),
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.members.Create(ctx, member); err != nil {
		return nil, err
	}
	s.publish(ctx, events.AuthEvent{Type: events.EventRegistered, Identity: member.Email, Provider: ledger.ProviderLocal})
	return member, nil
}

// Login authenticates a member by password and grants a fresh token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Member, *auth.TokenPair, error) {
	member, err := s.members.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return nil, nil, auth.ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if err := auth.ComparePassword(member.PasswordHash, password); err != nil {
		return nil, nil, err
	}

	pair, err := s.tokens.Grant(ctx, member.Email, member.Role, ledger.ProviderLocal)
	if err != nil {
		return nil, nil, err
	}
	s.publish(ctx, events.AuthEvent{Type: events.EventLoggedIn, Identity: member.Email, Provider: ledger.ProviderLocal})
	return member, pair, nil
}

// SocialGrant issues tokens for an identity already verified by an external provider.
// Unknown identities are enrolled as password-less ROLE_USER members. The refresh
// session is scoped to provider so it never collides with a local login of the same email.
func (s *AuthService) SocialGrant(ctx context.Context, provider, email, name string) (*domain.Member, *auth.TokenPair, error) {
	provider = strings.TrimSpace(strings.ToLower(provider))
	if provider == "" || provider == ledger.ProviderLocal {
		return nil, nil, ErrInvalidProvider
	}
	email = normalizeEmail(email)

	member, err := s.members.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrMemberNotFound) {
		member = &domain.Member{Email: email, Name: strings.TrimSpace(name), Role: domain.RoleUser}
		err = s.members.Create(ctx, member)
	}
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.tokens.Grant(ctx, member.Email, member.Role, provider)
	if err != nil {
		return nil, nil, err
	}
	s.publish(ctx, events.AuthEvent{Type: events.EventLoggedIn, Identity: member.Email, Provider: provider})
	return member, pair, nil
}

// Logout revokes the caller's access token and ends its refresh session.
func (s *AuthService) Logout(ctx context.Context, principal *auth.Principal) error {
	if err := s.tokens.Logout(ctx, principal.Token); err != nil {
		return err
	}
	s.publish(ctx, events.AuthEvent{Type: events.EventLoggedOut, Identity: principal.Identity, Provider: principal.Provider})
	return nil
}

// Reissue exchanges a refresh token and the previous access token for a new pair.
func (s *AuthService) Reissue(ctx context.Context, oldAccessToken, refreshToken string) (*auth.TokenPair, error) {
	pair, err := s.reissuer.Reissue(ctx, oldAccessToken, refreshToken)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.AuthEvent{Type: events.EventReissued, Identity: pair.Identity, Provider: pair.Provider})
	return pair, nil
}

// Withdraw deletes the caller's account and revokes all of its tokens.
// The ledger is written first so a failed delete never leaves live tokens behind.
func (s *AuthService) Withdraw(ctx context.Context, principal *auth.Principal) error {
	if err := s.tokens.Withdraw(ctx, principal.Token); err != nil {
		return err
	}
	if principal.MemberID != "" {
		if err := s.members.Delete(ctx, principal.MemberID); err != nil && !errors.Is(err, domain.ErrMemberNotFound) {
			return err
		}
	}
	s.publish(ctx, events.AuthEvent{Type: events.EventWithdrawn, Identity: principal.Identity, Provider: principal.Provider})
	return nil
}

func (s *AuthService) publish(ctx context.Context, event events.AuthEvent) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("auth event publish failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
