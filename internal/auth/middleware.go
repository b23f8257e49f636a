package auth

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/domain"
)

const bearerPrefix = "Bearer "

// Decision is the verdict of the gate for one request.
type Decision int

const (
	Forward Decision = iota + 1
	Reject
)

// Outcome carries the decision with the principal to install or the error to render.
// Exempt requests are forwarded with a nil principal.
type Outcome struct {
	Decision  Decision
	Principal *Principal
	Err       error
}

// Responder writes the structured error for a rejected request.
type Responder func(c *fiber.Ctx, err error) error

// OutcomeRecorder counts gate outcomes by response code.
type OutcomeRecorder interface {
	RecordAuthOutcome(code string)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens   *TokenManager
	members  PrincipalLookup
	exempt   []string
	respond  Responder
	recorder OutcomeRecorder
	logger   *zap.Logger
}

// MiddlewareOption customizes the gate.
type MiddlewareOption func(*AuthMiddleware)

// WithResponder renders rejections in place instead of returning them up the chain.
func WithResponder(r Responder) MiddlewareOption {
	return func(m *AuthMiddleware) { m.respond = r }
}

// WithRecorder reports every outcome to rec.
func WithRecorder(rec OutcomeRecorder) MiddlewareOption {
	return func(m *AuthMiddleware) { m.recorder = rec }
}

// NewAuthMiddleware constructs the gate. exempt holds path patterns in path.Match
// syntax; a trailing "/**" matches the prefix and everything below it.
func NewAuthMiddleware(tokens *TokenManager, members PrincipalLookup, exempt []string, logger *zap.Logger, opts ...MiddlewareOption) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &AuthMiddleware{
		tokens:  tokens,
		members: members,
		exempt:  append([]string(nil), exempt...),
		logger:  logger,
		respond: func(_ *fiber.Ctx, err error) error { return err },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Evaluate decides a single request from its path and Authorization header.
func (m *AuthMiddleware) Evaluate(ctx context.Context, reqPath, authHeader string) Outcome {
	if m.isExempt(reqPath) {
		return Outcome{Decision: Forward}
	}

	token, ok := strings.CutPrefix(authHeader, bearerPrefix)
	if !ok {
		// A bare scheme is a bearer credential with nothing after it.
		if authHeader == strings.TrimSpace(bearerPrefix) {
			return m.reject(reqPath, ErrEmpty)
		}
		return m.reject(reqPath, ErrMissingToken)
	}

	principal, err := m.tokens.ValidateAccess(ctx, strings.TrimSpace(token))
	if err != nil {
		return m.reject(reqPath, err)
	}

	if m.members != nil {
		member, err := m.members.GetByEmail(ctx, principal.Identity)
		if err != nil {
			if errors.Is(err, domain.ErrMemberNotFound) {
				err = ErrPrincipalNotFound
			}
			return m.reject(reqPath, err)
		}
		principal.MemberID = member.ID
	}

	m.record("OK")
	return Outcome{Decision: Forward, Principal: principal}
}

// Handle enforces authentication. A rejected request never reaches c.Next.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	out := m.Evaluate(c.UserContext(), c.Path(), c.Get(fiber.HeaderAuthorization))
	if out.Decision == Forward {
		if out.Principal != nil {
			c.Locals(principalKey, out.Principal)
		}
		return c.Next()
	}

	c.Locals(principalKey, nil)
	return m.respond(c, ToDomainError(out.Err))
}

func (m *AuthMiddleware) reject(reqPath string, err error) Outcome {
	code := ErrorCode(err)
	if errors.Is(err, ErrTransientStore) {
		m.logger.Warn("auth ledger unavailable", zap.String("path", reqPath), zap.Error(err))
	} else {
		m.logger.Debug("request rejected", zap.String("path", reqPath), zap.String("code", code))
	}
	m.record(code)
	return Outcome{Decision: Reject, Err: err}
}

func (m *AuthMiddleware) record(code string) {
	if m.recorder != nil {
		m.recorder.RecordAuthOutcome(code)
	}
}

func (m *AuthMiddleware) isExempt(reqPath string) bool {
	for _, pattern := range m.exempt {
		if matchPath(pattern, reqPath) {
			return true
		}
	}
	return false
}

func matchPath(pattern, reqPath string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		return reqPath == prefix || strings.HasPrefix(reqPath, prefix+"/")
	}
	matched, err := path.Match(pattern, reqPath)
	return err == nil && matched
}
