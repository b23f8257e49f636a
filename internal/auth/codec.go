package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/shop-service/internal/domain"
)

// Kind distinguishes access tokens from refresh tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims describes the JWT payload. Identity, Role and Provider are set on access tokens only.
type Claims struct {
	Kind     Kind        `json:"kind"`
	Identity string      `json:"email,omitempty"`
	Role     domain.Role `json:"role,omitempty"`
	Provider string      `json:"provider,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and parses claims with the process-wide HS512 secret.
// It is built once at startup and is read-only afterwards.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec builds a codec over secret.
func NewCodec(secret string) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	return &Codec{secret: []byte(secret), now: time.Now}, nil
}

// WithClock returns a copy of c that reads the current time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	out := *c
	out.now = now
	return &out
}

// Now is the codec's notion of the current time.
func (c *Codec) Now() time.Time {
	return c.now()
}

// Issue signs claims. Identical claims always produce the identical token.
func (c *Codec) Issue(claims Claims) (string, error) {
	if err := claims.checkStructure(); err != nil {
		return "", err
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(c.secret)
}

// Parse verifies the signature, then the structure, then the expiry of token.
// Claims of a correctly signed but expired token are returned together with ErrExpired.
func (c *Codec) Parse(token string) (*Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrEmpty
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, c.key,
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err == nil {
		if err := claims.checkStructure(); err != nil {
			return nil, err
		}
		return claims, nil
	}

	if !errors.Is(err, jwt.ErrTokenExpired) {
		return nil, classify(err)
	}
	if err := claims.checkStructure(); err != nil {
		return nil, err
	}
	return claims, fmt.Errorf("%w: %w", ErrExpired, err)
}

func (c *Codec) key(t *jwt.Token) (any, error) {
	if t.Method != jwt.SigningMethodHS512 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, t.Method.Alg())
	}
	return c.secret, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, ErrUnsupportedAlgorithm):
		return err
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrUnsupportedAlgorithm, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %w", ErrBadSignature, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
}

func (c Claims) checkStructure() error {
	switch c.Kind {
	case KindAccess:
		if c.Identity == "" || c.Role == "" {
			return fmt.Errorf("%w: access token without identity or role", ErrMalformed)
		}
	case KindRefresh:
		if c.Identity != "" || c.Role != "" {
			return fmt.Errorf("%w: refresh token carrying identity", ErrMalformed)
		}
	default:
		return fmt.Errorf("%w: unknown token kind %q", ErrMalformed, c.Kind)
	}
	if c.ExpiresAt == nil {
		return fmt.Errorf("%w: missing exp", ErrMalformed)
	}
	return nil
}
