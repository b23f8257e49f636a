package auth

import (
	"errors"
	"net/http"

	"github.com/spec-kit/shop-service/internal/ledger"
	apperrors "github.com/spec-kit/shop-service/pkg/util"
)

var (
	ErrMissingSecret            = errors.New("auth: signing secret not configured")
	ErrMissingToken             = errors.New("auth: missing bearer token")
	ErrEmpty                    = errors.New("auth: empty token")
	ErrMalformed                = errors.New("auth: malformed token")
	ErrBadSignature             = errors.New("auth: bad token signature")
	ErrUnsupportedAlgorithm     = errors.New("auth: unsupported signing algorithm")
	ErrExpired                  = errors.New("auth: token expired")
	ErrRevoked                  = errors.New("auth: token revoked")
	ErrReauthenticationRequired = errors.New("auth: re-authentication required")
	ErrPrincipalNotFound        = errors.New("auth: principal not found")
	ErrInvalidCredentials       = errors.New("auth: invalid credentials")
	ErrAccessDenied             = errors.New("auth: access denied")

	// ErrTransientStore marks ledger failures the client may retry.
	ErrTransientStore = ledger.ErrTransientStore
)

type errorMapping struct {
	kind error
	resp *apperrors.DomainError
}

// Checked in order: ReauthenticationRequired wraps codec kinds and must win over them.
var errorMappings = []errorMapping{
	{ErrTransientStore, apperrors.NewUnavailable("TRANSIENT_STORE_ERROR", "token store unavailable, retry later", nil)},
	{ErrReauthenticationRequired, unauthorized("REAUTHENTICATION_REQUIRED", "re-authentication required")},
	{ErrMissingToken, unauthorized("MISSING_TOKEN", "missing bearer token")},
	{ErrEmpty, unauthorized("EMPTY_TOKEN", "empty token")},
	{ErrRevoked, unauthorized("TOKEN_REVOKED", "token revoked")},
	{ErrExpired, unauthorized("TOKEN_EXPIRED", "token expired")},
	{ErrUnsupportedAlgorithm, unauthorized("UNSUPPORTED_ALGORITHM", "unsupported token algorithm")},
	{ErrBadSignature, unauthorized("BAD_SIGNATURE", "token signature invalid")},
	{ErrMalformed, unauthorized("MALFORMED_TOKEN", "malformed token")},
	{ErrPrincipalNotFound, unauthorized("PRINCIPAL_NOT_FOUND", "principal not found")},
	{ErrInvalidCredentials, unauthorized("INVALID_CREDENTIALS", "invalid credentials")},
	{ErrAccessDenied, apperrors.NewDomainError("ACCESS_DENIED", "access denied", http.StatusForbidden, nil)},
}

func unauthorized(code, message string) *apperrors.DomainError {
	return apperrors.NewDomainError(code, message, http.StatusUnauthorized, nil)
}

// ToDomainError converts an auth error kind into the structured response error.
// The cause is kept for logging; the message never echoes token material.
func ToDomainError(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.kind) {
			return m.resp.Wrap(err)
		}
	}
	return apperrors.NewInternalError(err)
}

// ErrorCode returns the response code err maps to.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	return apperrors.ToDomainError(ToDomainError(err)).Code
}
