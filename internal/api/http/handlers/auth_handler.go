package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shop-service/internal/api/dto"
	"github.com/spec-kit/shop-service/internal/auth"
	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/service"
	apperrors "github.com/spec-kit/shop-service/pkg/util"
)

// AuthHandler exposes sign-up, login, reissue, logout and account endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

const minPasswordLength = 8

// Register handles POST /api/v1/members.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	details := map[string]any{}
	if !strings.Contains(req.Email, "@") {
		details["email"] = "must be a valid email"
	}
	if len(req.Password) < minPasswordLength {
		details["password"] = "must be at least 8 characters"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid member", details)
	}

	member, err := h.auth.Register(c.UserContext(), req.Email, req.Name, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrMemberExists) {
			return apperrors.NewDomainError("MEMBER_EXISTS", "email already registered", http.StatusConflict, nil)
		}
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.MemberResponse{
		ID:        member.ID,
		Email:     member.Email,
		Name:      member.Name,
		Role:      string(member.Role),
		CreatedAt: member.CreatedAt,
	}})
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	_, pair, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return auth.ToDomainError(err)
	}
	return c.JSON(fiber.Map{"data": tokenResponse(pair)})
}

// Reissue handles POST /api/v1/auth/reissue.
func (h *AuthHandler) Reissue(c *fiber.Ctx) error {
	var req dto.ReissueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	oldAccess, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if !ok {
		return auth.ToDomainError(auth.ErrMissingToken)
	}
	if req.RefreshToken == "" {
		return apperrors.NewValidationError("refreshToken required", nil)
	}

	pair, err := h.auth.Reissue(c.UserContext(), strings.TrimSpace(oldAccess), req.RefreshToken)
	if err != nil {
		return auth.ToDomainError(err)
	}
	return c.JSON(fiber.Map{"data": tokenResponse(pair)})
}

// Logout handles POST /api/v1/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return auth.ToDomainError(auth.ErrMissingToken)
	}
	if err := h.auth.Logout(c.UserContext(), principal); err != nil {
		return auth.ToDomainError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// Me handles GET /api/v1/members/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return auth.ToDomainError(auth.ErrMissingToken)
	}
	caps := make([]string, 0, len(principal.Capabilities))
	for _, capability := range principal.Capabilities {
		caps = append(caps, string(capability))
	}
	return c.JSON(fiber.Map{"data": dto.PrincipalResponse{
		MemberID:     principal.MemberID,
		Email:        principal.Identity,
		Role:         string(principal.Role),
		Provider:     principal.Provider,
		Capabilities: caps,
	}})
}

// Withdraw handles DELETE /api/v1/members/me.
func (h *AuthHandler) Withdraw(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return auth.ToDomainError(auth.ErrMissingToken)
	}
	if err := h.auth.Withdraw(c.UserContext(), principal); err != nil {
		return auth.ToDomainError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// AdminPing handles GET /api/v1/admin/ping; reaching it proves the ROLE_ADMIN guard passed.
func (h *AuthHandler) AdminPing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "ok"}})
}

func tokenResponse(pair *auth.TokenPair) dto.TokenResponse {
	return dto.TokenResponse{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
	}
}
