package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shop-service/internal/api/http/handlers"
	"github.com/spec-kit/shop-service/internal/auth"
	"github.com/spec-kit/shop-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	Auth   *handlers.AuthHandler
	Gate   *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. The gate runs in front of every route;
// its exempt list decides which ones are public.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.Gate.Handle)

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	v1 := app.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/reissue", cfg.Auth.Reissue)
	authGroup.Post("/logout", auth.RequireAuthenticated(), cfg.Auth.Logout)

	v1.Post("/members", cfg.Auth.Register)
	members := v1.Group("/members/me", auth.RequireAuthenticated())
	members.Get("", cfg.Auth.Me)
	members.Delete("", cfg.Auth.Withdraw)

	admin := v1.Group("/admin", auth.RequireRole(domain.RoleAdmin))
	admin.Get("/ping", auth.RequireCapability(domain.CapMemberRead), cfg.Auth.AdminPing)
}
