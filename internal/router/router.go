package router

import (
	"github.com/labstack/echo/v4"

	"github.com/campuslab/lab-seat-reservation/internal/handler"
	"github.com/campuslab/lab-seat-reservation/internal/middleware"
	"github.com/campuslab/lab-seat-reservation/internal/model"
)

// RegisterRoutes registers the unauthenticated endpoints. Currently
// that is only the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth mounts the session endpoints. Register, login, refresh
// and logout live under /api/auth and need no token; /api/me and the
// admin deactivation endpoint are JWT-gated.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	authed := e.Group("/api", middleware.JWTAuth(jwtSecret))
	authed.GET("/me", a.Me)
	authed.DELETE("/users/:userId", a.Deactivate,
		middleware.RequireRole(model.RoleAdmin))
}
