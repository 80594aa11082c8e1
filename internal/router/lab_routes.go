package router

import (
	"github.com/labstack/echo/v4"

	"github.com/campuslab/lab-seat-reservation/internal/handler"
	"github.com/campuslab/lab-seat-reservation/internal/middleware"
	"github.com/campuslab/lab-seat-reservation/internal/model"
)

// RegisterLabs mounts the lab endpoints. Browsing is public and sits
// behind the response cache; management requires staff roles.
func RegisterLabs(e *echo.Echo, h *handler.LabHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	e.GET("/api/labs", h.List, cache)
	e.GET("/api/labs/:id", h.Get, cache)
	e.GET("/api/labs/:id/availability", h.Availability, cache)

	admin := e.Group("/api/labs",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin))
	admin.POST("", h.Create)
	admin.PATCH("/:id/status", h.UpdateStatus)

	staff := e.Group("/api/labs",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleTechnician, model.RoleAdmin))
	staff.POST("/:id/slots/rebuild", h.RebuildSlots)
}
