package router

import (
	"github.com/labstack/echo/v4"

	"github.com/campuslab/lab-seat-reservation/internal/handler"
	"github.com/campuslab/lab-seat-reservation/internal/middleware"
	"github.com/campuslab/lab-seat-reservation/internal/model"
)

// RegisterReservations mounts the reservation endpoints under /api.
// Every route requires a valid JWT; writes additionally pass through
// the rate limiter. Students and technicians book and manage
// reservations, operator-wide listing and removal is for staff.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/reservations", middleware.JWTAuth(jwtSecret))

	anyRole := middleware.RequireRole(model.RoleStudent, model.RoleTechnician, model.RoleAdmin)
	staff := middleware.RequireRole(model.RoleTechnician, model.RoleAdmin)

	g.POST("", h.Create, anyRole, limiter)
	g.PATCH("/:id", h.Update, anyRole, limiter)
	g.DELETE("/:id", h.Delete, staff, limiter)

	g.GET("", h.List, staff)
	g.GET("/user/:userId", h.ListByUser, anyRole)
	g.GET("/lab/:labId", h.ListByLab, staff)
}
