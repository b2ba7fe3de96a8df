package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/service-booking/internal/handler"
	"github.com/iliyamo/service-booking/internal/middleware"
	"github.com/iliyamo/service-booking/internal/model"
)

// RegisterBookings registers the booking API under /v1.  Gates are attached
// per route so an unknown /v1 path still falls through to 404.  Reads are
// cached; the cache key carries the store revision and the caller.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, cache echo.MiddlewareFunc) {
	anyRole := middleware.RequireRole()
	g := e.Group("/v1")

	g.POST("/bookings", h.Create, middleware.RequireRole(model.RoleCustomer))
	g.GET("/bookings", h.List, anyRole, cache)
	g.GET("/bookings/upcoming", h.Upcoming, anyRole, cache)
	g.GET("/bookings/:id", h.Get, anyRole, cache)
	g.GET("/bookings/:id/history", h.History, anyRole, cache)
	g.PATCH("/bookings/:id/status", h.UpdateStatus, middleware.RequireRole(model.RoleProvider, model.RoleAdmin))

	g.GET("/stats", h.Stats, anyRole, cache)
}

// RegisterDashboards registers the role views.  Callers that do not belong
// on a view are redirected with 303 instead of receiving an error.
func RegisterDashboards(e *echo.Echo, h *handler.DashboardHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.GET("/customer", h.Customer, middleware.RequireView(model.RoleCustomer), cache)
	g.GET("/provider", h.Provider, middleware.RequireView(model.RoleProvider), cache)
	g.GET("/admin", h.Admin, middleware.RequireView(model.RoleAdmin), cache)
}
