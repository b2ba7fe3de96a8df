package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/iliyamo/service-booking/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/service-booking/internal/middleware" // auth, gates, logging and error rendering
	"github.com/iliyamo/service-booking/internal/session"
)

// Deps collects everything the HTTP surface needs.  RateLimit and Cache may
// be nil; they are typically Redis-backed and disabled when Redis is down.
type Deps struct {
	JWTSecret  string
	Revoker    session.Revoker
	Log        zerolog.Logger
	RateLimit  echo.MiddlewareFunc
	Cache      echo.MiddlewareFunc
	Health     *handler.HealthHandler
	Bookings   *handler.BookingHandler
	Dashboards *handler.DashboardHandler
	Sessions   *handler.SessionHandler
}

// New builds the Echo instance with global middleware and every route.
// Authentication runs for every request; routes then apply their own gate.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(d.Log)

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.Recover())
	e.Use(middleware.Authenticate(d.JWTSecret, d.Revoker, d.Log))
	if d.RateLimit != nil {
		e.Use(d.RateLimit)
	}

	cache := d.Cache
	if cache == nil {
		cache = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	RegisterRoutes(e, d.Health)
	RegisterSession(e, d.Sessions)
	RegisterBookings(e, d.Bookings, cache)
	RegisterDashboards(e, d.Dashboards, cache)
	return e
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	if h == nil {
		h = &handler.HealthHandler{}
	}
	e.GET("/healthz", h.Health)
}

// RegisterSession registers the login entry point and the session
// endpoints.  /v1/login is open to everyone; the rest need an identity.
func RegisterSession(e *echo.Echo, s *handler.SessionHandler) {
	e.GET(session.LoginPath, s.Login)

	g := e.Group("/v1")
	g.GET("/me", s.Me, middleware.RequireRole())
	g.POST("/logout", s.Logout, middleware.RequireRole())
}
