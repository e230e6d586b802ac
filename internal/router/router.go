package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework for routing

	"github.com/comuna/facility-events/internal/handler"    // handlers implementing business logic
	"github.com/comuna/facility-events/internal/middleware" // JWT auth, role and rate-limit middleware
	"github.com/comuna/facility-events/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring systems to verify the
	// service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Routes under /v1/auth do not require an existing session: each
	// handler generates or exchanges tokens itself.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token: the presented token is
	// revoked and a new pair is issued.
	g.POST("/refresh", a.Refresh)
	// Logout does not require JWT authentication.  The handler accepts
	// a JSON body containing a refresh_token and invalidates it.
	g.POST("/logout", a.Logout)

	// Protected endpoints live under /v1 and run the JWTAuth middleware
	// before being invoked.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleMember, model.RoleAdmin))
	auth.GET("/me", a.Me)
	// Revokes every refresh token of the caller.
	auth.POST("/logout-all", a.LogoutAll)
}

// RegisterPublic registers unauthenticated browse endpoints.  Guests can
// list facilities and the event calendar without a token; no JWT or role
// middleware is applied here.
func RegisterPublic(e *echo.Echo, ev *handler.EventHandler, f *handler.FacilityHandler) {
	e.GET("/v1/facilities", f.ListFacilities)
	e.GET("/v1/facilities/:id", f.GetFacility)
	e.GET("/v1/events", ev.ListEvents)
	e.GET("/v1/events/:id", ev.GetEvent)
}

// RegisterEvents registers the authenticated event endpoints.  Every write
// is gated by the conflict detector inside the handler; the rate limiter
// protects the detector from hot loops of availability probes.
func RegisterEvents(e *echo.Echo, ev *handler.EventHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleMember, model.RoleAdmin))
	if limit != nil {
		g.Use(limit)
	}

	g.POST("/events", ev.CreateEvent)
	g.PUT("/events/:id", ev.UpdateEvent)
	g.DELETE("/events/:id", ev.DeleteEvent)
	g.PATCH("/events/:id/cancel", ev.CancelEvent)
	g.PATCH("/events/:id/complete", ev.CompleteEvent)

	// Dry-run conflict check: same payload as event creation plus an
	// optional exclude_event_id, nothing is persisted.
	g.POST("/check-availability", ev.CheckAvailability)
}

// RegisterFacilities registers the facility write endpoints.  Facility
// management is admin-only; reads are registered by RegisterPublic.
func RegisterFacilities(e *echo.Echo, f *handler.FacilityHandler, jwtSecret string) {
	g := e.Group("/v1/facilities")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleAdmin))

	g.POST("", f.CreateFacility)
	g.PUT("/:id", f.UpdateFacility)
	g.DELETE("/:id", f.DeleteFacility)
}
