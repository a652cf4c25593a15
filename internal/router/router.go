package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/jorisdh/appdepot/internal/handler"
	"github.com/jorisdh/appdepot/internal/middleware"
)

// Handlers bundles everything the router needs to wire the API.
type Handlers struct {
	Auth     *handler.AuthHandler
	Users    *handler.UserHandler
	Apps     *handler.AppHandler
	Settings *handler.SettingHandler
}

// RegisterRoutes registers routes that do not require authentication beyond
// the health check. Load balancers and monitoring probe /healthz.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAPI wires the full /api surface. Public endpoints are the catalog
// list, the registration-gate GET, and the auth entry points; everything else
// runs behind the bearer middleware, which also consults the revocation
// ledger. rateLimit guards the credential endpoints and cache fronts the
// public reads; pass echo middleware that is a no-op when Redis is down.
func RegisterAPI(e *echo.Echo, h Handlers, jwtSecret string, denylist middleware.Denylist,
	rateLimit, cache echo.MiddlewareFunc) {

	bearer := middleware.JWTAuth(jwtSecret, denylist)

	auth := e.Group("/api/auth")
	auth.POST("/register", h.Auth.Register, rateLimit)
	auth.POST("/login", h.Auth.Login, rateLimit)
	auth.GET("/userinfo", h.Auth.UserInfo, bearer)

	settings := e.Group("/api/settings")
	settings.GET("/registration", h.Settings.GetRegistration, cache)
	settings.PUT("/registration", h.Settings.PutRegistration, bearer)

	apps := e.Group("/api/apps")
	apps.GET("/windows-apps", h.Apps.List, cache)
	apps.GET("/windows-apps/count", h.Apps.Count, bearer)
	apps.POST("/windows-apps", h.Apps.Create, bearer)
	apps.PUT("/windows-apps/:id", h.Apps.Update, bearer)
	apps.DELETE("/windows-apps/:id", h.Apps.Delete, bearer)

	// User management: any authenticated user is authorized, matching the
	// admin backend this API serves. There is no separate admin role.
	users := e.Group("/api/users", bearer)
	users.GET("", h.Users.List)
	users.POST("", h.Users.Create)
	users.GET("/count", h.Users.Count)
	users.GET("/count/enabled", h.Users.CountEnabled)
	users.PUT("/:id", h.Users.Update)
	users.DELETE("/:id", h.Users.Delete)
}
