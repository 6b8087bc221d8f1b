package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/catalicor/catalicor/internal/handler"
	"github.com/catalicor/catalicor/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance: the health check and the static file route that
// serves uploaded blobs (store QR codes, product photos, transfer receipts).
// uploadRoot is the directory the blob store writes to.
func RegisterRoutes(e *echo.Echo, uploadRoot string) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)
	// Every URL minted by the blob store resolves below /uploads.
	e.Static("/uploads", uploadRoot)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout does not require JWT authentication: the handler accepts a JSON
	// body containing a `refresh_token` and invalidates that token.
	g.POST("/logout", a.Logout)

	// /v1/me works for any authenticated role; store accounts additionally
	// get their store profile embedded in the response.
	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers unauthenticated browse endpoints.  The handlers
// return sanitized data: active stores without their payment QR, and the
// product catalog of a store.  cache is the Redis response-cache middleware;
// pass nil to register the routes uncached.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	mws := []echo.MiddlewareFunc{}
	if cache != nil {
		mws = append(mws, cache)
	}
	e.GET("/v1/stores", p.ListStores, mws...)
	e.GET("/v1/stores/:id", p.GetStore, mws...)
	e.GET("/v1/stores/:id/products", p.ListStoreProducts, mws...)
}
