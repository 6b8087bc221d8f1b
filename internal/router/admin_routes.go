package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/catalicor/catalicor/internal/handler"
	"github.com/catalicor/catalicor/internal/middleware"
	"github.com/catalicor/catalicor/internal/model"
)

// RegisterAdmin registers admin-scoped endpoints under /v1/admin.
// All routes require a valid JWT and the admin role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// Provisions a store account: one user row with the store role plus its
	// store profile, credentials handed to the owner out of band.
	g.POST("/stores", a.CreateStore)
}
