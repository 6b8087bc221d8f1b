package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/catalicor/catalicor/internal/handler"
	"github.com/catalicor/catalicor/internal/middleware"
	"github.com/catalicor/catalicor/internal/model"
)

// RegisterStore registers store-owner endpoints under /v1/store.  All routes
// require a valid JWT and the store role; the store id is always taken from
// the token, never from the request, so an owner can only act on their own
// store.
func RegisterStore(e *echo.Echo, profile *handler.StoreProfileHandler, products *handler.StoreProductHandler, orders *handler.StoreOrderHandler, jwtSecret string) {
	g := e.Group(
		"/v1/store",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleStore),
	)

	// ---- Profile ----
	g.GET("/profile", profile.GetProfile)
	g.PUT("/profile", profile.UpdateProfile)
	g.PATCH("/profile", profile.UpdateProfile)
	g.POST("/profile/qr", profile.UploadQR) // multipart field "qr"

	// ---- Products ----
	g.GET("/products", products.List)
	g.POST("/products", products.Create)
	g.PUT("/products/:id", products.Update)
	g.PATCH("/products/:id", products.Update)
	g.DELETE("/products/:id", products.Delete)
	g.POST("/products/image", products.UploadImage) // multipart field "image"

	// ---- Orders ----
	g.GET("/orders", orders.List)
	g.GET("/orders/stream", orders.Stream) // server-sent events
	g.PATCH("/orders/:id/status", orders.UpdateStatus)
}
