package router

import (
	"github.com/labstack/echo/v4"

	"github.com/catalicor/catalicor/internal/handler"
	"github.com/catalicor/catalicor/internal/middleware"
	"github.com/catalicor/catalicor/internal/model"
)

// RegisterClient registers client-scoped endpoints under /v1.  All routes
// require a valid JWT and the client role.  Clients manage a server-side
// cart, fetch the payment QR for its store, upload a transfer receipt,
// check out and browse their own order history.
func RegisterClient(e *echo.Echo, h *handler.ClientHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleClient),
	)

	g.GET("/cart", h.GetCart)
	g.DELETE("/cart", h.ClearCart)
	g.POST("/cart/items", h.AddItem)
	g.PATCH("/cart/items/:product_id", h.UpdateItem)
	g.DELETE("/cart/items/:product_id", h.RemoveItem)

	g.GET("/cart/payment", h.PaymentInfo)
	g.POST("/cart/receipt", h.UploadReceipt) // multipart field "receipt"
	g.POST("/cart/checkout", h.Checkout)

	g.GET("/my-orders", h.MyOrders)
}
