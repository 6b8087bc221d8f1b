package handler

// Client-facing shopping flow: cart management, QR payment info, receipt
// upload, checkout and order history.  Carts are held in server memory per
// authenticated client; only checkout touches the database, writing the cart
// snapshot as an order in one transaction.  The cart is cleared strictly
// after that write succeeds, so a failed checkout leaves everything in place
// for a retry.

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/catalicor/catalicor/internal/cart"
	"github.com/catalicor/catalicor/internal/live"
	"github.com/catalicor/catalicor/internal/model"
	"github.com/catalicor/catalicor/internal/repository"
	"github.com/catalicor/catalicor/internal/storage"
)

// ProductGetter fetches one product.  *repository.ProductRepo satisfies it.
type ProductGetter interface {
	GetByID(ctx context.Context, id uint64) (*model.Product, error)
}

// StoreGetter fetches one store.  *repository.StoreRepo satisfies it.
type StoreGetter interface {
	GetByID(ctx context.Context, id uint64) (*model.Store, error)
}

// OrderStore is the slice of the order repository the client flow needs.
type OrderStore interface {
	Create(ctx context.Context, o *model.Order) error
	ListByUser(ctx context.Context, userID uint64) ([]*model.Order, error)
}

type ClientHandler struct {
	Carts    *cart.Store
	Products ProductGetter
	Stores   StoreGetter
	Orders   OrderStore
	Blobs    *storage.BlobStore
	Hub      *live.Hub
	Events   OrderEventPublisher // may be nil when no broker is configured
}

func NewClientHandler(carts *cart.Store, products ProductGetter, stores StoreGetter, orders OrderStore, blobs *storage.BlobStore, hub *live.Hub, events OrderEventPublisher) *ClientHandler {
	if carts == nil || products == nil || stores == nil || orders == nil || blobs == nil || hub == nil {
		panic("nil dependency passed to NewClientHandler")
	}
	return &ClientHandler{Carts: carts, Products: products, Stores: stores, Orders: orders, Blobs: blobs, Hub: hub, Events: events}
}

type addItemReq struct {
	ProductID uint64 `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type updateItemReq struct {
	Quantity int `json:"quantity"`
}

type cartResp struct {
	Items      []cart.Line `json:"items"`
	TotalCents int64       `json:"total_cents"`
}

func cartState(c *cart.Cart) cartResp {
	return cartResp{Items: c.Lines(), TotalCents: c.TotalCents()}
}

// AddItem handles POST /v1/cart/items.  The product is looked up so the
// line carries a snapshot of its current name and price; if the same product
// is already in the cart its quantity is incremented instead.  Products of
// inactive stores cannot be added.
func (h *ClientHandler) AddItem(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req addItemReq
	if err := c.Bind(&req); err != nil || req.ProductID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_id is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.GetByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load product"})
	}
	s, err := h.Stores.GetByID(ctx, p.StoreID)
	if err != nil || !s.IsActive {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "store not available"})
	}

	ct := h.Carts.Get(userID)
	ct.Add(cart.Line{
		ProductID:  p.ID,
		StoreID:    p.StoreID,
		Name:       p.Name,
		PriceCents: p.PriceCents,
		Quantity:   req.Quantity,
		ImageURL:   p.ImageURL,
	})
	return c.JSON(http.StatusOK, cartState(ct))
}

// UpdateItem handles PATCH /v1/cart/items/:product_id.  Quantities below one
// are rejected; removing a line is its own endpoint.
func (h *ClientHandler) UpdateItem(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 64)
	if err != nil || productID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	var req updateItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ct := h.Carts.Get(userID)
	if err := ct.UpdateQuantity(productID, req.Quantity); err != nil {
		if errors.Is(err, cart.ErrBadQuantity) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must be at least 1"})
		}
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not in cart"})
	}
	return c.JSON(http.StatusOK, cartState(ct))
}

// RemoveItem handles DELETE /v1/cart/items/:product_id.
func (h *ClientHandler) RemoveItem(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 64)
	if err != nil || productID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	ct := h.Carts.Get(userID)
	if err := ct.Remove(productID); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not in cart"})
	}
	return c.JSON(http.StatusOK, cartState(ct))
}

// GetCart handles GET /v1/cart.
func (h *ClientHandler) GetCart(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, cartState(h.Carts.Get(userID)))
}

// ClearCart handles DELETE /v1/cart.
func (h *ClientHandler) ClearCart(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ct := h.Carts.Get(userID)
	ct.Clear()
	return c.JSON(http.StatusOK, cartState(ct))
}

// PaymentInfo handles GET /v1/cart/payment.  It resolves the single store
// behind the cart and returns that store's payment QR plus the amount to
// transfer.  A cart spanning stores or a store without a configured QR
// cannot proceed to payment.
func (h *ClientHandler) PaymentInfo(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	snap, err := h.Carts.Get(userID).Snapshot()
	if err != nil {
		if errors.Is(err, cart.ErrEmpty) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "cart is empty"})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cart contains products from more than one store"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Stores.GetByID(ctx, snap.StoreID)
	if err != nil {
		if errors.Is(err, repository.ErrStoreNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "store not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load store"})
	}
	if s.QRImageURL == "" {
		return c.JSON(http.StatusConflict, echo.Map{"error": "store has no payment QR configured"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"store_id":     s.ID,
		"store_name":   s.Name,
		"qr_image_url": s.QRImageURL,
		"total_cents":  snap.TotalCents,
	})
}

// UploadReceipt handles POST /v1/cart/receipt (multipart field "receipt").
// The image is stored under a per-store bucket with a timestamped name and
// the minted URL is returned for the client to pass to checkout.
func (h *ClientHandler) UploadReceipt(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ct := h.Carts.Get(userID)
	storeID, err := ct.SingleStoreID()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cart must contain products from exactly one store"})
	}

	fh, err := c.FormFile("receipt")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "receipt file is required"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot read upload"})
	}
	defer src.Close()

	url, err := h.Blobs.SaveUnique("receipts-"+strconv.FormatUint(storeID, 10), fh.Filename, src)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store receipt"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"receipt_url": url})
}

type checkoutReq struct {
	ReceiptURL string `json:"receipt_url"`
}

// Checkout handles POST /v1/cart/checkout.  It validates that the cart is
// non-empty and single-store, that the store exists with a configured QR,
// and that a receipt was provided, then persists the cart as an order in
// pending_payment_verification.  The cart is cleared only after the order
// write is acknowledged.
func (h *ClientHandler) Checkout(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req checkoutReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	receiptURL := strings.TrimSpace(req.ReceiptURL)
	if receiptURL == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "receipt_url is required"})
	}

	ct := h.Carts.Get(userID)
	// Lines, store id and total are captured in one atomic snapshot; the
	// order below is built from the snapshot alone, so a concurrent tab
	// mutating the cart cannot slip a foreign line or skew the total.
	snap, err := ct.Snapshot()
	if err != nil {
		if errors.Is(err, cart.ErrEmpty) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "cart is empty"})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cart contains products from more than one store"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Stores.GetByID(ctx, snap.StoreID)
	if err != nil {
		if errors.Is(err, repository.ErrStoreNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "store not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load store"})
	}
	if s.QRImageURL == "" {
		return c.JSON(http.StatusConflict, echo.Map{"error": "store has no payment QR configured"})
	}
	// Locally minted receipt URLs must still resolve to a stored blob.
	if strings.Contains(receiptURL, "/uploads/") && !h.Blobs.Has(receiptURL) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "receipt not found"})
	}

	o := &model.Order{
		UserID:        userID,
		StoreID:       snap.StoreID,
		TotalCents:    snap.TotalCents,
		Status:        model.StatusPendingPaymentVerification,
		PaymentMethod: model.PaymentMethodQRTransfer,
		ReceiptURL:    receiptURL,
		Items:         make([]model.OrderItem, 0, len(snap.Lines)),
	}
	for _, l := range snap.Lines {
		o.Items = append(o.Items, model.OrderItem{
			ProductID:  l.ProductID,
			Name:       l.Name,
			PriceCents: l.PriceCents,
			Quantity:   l.Quantity,
		})
	}

	if err := h.Orders.Create(ctx, o); err != nil {
		// Cart stays intact so the client can retry.
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to place order"})
	}
	ct.Clear()

	h.Hub.Notify(snap.StoreID)
	if h.Events != nil {
		h.Events.OrderPlaced(ctx, o)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": toOrderResp(o)})
}

// MyOrders handles GET /v1/my-orders: the authenticated client's purchase
// history, newest first.
func (h *ClientHandler) MyOrders(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orders, err := h.Orders.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load orders"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toOrderResps(orders), "count": len(orders)})
}
