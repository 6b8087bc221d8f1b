package handler

// Order management from the store owner's perspective: listing received
// orders, streaming them live to the dashboard, and driving the status
// lifecycle (verify/reject payment, mark delivered).  Transition legality
// and ownership are enforced in the repository inside a transaction; this
// layer translates the sentinel errors into HTTP statuses and fans out
// notifications after a successful change.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/catalicor/catalicor/internal/live"
	"github.com/catalicor/catalicor/internal/model"
	"github.com/catalicor/catalicor/internal/repository"
)

// OrderStatusStore is the slice of the order repository the store dashboard
// needs.  *repository.OrderRepo satisfies it; tests substitute fakes.
type OrderStatusStore interface {
	ListByStore(ctx context.Context, storeID uint64) ([]*model.Order, error)
	UpdateStatus(ctx context.Context, orderID, storeID uint64, newStatus string) (*model.Order, error)
}

// OrderEventPublisher forwards order lifecycle events to the message broker.
// Publishing is best-effort: failures are logged by the implementation and
// never fail the originating request.
type OrderEventPublisher interface {
	OrderPlaced(ctx context.Context, o *model.Order)
	OrderStatusChanged(ctx context.Context, o *model.Order)
}

type StoreOrderHandler struct {
	Orders OrderStatusStore
	Hub    *live.Hub
	Events OrderEventPublisher // may be nil when no broker is configured
}

func NewStoreOrderHandler(orders OrderStatusStore, hub *live.Hub, events OrderEventPublisher) *StoreOrderHandler {
	if orders == nil || hub == nil {
		panic("nil dependency passed to NewStoreOrderHandler")
	}
	return &StoreOrderHandler{Orders: orders, Hub: hub, Events: events}
}

type orderItemResp struct {
	ProductID  uint64 `json:"product_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Quantity   int    `json:"quantity"`
}

type orderResp struct {
	ID            uint64          `json:"id"`
	UserID        uint64          `json:"user_id"`
	StoreID       uint64          `json:"store_id"`
	Items         []orderItemResp `json:"items"`
	TotalCents    int64           `json:"total_cents"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	ReceiptURL    string          `json:"receipt_url"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toOrderResp(o *model.Order) orderResp {
	items := make([]orderItemResp, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResp{
			ProductID:  it.ProductID,
			Name:       it.Name,
			PriceCents: it.PriceCents,
			Quantity:   it.Quantity,
		})
	}
	return orderResp{
		ID:            o.ID,
		UserID:        o.UserID,
		StoreID:       o.StoreID,
		Items:         items,
		TotalCents:    o.TotalCents,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		ReceiptURL:    o.ReceiptURL,
		CreatedAt:     o.CreatedAt,
	}
}

func toOrderResps(orders []*model.Order) []orderResp {
	out := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResp(o))
	}
	return out
}

// List handles GET /v1/store/orders.  It returns every order received by
// the authenticated store, newest first, including receipt URLs so the
// owner can inspect payment proofs.
func (h *StoreOrderHandler) List(c echo.Context) error {
	storeID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orders, err := h.Orders.ListByStore(c.Request().Context(), storeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load orders"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toOrderResps(orders), "count": len(orders)})
}

// Stream handles GET /v1/store/orders/stream.  It serves the live order
// feed as server-sent events: an initial full snapshot, then a fresh
// snapshot whenever an order for this store is created or changes status.
// The hub subscription is released when the client disconnects, so closing
// the dashboard tears the standing query down.
func (h *StoreOrderHandler) Stream(c echo.Context) error {
	storeID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	sub := h.Hub.Subscribe(storeID)
	defer sub.Cancel()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	ctx := c.Request().Context()
	if err := h.writeSnapshot(ctx, c, storeID); err != nil {
		return nil // client went away mid-write
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sub.C:
			if err := h.writeSnapshot(ctx, c, storeID); err != nil {
				return nil
			}
		}
	}
}

func (h *StoreOrderHandler) writeSnapshot(ctx context.Context, c echo.Context, storeID uint64) error {
	orders, err := h.Orders.ListByStore(ctx, storeID)
	if err != nil {
		c.Logger().Errorf("order stream query failed for store %d: %v", storeID, err)
		return err
	}
	payload, err := json.Marshal(echo.Map{"items": toOrderResps(orders)})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Response(), "data: %s\n\n", payload); err != nil {
		return err
	}
	c.Response().Flush()
	return nil
}

type updateStatusReq struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /v1/store/orders/:id/status.  Allowed moves:
// pending_payment_verification -> accepted (payment verified),
// pending_payment_verification -> cancelled (payment rejected),
// accepted -> delivered.  Anything else answers 409 and nothing changes.
func (h *StoreOrderHandler) UpdateStatus(c echo.Context) error {
	storeID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if !model.ValidStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.UpdateStatus(ctx, orderID, storeID, status)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		if errors.Is(err, repository.ErrBadTransition) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "illegal status transition"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update order"})
	}

	h.Hub.Notify(storeID)
	if h.Events != nil {
		h.Events.OrderStatusChanged(ctx, o)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toOrderResp(o)})
}
