package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalicor/catalicor/internal/live"
	"github.com/catalicor/catalicor/internal/model"
	"github.com/catalicor/catalicor/internal/repository"
)

// fakeOrderStatusStore mirrors the repository's transition and ownership
// rules over an in-memory map.
type fakeOrderStatusStore struct {
	byID map[uint64]*model.Order
}

func (f *fakeOrderStatusStore) ListByStore(_ context.Context, storeID uint64) ([]*model.Order, error) {
	var out []*model.Order
	for _, o := range f.byID {
		if o.StoreID == storeID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderStatusStore) UpdateStatus(_ context.Context, orderID, storeID uint64, newStatus string) (*model.Order, error) {
	o, ok := f.byID[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	if o.StoreID != storeID {
		return nil, repository.ErrForbidden
	}
	if !model.CanTransition(o.Status, newStatus) {
		return nil, repository.ErrBadTransition
	}
	o.Status = newStatus
	return o, nil
}

func newStatusFixture(t *testing.T) (*StoreOrderHandler, *fakeOrderStatusStore, *fakeEvents) {
	t.Helper()
	orders := &fakeOrderStatusStore{byID: map[uint64]*model.Order{
		1: {ID: 1, UserID: 5, StoreID: 10, Status: model.StatusPendingPaymentVerification, TotalCents: 900},
		2: {ID: 2, UserID: 5, StoreID: 10, Status: model.StatusAccepted, TotalCents: 2900},
		3: {ID: 3, UserID: 6, StoreID: 20, Status: model.StatusPendingPaymentVerification, TotalCents: 5200},
	}}
	events := &fakeEvents{}
	return NewStoreOrderHandler(orders, live.NewHub(), events), orders, events
}

func patchStatus(t *testing.T, h *StoreOrderHandler, storeID uint64, orderID, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPatch, "/v1/store/orders/"+orderID+"/status", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(orderID)
	c.Set("user_id", storeID)
	c.Set("role", model.RoleStore)
	require.NoError(t, h.UpdateStatus(c))
	return rec
}

func TestUpdateStatusAcceptsPendingOrder(t *testing.T) {
	h, orders, events := newStatusFixture(t)

	rec := patchStatus(t, h, 10, "1", `{"status":"accepted"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, model.StatusAccepted, orders.byID[1].Status)
	assert.Equal(t, []uint64{1}, events.status)
}

func TestUpdateStatusCancelsPendingOrder(t *testing.T) {
	h, orders, _ := newStatusFixture(t)

	rec := patchStatus(t, h, 10, "1", `{"status":"cancelled"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.StatusCancelled, orders.byID[1].Status)
}

func TestUpdateStatusDeliversAcceptedOrder(t *testing.T) {
	h, orders, _ := newStatusFixture(t)

	rec := patchStatus(t, h, 10, "2", `{"status":"delivered"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.StatusDelivered, orders.byID[2].Status)
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	h, orders, events := newStatusFixture(t)

	// pending -> delivered skips payment verification.
	rec := patchStatus(t, h, 10, "1", `{"status":"delivered"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, model.StatusPendingPaymentVerification, orders.byID[1].Status)
	assert.Empty(t, events.status)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	h, _, _ := newStatusFixture(t)

	rec := patchStatus(t, h, 10, "1", `{"status":"shipped"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateStatusForeignOrderIsForbidden(t *testing.T) {
	h, orders, _ := newStatusFixture(t)

	rec := patchStatus(t, h, 10, "3", `{"status":"accepted"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, model.StatusPendingPaymentVerification, orders.byID[3].Status)
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	h, _, _ := newStatusFixture(t)

	rec := patchStatus(t, h, 10, "99", `{"status":"accepted"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateStatusNotifiesStream(t *testing.T) {
	h, _, _ := newStatusFixture(t)
	sub := h.Hub.Subscribe(10)
	defer sub.Cancel()

	patchStatus(t, h, 10, "1", `{"status":"accepted"}`)
	select {
	case <-sub.C:
	default:
		t.Fatal("expected a pending stream notification")
	}
}

func TestListOrders(t *testing.T) {
	h, _, _ := newStatusFixture(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/store/orders", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(10))
	c.Set("role", model.RoleStore)

	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []orderResp `json:"items"`
		Count int         `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	for _, it := range resp.Items {
		assert.Equal(t, uint64(10), it.StoreID)
	}
}
