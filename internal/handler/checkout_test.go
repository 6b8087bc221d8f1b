package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalicor/catalicor/internal/cart"
	"github.com/catalicor/catalicor/internal/live"
	"github.com/catalicor/catalicor/internal/model"
	"github.com/catalicor/catalicor/internal/repository"
	"github.com/catalicor/catalicor/internal/storage"
)

type fakeProducts struct {
	byID map[uint64]*model.Product
}

func (f *fakeProducts) GetByID(_ context.Context, id uint64) (*model.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

type fakeStores struct {
	byID map[uint64]*model.Store
}

func (f *fakeStores) GetByID(_ context.Context, id uint64) (*model.Store, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrStoreNotFound
	}
	return s, nil
}

type fakeOrders struct {
	created  []*model.Order
	failWith error
	byUser   map[uint64][]*model.Order
	nextID   uint64
}

func (f *fakeOrders) Create(_ context.Context, o *model.Order) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.nextID++
	o.ID = f.nextID
	f.created = append(f.created, o)
	return nil
}

func (f *fakeOrders) ListByUser(_ context.Context, userID uint64) ([]*model.Order, error) {
	return f.byUser[userID], nil
}

type fakeEvents struct {
	placed []uint64
	status []uint64
}

func (f *fakeEvents) OrderPlaced(_ context.Context, o *model.Order)        { f.placed = append(f.placed, o.ID) }
func (f *fakeEvents) OrderStatusChanged(_ context.Context, o *model.Order) { f.status = append(f.status, o.ID) }

type clientFixture struct {
	h      *ClientHandler
	orders *fakeOrders
	events *fakeEvents
	blobs  *storage.BlobStore
}

func newClientFixture(t *testing.T) *clientFixture {
	t.Helper()
	blobs, err := storage.New(t.TempDir(), "")
	require.NoError(t, err)

	products := &fakeProducts{byID: map[uint64]*model.Product{
		1: {ID: 1, StoreID: 10, Name: "Pale Ale 330ml", PriceCents: 450, Stock: 24},
		2: {ID: 2, StoreID: 10, Name: "Malbec 750ml", PriceCents: 2900, Stock: 6},
		3: {ID: 3, StoreID: 20, Name: "Gin 700ml", PriceCents: 5200, Stock: 3},
	}}
	stores := &fakeStores{byID: map[uint64]*model.Store{
		10: {ID: 10, Name: "Bodega Central", QRImageURL: "/uploads/store-qrs/10.png", IsActive: true},
		20: {ID: 20, Name: "Licores Sur", IsActive: true}, // no QR configured
	}}
	orders := &fakeOrders{byUser: map[uint64][]*model.Order{}}
	events := &fakeEvents{}

	return &clientFixture{
		h:      NewClientHandler(cart.NewStore(), products, stores, orders, blobs, live.NewHub(), events),
		orders: orders,
		events: events,
		blobs:  blobs,
	}
}

func newJSONContext(t *testing.T, method, target, body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	c.Set("role", model.RoleClient)
	return c, rec
}

func seedReceipt(t *testing.T, f *clientFixture) string {
	t.Helper()
	url, err := f.blobs.SaveUnique("receipts-10", "proof.jpg", strings.NewReader("img"))
	require.NoError(t, err)
	return url
}

func TestCheckoutHappyPath(t *testing.T) {
	f := newClientFixture(t)
	const userID = 5

	ct := f.h.Carts.Get(userID)
	ct.Add(cart.Line{ProductID: 1, StoreID: 10, Name: "Pale Ale 330ml", PriceCents: 450, Quantity: 4})
	ct.Add(cart.Line{ProductID: 2, StoreID: 10, Name: "Malbec 750ml", PriceCents: 2900, Quantity: 1})

	receipt := seedReceipt(t, f)
	c, rec := newJSONContext(t, http.MethodPost, "/v1/cart/checkout", `{"receipt_url":"`+receipt+`"}`, userID)
	require.NoError(t, f.h.Checkout(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, f.orders.created, 1)
	o := f.orders.created[0]
	assert.Equal(t, uint64(userID), o.UserID)
	assert.Equal(t, uint64(10), o.StoreID)
	assert.Equal(t, model.StatusPendingPaymentVerification, o.Status)
	assert.Equal(t, model.PaymentMethodQRTransfer, o.PaymentMethod)
	assert.Equal(t, receipt, o.ReceiptURL)
	assert.Equal(t, int64(4*450+2900), o.TotalCents)
	require.Len(t, o.Items, 2)

	// Cart is cleared only after the write succeeded.
	assert.Zero(t, f.h.Carts.Get(userID).Len())
	assert.Equal(t, []uint64{o.ID}, f.events.placed)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newClientFixture(t)

	c, rec := newJSONContext(t, http.MethodPost, "/v1/cart/checkout", `{"receipt_url":"/uploads/x/y"}`, 5)
	require.NoError(t, f.h.Checkout(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.orders.created)
}

func TestCheckoutMixedStores(t *testing.T) {
	f := newClientFixture(t)
	ct := f.h.Carts.Get(5)
	ct.Add(cart.Line{ProductID: 1, StoreID: 10, PriceCents: 450, Quantity: 1})
	ct.Add(cart.Line{ProductID: 3, StoreID: 20, PriceCents: 5200, Quantity: 1})

	c, rec := newJSONContext(t, http.MethodPost, "/v1/cart/checkout", `{"receipt_url":"/uploads/x/y"}`, 5)
	require.NoError(t, f.h.Checkout(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.orders.created)
	// Cart stays intact.
	assert.Equal(t, 2, ct.Len())
}

func TestCheckoutRequiresReceipt(t *testing.T) {
	f := newClientFixture(t)
	f.h.Carts.Get(5).Add(cart.Line{ProductID: 1, StoreID: 10, PriceCents: 450, Quantity: 1})

	c, rec := newJSONContext(t, http.MethodPost, "/v1/cart/checkout", `{"receipt_url":"  "}`, 5)
	require.NoError(t, f.h.Checkout(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutRejectsDanglingReceiptURL(t *testing.T) {
	f := newClientFixture(t)
	f.h.Carts.Get(5).Add(cart.Line{ProductID: 1, StoreID: 10, PriceCents: 450, Quantity: 1})

	c, rec := newJSONContext(t, http.MethodPost, "/v1/cart/checkout", `{"receipt_url":"/uploads/receipts-10/missing.jpg"}`, 5)
	require.NoError(t, f.h.Checkout(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.orders.created)
}

func TestCheckoutStoreWithoutQR(t *testing.T) {
	f := newClientFixture(t)
	f.h.Carts.Get(5).Add(cart.Line{ProductID: 3, StoreID: 20, PriceCents: 5200, Quantity: 1})

	c, rec := newJSONContext(t, http.MethodPost, "/v1/cart/checkout", `{"receipt_url":"external-receipt"}`, 5)
	require.NoError(t, f.h.Checkout(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, f.orders.created)
}

// racingStores wraps a StoreGetter and mutates the cart while the store row
// is being fetched, like a second tab adding to the cart mid-checkout.
type racingStores struct {
	inner StoreGetter
	cart  *cart.Cart
	line  cart.Line
}

func (r *racingStores) GetByID(ctx context.Context, id uint64) (*model.Store, error) {
	r.cart.Add(r.line)
	return r.inner.GetByID(ctx, id)
}

func TestCheckoutConcurrentAddCannotMixStores(t *testing.T) {
	f := newClientFixture(t)
	const userID = 5

	ct := f.h.Carts.Get(userID)
	ct.Add(cart.Line{ProductID: 1, StoreID: 10, Name: "Pale Ale 330ml", PriceCents: 450, Quantity: 2})
	f.h.Stores = &racingStores{
		inner: f.h.Stores,
		cart:  ct,
		line:  cart.Line{ProductID: 3, StoreID: 20, Name: "Gin 700ml", PriceCents: 5200, Quantity: 1},
	}

	receipt := seedReceipt(t, f)
	c, rec := newJSONContext(t, http.MethodPost, "/v1/cart/checkout", `{"receipt_url":"`+receipt+`"}`, userID)
	require.NoError(t, f.h.Checkout(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	// The persisted order is built from the pre-race snapshot: no foreign
	// line, and the total still equals the sum over its own items.
	require.Len(t, f.orders.created, 1)
	o := f.orders.created[0]
	assert.Equal(t, uint64(10), o.StoreID)
	require.Len(t, o.Items, 1)
	assert.Equal(t, uint64(1), o.Items[0].ProductID)

	var sum int64
	for _, it := range o.Items {
		sum += it.PriceCents * int64(it.Quantity)
	}
	assert.Equal(t, o.TotalCents, sum)
	assert.Equal(t, int64(2*450), o.TotalCents)
}

func TestCheckoutOrderWriteFailureKeepsCart(t *testing.T) {
	f := newClientFixture(t)
	f.orders.failWith = errors.New("deadlock")

	ct := f.h.Carts.Get(5)
	ct.Add(cart.Line{ProductID: 1, StoreID: 10, PriceCents: 450, Quantity: 2})

	receipt := seedReceipt(t, f)
	c, rec := newJSONContext(t, http.MethodPost, "/v1/cart/checkout", `{"receipt_url":"`+receipt+`"}`, 5)
	require.NoError(t, f.h.Checkout(c))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, ct.Len())
	assert.Empty(t, f.events.placed)
}

func TestAddItemSnapshotsProduct(t *testing.T) {
	f := newClientFixture(t)

	c, rec := newJSONContext(t, http.MethodPost, "/v1/cart/items", `{"product_id":1,"quantity":3}`, 5)
	require.NoError(t, f.h.AddItem(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp cartResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Pale Ale 330ml", resp.Items[0].Name)
	assert.Equal(t, int64(450), resp.Items[0].PriceCents)
	assert.Equal(t, int64(3*450), resp.TotalCents)
}

func TestAddItemUnknownProduct(t *testing.T) {
	f := newClientFixture(t)

	c, rec := newJSONContext(t, http.MethodPost, "/v1/cart/items", `{"product_id":99}`, 5)
	require.NoError(t, f.h.AddItem(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateItemRejectsZeroQuantity(t *testing.T) {
	f := newClientFixture(t)
	f.h.Carts.Get(5).Add(cart.Line{ProductID: 1, StoreID: 10, PriceCents: 450, Quantity: 2})

	c, rec := newJSONContext(t, http.MethodPatch, "/v1/cart/items/1", `{"quantity":0}`, 5)
	c.SetParamNames("product_id")
	c.SetParamValues("1")
	require.NoError(t, f.h.UpdateItem(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 2, f.h.Carts.Get(5).Lines()[0].Quantity)
}

func TestPaymentInfo(t *testing.T) {
	f := newClientFixture(t)
	f.h.Carts.Get(5).Add(cart.Line{ProductID: 1, StoreID: 10, PriceCents: 450, Quantity: 2})

	c, rec := newJSONContext(t, http.MethodGet, "/v1/cart/payment", "", 5)
	require.NoError(t, f.h.PaymentInfo(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		StoreID    uint64 `json:"store_id"`
		QRImageURL string `json:"qr_image_url"`
		TotalCents int64  `json:"total_cents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(10), resp.StoreID)
	assert.Equal(t, "/uploads/store-qrs/10.png", resp.QRImageURL)
	assert.Equal(t, int64(900), resp.TotalCents)
}

func TestPaymentInfoStoreWithoutQR(t *testing.T) {
	f := newClientFixture(t)
	f.h.Carts.Get(5).Add(cart.Line{ProductID: 3, StoreID: 20, PriceCents: 5200, Quantity: 1})

	c, rec := newJSONContext(t, http.MethodGet, "/v1/cart/payment", "", 5)
	require.NoError(t, f.h.PaymentInfo(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}
