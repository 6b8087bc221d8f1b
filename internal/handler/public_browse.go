package handler

// Public storefront browsing.  These endpoints back the landing page (list
// of liquor stores) and the per-store catalog and require no authentication:
// guests and roleless identities are read-only browsers.  Responses are
// sanitized: owner emails, QR payment images and timestamps never appear in
// public payloads.

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/catalicor/catalicor/internal/model"
	"github.com/catalicor/catalicor/internal/repository"
)

// PublicHandler exposes unauthenticated browse endpoints over stores and
// their catalogs.
type PublicHandler struct {
	Stores   *repository.StoreRepo
	Products *repository.ProductRepo
}

func NewPublicHandler(stores *repository.StoreRepo, products *repository.ProductRepo) *PublicHandler {
	if stores == nil || products == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Stores: stores, Products: products}
}

type publicStore struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Address     string `json:"address"`
}

type publicProduct struct {
	ID         uint64 `json:"id"`
	StoreID    uint64 `json:"store_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Stock      int    `json:"stock"`
	ImageURL   string `json:"image_url"`
}

func toPublicStore(s *model.Store) publicStore {
	return publicStore{ID: s.ID, Name: s.Name, Description: s.Description, Address: s.Address}
}

func toPublicProduct(p *model.Product) publicProduct {
	return publicProduct{ID: p.ID, StoreID: p.StoreID, Name: p.Name, PriceCents: p.PriceCents, Stock: p.Stock, ImageURL: p.ImageURL}
}

// ListStores handles GET /v1/stores.  It returns all active stores.
func (h *PublicHandler) ListStores(c echo.Context) error {
	stores, err := h.Stores.ListActive(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load stores"})
	}
	items := make([]publicStore, 0, len(stores))
	for _, s := range stores {
		items = append(items, toPublicStore(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetStore handles GET /v1/stores/:id and returns a single store's public
// profile.  Inactive stores are hidden from guests.
func (h *PublicHandler) GetStore(c echo.Context) error {
	storeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || storeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid store id"})
	}
	s, err := h.Stores.GetByID(c.Request().Context(), storeID)
	if err != nil {
		if errors.Is(err, repository.ErrStoreNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "store not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load store"})
	}
	if !s.IsActive {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "store not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toPublicStore(s)})
}

// ListStoreProducts handles GET /v1/stores/:id/products and returns the
// store's catalog.  An empty array is returned for stores without products.
func (h *PublicHandler) ListStoreProducts(c echo.Context) error {
	storeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || storeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid store id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Stores.GetByID(ctx, storeID); err != nil {
		if errors.Is(err, repository.ErrStoreNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "store not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load store"})
	}
	products, err := h.Products.ListByStore(ctx, storeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load products"})
	}
	items := make([]publicProduct, 0, len(products))
	for _, p := range products {
		items = append(items, toPublicProduct(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
