package handler

// Product management for store owners.  The owning store id always comes
// from the session, validation enforces price > 0 and stock >= 0, and the
// repository folds store_id into every WHERE clause so a store can never
// touch another store's catalog even with a guessed product id.

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/catalicor/catalicor/internal/model"
	"github.com/catalicor/catalicor/internal/repository"
	"github.com/catalicor/catalicor/internal/storage"
)

type StoreProductHandler struct {
	Products *repository.ProductRepo
	Blobs    *storage.BlobStore
}

func NewStoreProductHandler(products *repository.ProductRepo, blobs *storage.BlobStore) *StoreProductHandler {
	if products == nil {
		panic("nil repository passed to NewStoreProductHandler")
	}
	return &StoreProductHandler{Products: products, Blobs: blobs}
}

type productReq struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Stock      int    `json:"stock"`
	ImageURL   string `json:"image_url"`
}

func (r *productReq) validate() string {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return "name is required"
	}
	if r.PriceCents <= 0 {
		return "price_cents must be positive"
	}
	if r.Stock < 0 {
		return "stock must not be negative"
	}
	return ""
}

type productResp struct {
	ID         uint64 `json:"id"`
	StoreID    uint64 `json:"store_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Stock      int    `json:"stock"`
	ImageURL   string `json:"image_url"`
}

func toProductResp(p *model.Product) productResp {
	return productResp{ID: p.ID, StoreID: p.StoreID, Name: p.Name, PriceCents: p.PriceCents, Stock: p.Stock, ImageURL: p.ImageURL}
}

// List handles GET /v1/store/products.
func (h *StoreProductHandler) List(c echo.Context) error {
	storeID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	products, err := h.Products.ListByStore(c.Request().Context(), storeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load products"})
	}
	items := make([]productResp, 0, len(products))
	for _, p := range products {
		items = append(items, toProductResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Create handles POST /v1/store/products.
func (h *StoreProductHandler) Create(c echo.Context) error {
	storeID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p := &model.Product{
		StoreID:    storeID,
		Name:       req.Name,
		PriceCents: req.PriceCents,
		Stock:      req.Stock,
		ImageURL:   req.ImageURL,
	}
	if err := h.Products.Create(ctx, p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create product"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": toProductResp(p)})
}

// Update handles PUT /v1/store/products/:id.  The store_id of a product is
// immutable; only name, price, stock and image change.
func (h *StoreProductHandler) Update(c echo.Context) error {
	storeID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || productID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Products.Update(ctx, productID, storeID, req.Name, req.PriceCents, req.Stock, req.ImageURL); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update product"})
	}
	p, err := h.Products.GetByID(ctx, productID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load product"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toProductResp(p)})
}

// Delete handles DELETE /v1/store/products/:id.  Order snapshots are
// untouched by product deletion.
func (h *StoreProductHandler) Delete(c echo.Context) error {
	storeID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || productID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Products.Delete(ctx, productID, storeID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete product"})
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadImage handles POST /v1/store/products/image.  It stores a product
// photo and returns a URL to pass as image_url on a subsequent create or
// update.  Images live in a per-store bucket with a timestamped name, so
// re-uploading the same filename never clobbers an existing product photo.
func (h *StoreProductHandler) UploadImage(c echo.Context) error {
	storeID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "image file is required"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot read upload"})
	}
	defer src.Close()

	url, err := h.Blobs.SaveUnique("product-images-"+strconv.FormatUint(storeID, 10), fh.Filename, src)
	if err != nil {
		c.Logger().Errorf("product image upload failed for store %d: %v", storeID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"image_url": url})
}
