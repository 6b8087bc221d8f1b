package handler

// Store profile management.  A store user owns exactly the stores row whose
// id equals their session user id, so every operation here resolves the
// target row from the JWT subject; no store id is ever accepted from the
// request.

import (
	"context"
	"errors"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/catalicor/catalicor/internal/model"
	"github.com/catalicor/catalicor/internal/repository"
	"github.com/catalicor/catalicor/internal/storage"
)

// StoreProfileHandler groups the dependencies for store profile endpoints.
type StoreProfileHandler struct {
	Stores *repository.StoreRepo
	Blobs  *storage.BlobStore
}

func NewStoreProfileHandler(stores *repository.StoreRepo, blobs *storage.BlobStore) *StoreProfileHandler {
	if stores == nil {
		panic("nil repository passed to NewStoreProfileHandler")
	}
	return &StoreProfileHandler{Stores: stores, Blobs: blobs}
}

type storeProfileResp struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Address     string `json:"address"`
	QRImageURL  string `json:"qr_image_url"`
	IsActive    bool   `json:"is_active"`
}

func storeProfilePart(s *model.Store) storeProfileResp {
	return storeProfileResp{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Address:     s.Address,
		QRImageURL:  s.QRImageURL,
		IsActive:    s.IsActive,
	}
}

// GetProfile handles GET /v1/store/profile.
func (h *StoreProfileHandler) GetProfile(c echo.Context) error {
	storeID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Stores.GetByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, repository.ErrStoreNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "store not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load store"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": storeProfilePart(s)})
}

type updateProfileReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Address     string `json:"address"`
}

// UpdateProfile handles PUT /v1/store/profile.  Name is required; description
// and address may be empty.
func (h *StoreProfileHandler) UpdateProfile(c echo.Context) error {
	storeID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Stores.UpdateProfile(ctx, storeID, req.Name, strings.TrimSpace(req.Description), strings.TrimSpace(req.Address)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update store"})
	}
	s, err := h.Stores.GetByID(ctx, storeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load store"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": storeProfilePart(s)})
}

// UploadQR handles POST /v1/store/profile/qr.  The multipart field "qr"
// carries the bank-transfer QR image.  The blob path is fixed per store so a
// re-upload replaces the previous image, and the resulting durable URL is
// stored on the stores row.  Checkout for this store stays blocked until
// this has happened at least once.
func (h *StoreProfileHandler) UploadQR(c echo.Context) error {
	storeID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	fh, err := c.FormFile("qr")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "qr file is required"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot read upload"})
	}
	defer src.Close()

	name := strconv.FormatUint(storeID, 10) + strings.ToLower(path.Ext(fh.Filename))
	url, err := h.Blobs.Save("store-qrs", name, src)
	if err != nil {
		c.Logger().Errorf("qr upload failed for store %d: %v", storeID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Stores.SetQRImageURL(ctx, storeID, url); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save qr url"})
	}
	return c.JSON(http.StatusOK, echo.Map{"qr_image_url": url})
}
