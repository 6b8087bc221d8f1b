package handler

// Admin endpoints.  The single administrator provisions new store accounts:
// one user with role=store plus its stores row, both in one transaction.
// The admin role gate is enforced in middleware AND the write path only
// exists behind it, so no other role can reach the provisioning code.

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/catalicor/catalicor/internal/config"
	"github.com/catalicor/catalicor/internal/repository"
)

type AdminHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewAdminHandler(cfg config.Config, users *repository.UserRepo) *AdminHandler {
	if users == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Cfg: cfg, Users: users}
}

type createStoreReq struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	StoreName string `json:"store_name"`
}

// CreateStore handles POST /v1/admin/stores.  It provisions a store account
// on behalf of the administrator and returns the new store's id.
func (h *AdminHandler) CreateStore(c echo.Context) error {
	var req createStoreReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.StoreName = strings.TrimSpace(req.StoreName)
	if req.Email == "" || req.Password == "" || req.StoreName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, password and store_name are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.CreateStoreAccount(ctx, req.Email, req.Password, req.StoreName, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create store failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"store_id": uid,
		"email":    req.Email,
		"name":     req.StoreName,
	})
}
