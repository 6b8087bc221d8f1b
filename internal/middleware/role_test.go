package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalicor/catalicor/internal/model"
	"github.com/catalicor/catalicor/internal/utils"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func invoke(mw echo.MiddlewareFunc, role interface{}) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != nil {
		c.Set("role", role)
	}
	_ = mw(okHandler)(c)
	return rec
}

func TestRequireRoleAllowsListedRole(t *testing.T) {
	rec := invoke(RequireRole(model.RoleStore), model.RoleStore)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleIsCaseInsensitive(t *testing.T) {
	rec := invoke(RequireRole("STORE"), "Store")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleRejectsOtherRole(t *testing.T) {
	rec := invoke(RequireRole(model.RoleAdmin), model.RoleClient)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleRejectsMissingRole(t *testing.T) {
	rec := invoke(RequireRole(model.RoleClient), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = invoke(RequireRole(model.RoleClient), 42)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestJWTAuthInjectsClaims(t *testing.T) {
	const secret = "test-secret"
	tok, err := utils.NewAccessToken(secret, 7, model.RoleStore, 5)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotRole interface{}
	next := func(c echo.Context) error {
		gotRole = c.Get("role")
		return c.String(http.StatusOK, "ok")
	}
	require.NoError(t, JWTAuth(secret)(next)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.RoleStore, gotRole)
}

func TestJWTAuthRejectsBadToken(t *testing.T) {
	e := echo.New()

	for _, header := range []string{"", "Bearer not-a-token", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		_ = JWTAuth("secret")(okHandler)(c)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	tok, err := utils.NewAccessToken("right-secret", 7, model.RoleClient, 5)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	_ = JWTAuth("wrong-secret")(okHandler)(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
