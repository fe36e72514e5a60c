package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inipunyacita/merthanaya-pos-sub001/internal/config"
)

func newAuthedEcho(t *testing.T) *echo.Echo {
	t.Helper()
	cfg := config.Config{}
	cfg.Auth.JWTSecret = testSecret

	e := echo.New()
	e.Use(Middleware(cfg, func(path string) bool {
		return path == "/health"
	}))
	e.GET("/orders/pending", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	e.GET("/health", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return e
}

func TestMiddleware(t *testing.T) {
	e := newAuthedEcho(t)

	do := func(authorization string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/orders/pending", nil)
		if authorization != "" {
			req.Header.Set(echo.HeaderAuthorization, authorization)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	t.Run("ValidBearerToken", func(t *testing.T) {
		raw := signToken(t, testSecret, baseClaims())
		rec := do("Bearer " + raw)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("SchemeIsCaseInsensitive", func(t *testing.T) {
		raw := signToken(t, testSecret, baseClaims())
		rec := do("bearer " + raw)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("BareTokenWithoutSchemeIsRejected", func(t *testing.T) {
		raw := signToken(t, testSecret, baseClaims())
		rec := do(raw)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("WrongScheme", func(t *testing.T) {
		raw := signToken(t, testSecret, baseClaims())
		rec := do("Basic " + raw)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("MissingHeader", func(t *testing.T) {
		rec := do("")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("EmptyTokenAfterScheme", func(t *testing.T) {
		rec := do("Bearer  ")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("InvalidToken", func(t *testing.T) {
		rec := do("Bearer not-a-token")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("DisabledPrincipalIsForbidden", func(t *testing.T) {
		claims := baseClaims()
		claims["active"] = false
		rec := do("Bearer " + signToken(t, testSecret, claims))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("SkippedPathNeedsNoToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}
