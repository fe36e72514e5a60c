package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/inipunyacita/merthanaya-pos-sub001/internal/config"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/presentation/http/response"
	"github.com/inipunyacita/merthanaya-pos-sub001/pkg/errorbank"
)

const principalKey = "auth.principal"

// Middleware authenticates every request carrying a bearer token and rejects
// requests without a valid, active principal. Paths accepted by skip are left
// unauthenticated (health, metrics).
func Middleware(cfg config.Config, skip func(path string) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skip != nil && skip(c.Path()) {
				return next(c)
			}

			b := response.New(c)

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") {
				return b.WithError(errorbank.Unauthorized("missing bearer token")).Build()
			}
			raw := strings.TrimSpace(token)
			if raw == "" {
				return b.WithError(errorbank.Unauthorized("missing bearer token")).Build()
			}

			principal, err := ParseToken(raw, cfg.Auth.JWTSecret, cfg.Auth.Issuer)
			if err != nil {
				return b.WithError(errorbank.Unauthorized("invalid bearer token")).Build()
			}
			if !principal.Active {
				return b.WithError(errorbank.Forbidden("account disabled")).Build()
			}

			c.Set(principalKey, principal)
			return next(c)
		}
	}
}

// RequireAdmin guards admin-only routes (catalog mutation, manual stock
// adjustments, user management).
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if FromContext(c).Role != RoleAdmin {
			return response.New(c).
				WithError(errorbank.Forbidden("admin role required")).
				Build()
		}
		return next(c)
	}
}

// FromContext returns the principal attached by Middleware, or the zero value
// when the route was not authenticated.
func FromContext(c echo.Context) Principal {
	p, _ := c.Get(principalKey).(Principal)
	return p
}
