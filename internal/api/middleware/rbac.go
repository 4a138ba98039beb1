package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lesbonsservices/booking-api/internal/core/domain"
)

// RBAC enforces role-based access control on the restored identity. The
// role always comes from storage, never from the token.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := domain.IdentityFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !identity.HasRole(allowedRoles...) {
				return echo.NewHTTPError(http.StatusForbidden, "access forbidden").SetInternal(domain.ErrForbidden)
			}
			return next(c)
		}
	}
}
