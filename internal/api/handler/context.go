package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lesbonsservices/booking-api/internal/core/domain"
)

// currentIdentity returns the identity restored by the Authenticate
// middleware. Its absence means the route was mounted without RequireAuth;
// reject with 401 rather than serve an anonymous caller.
func currentIdentity(c echo.Context) (*domain.Identity, error) {
	identity, ok := domain.IdentityFromContext(c.Request().Context())
	if !ok || identity.Principal == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return identity, nil
}
