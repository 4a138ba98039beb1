package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// IdentityHandler exposes the identity restored for the current request.
type IdentityHandler struct{}

func NewIdentityHandler() *IdentityHandler {
	return &IdentityHandler{}
}

// Me returns the authenticated account.
//
// @Summary      Current account
// @Tags         identity
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  meResponse
// @Failure      401  {object}  map[string]any
// @Router       /api/me [get]
func (h *IdentityHandler) Me(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meResponse{
		userResponse: toUserResponse(identity.Principal),
		Authority:    identity.Authority,
	})
}

// ProfessionalProfile returns the business profile of a professional.
//
// @Summary      Current professional profile
// @Tags         identity
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  professionalResponse
// @Failure      401  {object}  map[string]any
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /api/pro/me [get]
func (h *IdentityHandler) ProfessionalProfile(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	if identity.Principal.Professional == nil {
		return echo.NewHTTPError(http.StatusNotFound, "professional profile not found")
	}
	return c.JSON(http.StatusOK, toProfessionalResponse(identity.Principal))
}
