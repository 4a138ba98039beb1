package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lesbonsservices/booking-api/internal/api/handler"
	"github.com/lesbonsservices/booking-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error       string              `json:"error"`
	Status      int                 `json:"status"`
	Path        string              `json:"path"`
	RequestID   string              `json:"request_id,omitempty"`
	FieldErrors map[string][]string `json:"field_errors,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors with the request id without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error", "status", "path", "request_id"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		resp := resolveError(err, log, c)
		resp.Path = c.Request().URL.Path
		resp.RequestID = requestID(c)

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(resp.Status)
			return
		}
		_ = c.JSON(resp.Status, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) errorResponse {
	var ve *handler.ValidationError
	if errors.As(err, &ve) {
		return errorResponse{Status: http.StatusBadRequest, Error: "validation failed", FieldErrors: ve.Fields}
	}

	// Echo's own errors (bind failures, 404 from router, middleware rejections).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return errorResponse{Status: he.Code, Error: fmt.Sprintf("%v", he.Message)}
	}

	// Known domain errors → deterministic HTTP codes.
	var used *domain.EmailAlreadyUsedError
	switch {
	case errors.As(err, &used):
		return errorResponse{Status: http.StatusConflict, Error: used.Error()}
	case errors.Is(err, domain.ErrEmailAlreadyUsed):
		return errorResponse{Status: http.StatusConflict, Error: "email already used"}
	case errors.Is(err, domain.ErrRegistrationInProgress):
		return errorResponse{Status: http.StatusConflict, Error: domain.ErrRegistrationInProgress.Error()}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return errorResponse{Status: http.StatusUnauthorized, Error: "invalid credentials"}
	case errors.Is(err, domain.ErrTokenInvalid), errors.Is(err, domain.ErrPrincipalNotFound):
		return errorResponse{Status: http.StatusUnauthorized, Error: "invalid token"}
	case errors.Is(err, domain.ErrInvalidRole):
		return errorResponse{Status: http.StatusBadRequest, Error: "invalid role"}
	case errors.Is(err, domain.ErrForbidden):
		return errorResponse{Status: http.StatusForbidden, Error: "access forbidden"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", requestID(c)).
		Msg("unhandled error")

	return errorResponse{Status: http.StatusInternalServerError, Error: "internal server error"}
}

func requestID(c echo.Context) string {
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}
