package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lesbonsservices/booking-api/internal/api/metrics"
	"github.com/lesbonsservices/booking-api/internal/core/domain"
	"github.com/lesbonsservices/booking-api/internal/core/ports"
)

// IdentityKey is the echo context key holding the *domain.Identity.
const IdentityKey = "identity"

// Authenticate restores the request identity from a bearer token.
//
// Requests without a bearer token pass through anonymously. A bearer token
// that fails verification, names a non-numeric or unknown subject, or points
// at an inactive account is rejected with 401 before next runs. Storage
// errors are returned as-is and end up as 500.
func Authenticate(tokens ports.TokenService, users ports.UserRepository, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return next(c)
			}

			req := c.Request()
			ctx := req.Context()
			if _, set := domain.IdentityFromContext(ctx); set {
				return next(c)
			}

			if token == "" || !tokens.Verify(token) {
				metrics.TokenRejectionsTotal.WithLabelValues("invalid_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token").SetInternal(domain.ErrTokenInvalid)
			}

			subject, err := tokens.ExtractSubject(token)
			if err != nil {
				metrics.TokenRejectionsTotal.WithLabelValues("invalid_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token").SetInternal(err)
			}
			id, err := strconv.ParseInt(subject, 10, 64)
			if err != nil {
				log.Warn().Str("subject", subject).Msg("token subject is not a user id")
				return principalNotFound()
			}

			user, err := users.FindByID(ctx, id)
			if err != nil {
				if errors.Is(err, domain.ErrPrincipalNotFound) {
					log.Warn().Int64("user_id", id).Msg("token references unknown user")
					return principalNotFound()
				}
				return fmt.Errorf("authenticate: load principal %d: %w", id, err)
			}
			if !user.IsActive {
				log.Warn().Int64("user_id", id).Msg("token references inactive user")
				return principalNotFound()
			}

			// ContextWithIdentity cannot fail here: an existing identity
			// returned early above.
			identity := domain.NewIdentity(user, domain.RequestMetaFromContext(ctx))
			ctx, _ = domain.ContextWithIdentity(ctx, identity)
			c.SetRequest(req.WithContext(ctx))
			c.Set(IdentityKey, identity)

			return next(c)
		}
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := domain.IdentityFromContext(c.Request().Context()); !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			return next(c)
		}
	}
}

// bearerToken reports whether header uses the bearer scheme and returns the
// raw token after it. The scheme name is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	if len(parts) == 1 {
		return "", true
	}
	return strings.TrimSpace(parts[1]), true
}

func principalNotFound() error {
	metrics.TokenRejectionsTotal.WithLabelValues("principal_not_found").Inc()
	return echo.NewHTTPError(http.StatusUnauthorized, "invalid token").SetInternal(domain.ErrPrincipalNotFound)
}
