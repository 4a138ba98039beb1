package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/lesbonsservices/booking-api/internal/core/domain"
)

func rbacContext(role domain.Role) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if role != "" {
		ctx, _ := domain.ContextWithIdentity(req.Context(), domain.NewIdentity(&domain.User{ID: 1, Role: role}, domain.RequestMeta{}))
		req = req.WithContext(ctx)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func TestRBAC_Allows(t *testing.T) {
	c := rbacContext(domain.RoleProfessional)

	called := false
	mw := RBAC(domain.RoleProfessional, domain.RoleClient)
	handler := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
}

func TestRBAC_Forbidden(t *testing.T) {
	c := rbacContext(domain.RoleClient)

	mw := RBAC(domain.RoleProfessional)
	handler := mw(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	err := handler(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRBAC_Anonymous(t *testing.T) {
	c := rbacContext("")

	err := RBAC(domain.RoleClient)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}
