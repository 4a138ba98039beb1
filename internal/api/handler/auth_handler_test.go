package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/lesbonsservices/booking-api/internal/core/domain"
	"github.com/lesbonsservices/booking-api/internal/core/ports"
)

type stubAuthService struct {
	registerFn    func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	registerProFn func(ctx context.Context, in ports.RegisterProfessionalInput) (*domain.User, error)
	loginFn       func(ctx context.Context, email, password string) (*ports.LoginResult, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) RegisterProfessional(ctx context.Context, in ports.RegisterProfessionalInput) (*domain.User, error) {
	return s.registerProFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, email, password)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func newJSONContext(e *echo.Echo, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

const validRegisterBody = `{"email":"alice@example.com","password":"pass1234","firstName":"Alice","lastName":"Martin","phone":"0612345678"}`

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			if in.Email != "alice@example.com" || in.Password != "pass1234" || in.Role != "" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: 1, Email: in.Email, PasswordHash: "hash", FirstName: in.FirstName, LastName: in.LastName, Phone: in.Phone, Role: domain.RoleClient}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newJSONContext(e, http.MethodPost, "/api/auth/register", validRegisterBody)
	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["id"] != float64(1) || resp["email"] != "alice@example.com" || resp["role"] != "CLIENT" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "hash") || strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("response leaks credentials: %s", rec.Body.String())
	}
}

func TestAuthHandler_Register_EmailAlreadyUsed(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			return nil, &domain.EmailAlreadyUsedError{Email: in.Email}
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := newJSONContext(e, http.MethodPost, "/api/auth/register", validRegisterBody)
	err := handler.Register(c)
	if !errors.Is(err, domain.ErrEmailAlreadyUsed) {
		t.Fatalf("expected ErrEmailAlreadyUsed, got %v", err)
	}
}

func TestAuthHandler_Register_ValidationFailure(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			t.Fatalf("service should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub)

	body := `{"email":"not-an-email","password":"short","firstName":"A","lastName":"B","phone":"0512345678","role":"PROFESSIONAL"}`
	c, _ := newJSONContext(e, http.MethodPost, "/api/auth/register", body)

	err := handler.Register(c)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"email", "password", "phone", "role"} {
		if len(ve.Fields[field]) == 0 {
			t.Fatalf("expected error for %s, got %+v", field, ve.Fields)
		}
	}
}

func TestAuthHandler_Register_InvalidJSON(t *testing.T) {
	e := newEcho()
	handler := NewAuthHandler(&stubAuthService{})

	c, _ := newJSONContext(e, http.MethodPost, "/api/auth/register", `{"email":`)
	err := handler.Register(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestAuthHandler_RegisterProfessional_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerProFn: func(ctx context.Context, in ports.RegisterProfessionalInput) (*domain.User, error) {
			if in.User.Email != "pro@example.com" || in.BusinessName != "Plomberie Martin" || in.City != "Lyon" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{
				ID:    3,
				Email: in.User.Email,
				Role:  domain.RoleProfessional,
				Professional: &domain.Professional{
					ID:           9,
					BusinessName: in.BusinessName,
					Phone:        in.Phone,
					City:         in.City,
				},
			}, nil
		},
	}
	handler := NewAuthHandler(stub)

	body := `{"user":{"email":"pro@example.com","password":"pass1234","firstName":"Paul","lastName":"Martin","phone":"0712345678"},` +
		`"businessName":"Plomberie Martin","description":"Dépannage","phone":"0612345678","city":"Lyon"}`
	c, rec := newJSONContext(e, http.MethodPost, "/api/auth/pro/register", body)

	if err := handler.RegisterProfessional(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["role"] != "PROFESSIONAL" || user["id"] != float64(3) {
		t.Fatalf("unexpected user payload: %+v", resp)
	}
	if resp["id"] != float64(9) || resp["businessName"] != "Plomberie Martin" {
		t.Fatalf("unexpected profile payload: %+v", resp)
	}
}

func TestAuthHandler_RegisterProfessional_NestedValidation(t *testing.T) {
	e := newEcho()
	handler := NewAuthHandler(&stubAuthService{})

	body := `{"user":{"email":"pro@example.com","password":"pass1234","firstName":"Paul","lastName":"Martin"},"businessName":"X","phone":"0612345678","city":"Lyon"}`
	c, _ := newJSONContext(e, http.MethodPost, "/api/auth/pro/register", body)

	err := handler.RegisterProfessional(c)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Fields["user.phone"]) == 0 {
		t.Fatalf("expected user.phone error, got %+v", ve.Fields)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.LoginResult, error) {
			if email != "carol@example.com" || password != "s3cret12" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return &ports.LoginResult{UserID: 5, Email: email, Role: domain.RoleClient, Token: "signed"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newJSONContext(e, http.MethodPost, "/api/auth/login", `{"email":"carol@example.com","password":"s3cret12"}`)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["userId"] != float64(5) || resp["token"] != "signed" || resp["role"] != "CLIENT" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.LoginResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := newJSONContext(e, http.MethodPost, "/api/auth/login", `{"email":"x@example.com","password":"nope"}`)
	if err := handler.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	e := newEcho()
	handler := NewAuthHandler(&stubAuthService{})

	c, _ := newJSONContext(e, http.MethodPost, "/api/auth/login", `{}`)
	var ve *ValidationError
	if err := handler.Login(c); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
