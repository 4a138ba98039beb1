package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lesbonsservices/booking-api/internal/core/domain"
	"github.com/lesbonsservices/booking-api/internal/core/service"
	"github.com/lesbonsservices/booking-api/internal/infrastructure/http/handlers"
)

const routerSecret = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="

type memUsers struct {
	mu     sync.Mutex
	byID   map[int64]*domain.User
	nextID int64
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[int64]*domain.User)}
}

func (m *memUsers) FindByID(_ context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, domain.ErrPrincipalNotFound
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrPrincipalNotFound
}

func (m *memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrPrincipalNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (m *memUsers) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *user
	if stored.ID == 0 {
		m.nextID++
		stored.ID = m.nextID
		if stored.Professional != nil {
			pro := *stored.Professional
			pro.ID = m.nextID
			stored.Professional = &pro
		}
	}
	m.byID[stored.ID] = &stored
	clone := stored
	return &clone, nil
}

type captureAudit struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (a *captureAudit) Record(event domain.AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

func (a *captureAudit) last() domain.AuditEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.events[len(a.events)-1]
}

type testServer struct {
	e     *echo.Echo
	users *memUsers
	audit *captureAudit
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, false)
}

func newTestServerWith(t *testing.T, trustProxy bool) *testServer {
	t.Helper()
	tokens, err := service.NewJWTTokenService(routerSecret, time.Hour)
	require.NoError(t, err)

	users := newMemUsers()
	audit := &captureAudit{}
	auth := service.NewAuthService(users, tokens, service.NewBcryptHasher(bcrypt.MinCost), zerolog.Nop(),
		service.WithAuditRecorder(audit),
	)

	e, err := NewRouter(RouterDeps{
		Logger: zerolog.Nop(),
		Auth:   auth,
		Tokens: tokens,
		Users:  users,
		Readiness: map[string]handlers.PingFunc{
			"mongo": func(context.Context) error { return nil },
		},
		Registry:   prometheus.NewRegistry(),
		TrustProxy: trustProxy,
	})
	require.NoError(t, err)
	return &testServer{e: e, users: users, audit: audit}
}

func (s *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	return s.doWithHeaders(method, path, body, token, nil)
}

func (s *testServer) doWithHeaders(method, path, body, token string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

const clientBody = `{"email":"Camille@Example.com","password":"s3cretpass","firstName":"Camille","lastName":"Durand","phone":"0612345678"}`

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := s.do(http.MethodPost, "/api/auth/login", `{"email":"`+email+`","password":"`+password+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	return body.Token
}

func TestRouter_RegisterLoginMe(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/auth/register", clientBody, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	token := s.login(t, "camille@example.com", "s3cretpass")

	rec = s.do(http.MethodGet, "/api/me", "", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var me map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "camille@example.com", me["email"])
	assert.Equal(t, "CLIENT", me["role"])
	assert.Equal(t, "ROLE_CLIENT", me["authority"])
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestRouter_DuplicateRegistrationConflicts(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/auth/register", clientBody, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/register", clientBody, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "camille@example.com")
}

func TestRouter_RegisterAcceptsRoleButStoresClient(t *testing.T) {
	s := newTestServer(t)

	body := `{"email":"role@example.com","password":"s3cretpass","firstName":"Ana","lastName":"Petit","phone":"0612345678","role":"PROFESSIONAL"}`
	rec := s.do(http.MethodPost, "/api/auth/register", body, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var user map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "CLIENT", user["role"])

	stored, err := s.users.FindByEmail(context.Background(), "role@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, stored.Role)
	assert.Nil(t, stored.Professional)
}

func TestRouter_RegisterRejectsPasswordOverBcryptLimit(t *testing.T) {
	s := newTestServer(t)

	// 40 runes but 80 bytes.
	password := strings.Repeat("é", 40)
	client := `{"email":"long@example.com","password":"` + password + `","firstName":"Ana","lastName":"Petit","phone":"0612345678"}`
	pro := `{"user":{"email":"longpro@example.com","password":"` + password + `","firstName":"Lea","lastName":"Martin","phone":"0712345678"},"businessName":"Lea Coiffure","phone":"0612345678","city":"Lyon"}`

	for path, body := range map[string]string{
		"/api/auth/register":     client,
		"/api/auth/pro/register": pro,
	} {
		rec := s.do(http.MethodPost, path, body, "")
		require.Equal(t, http.StatusBadRequest, rec.Code, "%s: %s", path, rec.Body.String())

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "validation failed", resp.Error)
		assert.NotEmpty(t, resp.FieldErrors)
	}
	_, err := s.users.FindByEmail(context.Background(), "long@example.com")
	assert.ErrorIs(t, err, domain.ErrPrincipalNotFound)
}

func TestRouter_AuditRemoteIPIgnoresForwardedForByDefault(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/auth/register", clientBody, "").Code)

	rec := s.doWithHeaders(http.MethodPost, "/api/auth/login",
		`{"email":"camille@example.com","password":"s3cretpass"}`, "",
		map[string]string{echo.HeaderXForwardedFor: "203.0.113.9"})
	require.Equal(t, http.StatusOK, rec.Code)

	// httptest requests come from 192.0.2.1.
	assert.Equal(t, "192.0.2.1", s.audit.last().Meta.RemoteIP)
}

func TestRouter_AuditRemoteIPFromTrustedProxy(t *testing.T) {
	s := newTestServerWith(t, true)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/auth/register", clientBody, "").Code)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"camille@example.com","password":"s3cretpass"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderXForwardedFor, "203.0.113.9")
	req.RemoteAddr = "10.0.0.5:4321"
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "203.0.113.9", s.audit.last().Meta.RemoteIP)
}

func TestRouter_LoginWrongPassword(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/auth/register", clientBody, "").Code)

	rec := s.do(http.MethodPost, "/api/auth/login", `{"email":"camille@example.com","password":"wrong-password"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_MeRequiresIdentity(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/api/me", "", "not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid token", body.Error)
	assert.NotEmpty(t, body.RequestID)
}

func TestRouter_InvalidTokenRejectedOnPublicRoute(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/auth/login", `{"email":"a@example.com","password":"x"}`, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_TokenForDeactivatedAccount(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/auth/register", clientBody, "").Code)
	token := s.login(t, "camille@example.com", "s3cretpass")

	u, err := s.users.FindByEmail(context.Background(), "camille@example.com")
	require.NoError(t, err)
	u.IsActive = false
	_, err = s.users.Save(context.Background(), u)
	require.NoError(t, err)

	rec := s.do(http.MethodGet, "/api/me", "", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_ProfessionalFlow(t *testing.T) {
	s := newTestServer(t)

	proBody := `{
		"user": {"email":"pro@example.com","password":"s3cretpass","firstName":"Lea","lastName":"Martin","phone":"0712345678"},
		"businessName":"Lea Coiffure","phone":"0612345678","city":"Lyon"
	}`
	rec := s.do(http.MethodPost, "/api/auth/pro/register", proBody, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	proToken := s.login(t, "pro@example.com", "s3cretpass")
	rec = s.do(http.MethodGet, "/api/pro/me", "", proToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Lea Coiffure")

	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/auth/register", clientBody, "").Code)
	clientToken := s.login(t, "camille@example.com", "s3cretpass")
	rec = s.do(http.MethodGet, "/api/pro/me", "", clientToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_ValidationErrors(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/auth/register", `{"email":"nope","password":"short"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.FieldErrors, "email")
	assert.Contains(t, body.FieldErrors, "password")
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health/ready", "", "").Code)

	rec := s.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}
