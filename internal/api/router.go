package api

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/lesbonsservices/booking-api/docs"
	"github.com/lesbonsservices/booking-api/internal/api/handler"
	"github.com/lesbonsservices/booking-api/internal/api/middleware"
	"github.com/lesbonsservices/booking-api/internal/core/domain"
	"github.com/lesbonsservices/booking-api/internal/core/ports"
	"github.com/lesbonsservices/booking-api/internal/infrastructure/http/handlers"
)

// RouterDeps carries everything the HTTP layer needs. Registry is optional;
// nil registers HTTP metrics with the default Prometheus registry. The client
// IP comes from the TCP peer unless TrustProxy is set, in which case
// X-Forwarded-For is honoured for hops from private or loopback addresses.
type RouterDeps struct {
	Logger     zerolog.Logger
	Auth       ports.AuthService
	Tokens     ports.TokenService
	Users      ports.UserRepository
	Readiness  map[string]handlers.PingFunc
	Registry   *prometheus.Registry
	TrustProxy bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps RouterDeps) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)
	e.IPExtractor = echo.ExtractIPDirect()
	if deps.TrustProxy {
		e.IPExtractor = echo.ExtractIPFromXFFHeader()
	}

	promConfig := echoprometheus.MiddlewareConfig{
		Subsystem:                 "http",
		DoNotUseRequestPathFor404: true,
	}
	metricsHandler := echoprometheus.NewHandler()
	if deps.Registry != nil {
		promConfig.Registerer = deps.Registry
		metricsHandler = echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Registry})
	}
	promMiddleware, err := promConfig.ToMiddleware()
	if err != nil {
		return nil, fmt.Errorf("prometheus middleware: %w", err)
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(middleware.RequestMeta())
	e.Use(promMiddleware)
	e.Use(middleware.Authenticate(deps.Tokens, deps.Users, deps.Logger))

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	auth := e.Group("/api/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/register", authHandler.Register)
	auth.POST("/pro/register", authHandler.RegisterProfessional)

	// --- Authenticated routes ---
	identityHandler := handler.NewIdentityHandler()
	e.GET("/api/me", identityHandler.Me, middleware.RequireAuth())
	e.GET("/api/pro/me", identityHandler.ProfessionalProfile,
		middleware.RequireAuth(),
		middleware.RBAC(domain.RoleProfessional),
	)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Readiness)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	// --- Operations ---
	e.GET("/metrics", metricsHandler)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e, nil
}
