package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/autoworks/jobcard-service/docs"
	"github.com/autoworks/jobcard-service/internal/api/handler"
	"github.com/autoworks/jobcard-service/internal/api/middleware"
	"github.com/autoworks/jobcard-service/internal/core/domain"
	"github.com/autoworks/jobcard-service/internal/core/ports"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	AuthService    ports.AuthService
	TokenVerifier  ports.TokenVerifier
	JobCardService ports.JobCardService
	Uploads        *handler.ImageUploads
	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter ports.RateLimiter
	// Pingers feed the readiness probe, keyed by dependency name.
	Pingers map[string]handler.Pinger
	// StaticDir, when set, is served under StaticPrefix.
	StaticDir    string
	StaticPrefix string
	// TrustProxyHeaders reads the client IP from X-Forwarded-For instead of
	// the socket peer.
	TrustProxyHeaders bool
	// Registerer and Gatherer default to the Prometheus default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Log        zerolog.Logger
}

var (
	writeRoles = []domain.Role{domain.RoleAdmin}
	readRoles  = []domain.Role{domain.RoleAdmin, domain.RoleEmployee}
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.IPExtractor = echo.ExtractIPDirect()
	if d.TrustProxyHeaders {
		e.IPExtractor = echo.ExtractIPFromXFFHeader()
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomiddleware.CORS())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "jobcard",
		Registerer: d.Registerer,
	}))
	if d.RateLimiter != nil {
		e.Use(middleware.RateLimit(d.RateLimiter, d.Log))
	}
	e.Use(middleware.Authenticate(d.TokenVerifier))

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler(d.Pingers)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	if d.StaticDir != "" {
		e.Static(d.StaticPrefix, d.StaticDir)
	}

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.AuthService)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/users", authHandler.CreateUser, middleware.RequireRole(writeRoles...))

	// --- Job card routes ---
	jobCardHandler := handler.NewJobCardHandler(d.JobCardService, d.Uploads)
	jobCards := e.Group("/jobcards")
	jobCards.POST("", jobCardHandler.Create, middleware.RequireRole(writeRoles...))
	jobCards.GET("", jobCardHandler.List, middleware.RequireRole(readRoles...))
	jobCards.GET("/:id", jobCardHandler.Get, middleware.RequireRole(readRoles...))
	jobCards.PATCH("/:id", jobCardHandler.Update, middleware.RequireRole(writeRoles...))
	jobCards.DELETE("/:id", jobCardHandler.Delete, middleware.RequireRole(writeRoles...))

	return e
}
