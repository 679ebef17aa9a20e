package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/mmp/docrepo/docs"
	"github.com/mmp/docrepo/internal/api/handler"
	"github.com/mmp/docrepo/internal/api/middleware"
	"github.com/mmp/docrepo/internal/core/ports"
)

// Deps is everything the router needs. Services are built by the caller.
type Deps struct {
	Repository  ports.RepositoryService
	Auth        ports.AuthService
	Audit       ports.AuditService
	Revocations ports.TokenRevocations

	JWTSecret   string
	TokenIssuer string

	// Checks are run by the readiness probe.
	Checks map[string]handler.Check
	// PublicDir, when set, is served at /.
	PublicDir string
	// Registry receives the HTTP metrics. Defaults to the global registry.
	Registry *prometheus.Registry

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := d.Log.Info()
			if v.Error != nil {
				ev = d.Log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "docrepo",
		Registerer: registerer,
	}))

	// --- Dependencies ---
	auth := middleware.Auth(d.JWTSecret, d.TokenIssuer, d.Revocations)
	optionalAuth := middleware.OptionalAuth(d.JWTSecret, d.TokenIssuer, d.Revocations)

	authHandler := handler.NewAuthHandler(d.Auth)
	userHandler := handler.NewUserHandler(d.Repository)
	documentHandler := handler.NewDocumentHandler(d.Repository)
	structureHandler := handler.NewStructureHandler(d.Repository)
	auditHandler := handler.NewAuditHandler(d.Audit)

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, auth)

	// --- Repository routes ---
	v1 := e.Group("/v1")

	v1.POST("/users", userHandler.Create, optionalAuth)
	v1.GET("/users", userHandler.List, auth)
	v1.GET("/users/:id", userHandler.Get, auth)
	v1.PATCH("/users/:id", userHandler.Update, auth)
	v1.DELETE("/users/:id", userHandler.Remove, auth)

	v1.GET("/documents", documentHandler.List, auth)
	v1.POST("/documents", documentHandler.Create, auth)
	v1.GET("/documents/:id", documentHandler.Get, auth)
	v1.PATCH("/documents/:id", documentHandler.Update, auth)
	v1.DELETE("/documents/:id", documentHandler.Remove, auth)

	v1.GET("/structures", structureHandler.List)
	v1.GET("/structures/:id", structureHandler.Get)
	v1.POST("/structures", structureHandler.Create, auth)
	v1.PATCH("/structures/:id", structureHandler.Update, auth)
	v1.DELETE("/structures/:id", structureHandler.Remove, auth)

	v1.GET("/audit", auditHandler.List, auth)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	if d.PublicDir != "" {
		e.Static("/", d.PublicDir)
	}

	return e
}
