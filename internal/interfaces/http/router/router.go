// Package router assembles the view server's gin engine.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abarrotes/storefront/internal/infrastructure/logger"
	"github.com/abarrotes/storefront/internal/interfaces/http/dto"
	"github.com/abarrotes/storefront/internal/interfaces/http/middleware"
)

// DefaultMaxBodyBytes caps request bodies
const DefaultMaxBodyBytes int64 = 1 << 20

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// EngineConfig configures the middleware chain
type EngineConfig struct {
	Logger       *zap.Logger
	Tracing      middleware.TracingConfig
	Sessions     middleware.SessionReader
	OnSession    []middleware.SessionHook
	Metrics      *middleware.HTTPMetrics // nil disables /metrics
	MaxBodyBytes int64
}

// NewEngine builds a gin engine with the standard middleware chain and
// the given route registrars mounted under /api/v1
func NewEngine(cfg EngineConfig, registrars ...RouteRegistrar) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	engine := gin.New()
	engine.Use(
		logger.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.Tracing(cfg.Tracing),
		middleware.TracingAttributeInjector(),
		middleware.SpanErrorMarker(),
		logger.GinMiddleware(cfg.Logger),
		middleware.Notices(),
		middleware.BodyLimit(cfg.MaxBodyBytes),
	)
	if cfg.Metrics != nil {
		engine.Use(cfg.Metrics.Middleware())
		engine.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}
	if cfg.Sessions != nil {
		engine.Use(middleware.SessionContext(cfg.Sessions, cfg.OnSession...))
	}

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}))
	})
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", c.GetString(middleware.RequestIDKey)))
	})

	r := NewRouter(engine)
	for _, registrar := range registrars {
		r.Register(registrar)
	}
	r.Setup()
	return engine
}
