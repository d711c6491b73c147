package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"

	appcart "github.com/abarrotes/storefront/internal/application/cart"
	appcatalog "github.com/abarrotes/storefront/internal/application/catalog"
	"github.com/abarrotes/storefront/internal/application/checkout"
	apphistory "github.com/abarrotes/storefront/internal/application/history"
	appidentity "github.com/abarrotes/storefront/internal/application/identity"
	"github.com/abarrotes/storefront/internal/domain/shared"
	"github.com/abarrotes/storefront/internal/infrastructure/api"
	"github.com/abarrotes/storefront/internal/infrastructure/config"
	"github.com/abarrotes/storefront/internal/infrastructure/persistence"
	"github.com/abarrotes/storefront/internal/infrastructure/telemetry"
)

// environment is what a command run needs from the outside world. Tests
// fill cfg, log and store up front; otherwise they come from flags and the
// config file.
type environment struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	verbose    bool
	langFlag   string

	cfg  *config.Config
	log  *zap.Logger
	lang language.Tag

	// store overrides cfg.Storage when set
	store shared.KeyValueStore

	app *app
}

// app holds the wired services for one run
type app struct {
	env *environment

	store    shared.KeyValueStore
	log      *zap.Logger // env.log, bridged to OTLP when logs export is on
	tracer   *telemetry.TracerProvider
	logs     *telemetry.LoggerProvider
	meter    *telemetry.MeterProvider
	metrics  *telemetry.StorefrontMetrics
	client   *api.Client
	sessions *appidentity.SessionService
	catalog  *appcatalog.Service
	cart     *appcart.Reconciler
	checkout *checkout.Service
	history  *apphistory.Service
}

func newApp(ctx context.Context, env *environment) (*app, error) {
	cfg := env.cfg
	a := &app{env: env}

	var err error
	a.tracer, err = telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		Exporter:          cfg.Telemetry.Exporter,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		StdoutWriter:      env.stderr,
	}, env.log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.logs, err = telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, env.log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize log export: %w", err)
	}
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	a.log = a.logs.Bridge(env.log, level)
	a.meter, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, env.log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	a.metrics, err = telemetry.NewStorefrontMetrics(a.meter.Meter("storefront"))
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	a.store = env.store
	if a.store == nil {
		a.store, err = persistence.Open(cfg, a.log)
		if err != nil {
			return nil, fmt.Errorf("failed to open local storage: %w", err)
		}
	}

	a.client = api.NewClient(apiConfig(cfg.API), api.WithMetrics(a.metrics))
	a.sessions = appidentity.NewSessionService(a.client, a.store)
	a.catalog = appcatalog.NewService(a.client, a.sessions, appcatalog.Config{
		MinSearchLength: cfg.Catalog.MinSearchLength,
		MaxStockPages:   cfg.Catalog.MaxStockPages,
	})
	a.cart = appcart.NewReconciler(a.client, a.sessions, a.catalog, a.store, appcart.WithMetrics(a.metrics))
	a.catalog.SetReservations(a.cart)
	a.checkout = checkout.NewService(a.client, a.sessions, a.cart, a.catalog, a.metrics)
	a.history = apphistory.NewService(a.client, a.sessions, cfg.History.PageSize)

	if err := a.cart.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to restore cart: %w", err)
	}
	return a, nil
}

// close flushes telemetry and releases local storage. A store supplied by
// the environment stays open.
func (a *app) close(ctx context.Context) {
	if err := a.meter.Shutdown(ctx); err != nil {
		a.env.log.Warn("Meter provider shutdown failed", zap.Error(err))
	}
	if err := a.tracer.Shutdown(ctx); err != nil {
		a.env.log.Warn("Tracer provider shutdown failed", zap.Error(err))
	}
	if a.env.store == nil {
		if err := a.store.Close(); err != nil {
			a.env.log.Warn("Local storage close failed", zap.Error(err))
		}
	}
	if err := a.logs.Shutdown(ctx); err != nil {
		a.env.log.Warn("Logger provider shutdown failed", zap.Error(err))
	}
}

func apiConfig(c config.APIConfig) api.Config {
	return api.Config{
		UsersURL:         c.UsersURL,
		ProductsURL:      c.ProductsURL,
		ProductsAdminURL: c.ProductsAdminURL,
		CartURL:          c.CartURL,
		HistoryURL:       c.HistoryURL,
		ProductsAuth:     api.AuthStyle(c.ProductsAuth),
		CartAuth:         api.AuthStyle(c.CartAuth),
		HistoryAuth:      api.AuthStyle(c.HistoryAuth),
		Timeout:          c.Timeout,
		UserAgent:        c.UserAgent,
		MaxResponseSize:  c.MaxResponseSize,
		RateLimit:        c.RateLimit,
		RateBurst:        c.RateBurst,
	}
}
