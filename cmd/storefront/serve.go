package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abarrotes/storefront/internal/domain/identity"
	"github.com/abarrotes/storefront/internal/interfaces/http/handler"
	"github.com/abarrotes/storefront/internal/interfaces/http/middleware"
	"github.com/abarrotes/storefront/internal/interfaces/http/router"
)

func newServeCommand(env *environment) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON view server",
		Long: `serve exposes the shop pages (catalog, cart, checkout, history, login and
registration) as JSON endpoints under /api/v1. The server shares the local
storage of the command line client.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := env.open(cmd)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = env.cfg.HTTP.Addr
			}
			return a.serve(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to http.addr)")
	return cmd
}

func (a *app) engine() *gin.Engine {
	if a.env.cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	cfg := router.EngineConfig{
		Logger: a.log,
		Tracing: middleware.TracingConfig{
			ServiceName: a.env.cfg.Telemetry.ServiceName,
			Enabled:     a.env.cfg.Telemetry.Enabled,
		},
		Sessions: a.sessions,
		OnSession: []middleware.SessionHook{
			func(ctx context.Context, session *identity.Session) {
				a.cart.Adopt(ctx, session.UserID)
			},
		},
	}
	if a.env.cfg.HTTP.MetricsEnabled {
		cfg.Metrics = middleware.NewHTTPMetrics("storefront")
	}
	return router.NewEngine(cfg,
		handler.NewAuthHandler(a.sessions),
		handler.NewCatalogHandler(a.catalog, a.cart),
		handler.NewCartHandler(a.cart, a.catalog),
		handler.NewCheckoutHandler(a.checkout),
		handler.NewHistoryHandler(a.history),
	)
}

// serve runs the view server until ctx is cancelled
func (a *app) serve(ctx context.Context, addr string) error {
	log := a.log
	srv := &http.Server{
		Addr:           addr,
		Handler:        a.engine(),
		ReadTimeout:    a.env.cfg.HTTP.ReadTimeout,
		WriteTimeout:   a.env.cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting view server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	fmt.Fprintf(a.env.stdout, "Serving on http://%s/api/v1\n", addr)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("view server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down view server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("view server forced to shutdown: %w", err)
	}
	log.Info("View server exited")
	return nil
}
