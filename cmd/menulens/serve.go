package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpDelivery "github.com/macrolens/menulens/internal/delivery/http"
)

const shutdownTimeout = 15 * time.Second

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MenuLens HTTP API",
	Long: `Start the MenuLens HTTP server.

Endpoints:
  - GET  /health               - liveness check
  - GET  /metrics              - Prometheus metrics
  - POST /api/v1/menus/extract - extract one restaurant's menu

Examples:
  menulens serve                 # Port from config (default 8080)
  menulens serve --port 3000     # Override the port`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		if servePort != "" {
			cfg.Server.Port = servePort
		}

		p, err := buildPipeline(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer p.Close()

		handler := httpDelivery.NewHandler(p.orchestrator, logger)
		metricsHandler := promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
		router := httpDelivery.SetupRouter(cfg, handler, metricsHandler, logger)

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("server listening",
				zap.String("addr", srv.Addr),
				zap.String("environment", cfg.Server.Environment),
				zap.String("version", version))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "port to listen on (overrides server.port)")

	rootCmd.AddCommand(serveCmd)
}
