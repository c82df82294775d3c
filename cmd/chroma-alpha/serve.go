package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/chroma-alpha/internal/api"
	"github.com/ironsheep/chroma-alpha/internal/config"
	"github.com/ironsheep/chroma-alpha/internal/logger"
	"github.com/ironsheep/chroma-alpha/internal/metrics"
)

// setupServer starts the webserver in the background. The returned channel
// receives the error if the server stops serving on its own.
func setupServer(ctx context.Context, cfg *config.Config) (func(ctx context.Context), <-chan error, error) {
	pipeline, err := newPipeline(cfg)
	if err != nil {
		return nil, nil, err
	}

	m, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, nil, err
	}

	server, err := api.NewServer(api.Deps{
		Processor: pipeline,
		Defaults:  defaultOptions(cfg),
		Metrics:   m,
		Gatherer:  prometheus.DefaultGatherer,
	}, api.NewOptions(cfg))
	if err != nil {
		return nil, nil, err
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info(ctx, "starting webserver...", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "could not start webserver", zap.Error(err))
				errc <- err
			}
		}
	}()

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping webserver...")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not stop webserver", zap.Error(err))
		}
	}, errc, nil
}

func serveCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts the HTTP server exposing POST /process-image",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			stopWebserver, errc, err := setupServer(ctx, a.cfg)
			if err != nil {
				return err
			}

			// wait for interrupt or a dead listener
			select {
			case err := <-errc:
				return fmt.Errorf("webserver stopped: %w", err)
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
			defer cancel()

			stopWebserver(shutdownCtx)
			return nil
		},
	}

	return cmd
}
