package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/chroma-alpha/internal/imaging"
	"github.com/ironsheep/chroma-alpha/internal/logger"
	"github.com/ironsheep/chroma-alpha/internal/metrics"
	"github.com/ironsheep/chroma-alpha/internal/server"
)

// serveMetrics exposes the default registry on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info(ctx, "starting metrics listener...", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "could not start metrics listener", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

func mcpCommand(a *app) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Runs the MCP server over stdin/stdout",
		Long: "Runs the MCP server over stdin/stdout. Configure it in your MCP client " +
			"(e.g., Claude Desktop). Logs are written to stderr.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pipeline, err := newPipeline(a.cfg)
			if err != nil {
				return err
			}

			var m *metrics.Metrics
			if metricsAddr != "" {
				if m, err = metrics.New(prometheus.DefaultRegisterer); err != nil {
					return err
				}
				serveMetrics(ctx, metricsAddr)
			}

			srv := server.New(server.Options{
				Pipeline: pipeline,
				Cache:    imaging.NewImageCache(a.cfg.Pipeline.MaxPixels),
				Metrics:  m,
				Defaults: defaultOptions(a.cfg),
				Version:  Version,
			})

			logger.Debug(ctx, "MCP server starting",
				zap.String("version", Version),
				zap.String("build_time", BuildTime),
				zap.String("git_commit", GitCommit),
			)

			// a blocked stdin read cannot observe ctx, so a signal ends the
			// command without waiting for it
			done := make(chan error, 1)
			go func() { done <- srv.Run(ctx) }()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				logger.Info(ctx, "MCP server stopping...")
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "",
		"Optional address (e.g. :9090) to expose Prometheus metrics on while serving MCP")

	return cmd
}
