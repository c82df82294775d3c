// Package api exposes the keying pipeline over HTTP, together with health,
// metrics and profiling endpoints.
package api

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ironsheep/chroma-alpha/internal/config"
	"github.com/ironsheep/chroma-alpha/internal/imaging"
	"github.com/ironsheep/chroma-alpha/internal/metrics"
)

// ProcessImagePath is the route of the keying endpoint.
const ProcessImagePath = "/process-image"

// Options holds configuration for the HTTP server.
// Zero durations fall back to the net/http defaults.
type Options struct {
	// Addr is the TCP address the server listens on, e.g. ":8080".
	Addr string
	// ReadTimeout is the maximum duration for reading the entire request, including the body.
	ReadTimeout time.Duration
	// ReadHeaderTimeout is the amount of time allowed to read request headers.
	ReadHeaderTimeout time.Duration
	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration
	// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled.
	IdleTimeout time.Duration
	// RequestTimeout bounds the handling of one request via http.TimeoutHandler; 0 disables it.
	RequestTimeout time.Duration
	// MaxHeaderBytes controls the maximum number of bytes the server
	// will read parsing the request header's keys and values, including the request line.
	MaxHeaderBytes int
	// MetricsPath is the HTTP path at which Prometheus metrics are served.
	MetricsPath string
	// MaxUploadBytes caps the request body of POST /process-image; 0 disables the cap.
	MaxUploadBytes int64
}

// NewOptions constructs an Options value from the provided application configuration.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Addr:              cfg.HTTP.Addr,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		RequestTimeout:    cfg.HTTP.RequestTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
		MetricsPath:       cfg.HTTP.MetricsPath,
		MaxUploadBytes:    cfg.HTTP.MaxUploadBytes,
	}
}

// Deps are the collaborators of the HTTP server.
type Deps struct {
	// Processor runs the keying pipeline.
	Processor Processor
	// Defaults fill in form fields a request omits.
	Defaults imaging.Options
	// Metrics records keying runs; nil disables recording.
	Metrics *metrics.Metrics
	// Gatherer backs the metrics endpoint; nil means prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// NewHandler builds the routed and wrapped handler of the server:
//   - POST /process-image keys an uploaded image
//   - GET /healthz reports liveness
//   - MetricsPath serves Prometheus metrics
//   - /debug/pprof/ serves profiles
//
// The mux is wrapped with CORS and logging middlewares and a request timeout.
func NewHandler(deps Deps, opts Options) (http.Handler, error) {
	if deps.Processor == nil {
		return nil, errors.New("api: nil processor")
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	metricsPath := opts.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	mux := http.NewServeMux()

	mux.Handle(metricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", healthz)
	mux.Handle(ProcessImagePath, &processHandler{
		processor: deps.Processor,
		metrics:   deps.Metrics,
		defaults:  deps.Defaults,
		maxUpload: opts.MaxUploadBytes,
	})
	mux.Handle("/debug/pprof/", pprofMux())

	handler := WithCORS(mux)
	handler = WithLogger(handler)

	if opts.RequestTimeout > 0 {
		handler = http.TimeoutHandler(handler, opts.RequestTimeout, "request timed out")
	}

	return handler, nil
}

// NewServer wires up and returns a configured *http.Server using the provided Options.
func NewServer(deps Deps, opts Options) (*http.Server, error) {
	handler, err := NewHandler(deps, opts)
	if err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
		MaxHeaderBytes:    opts.MaxHeaderBytes,
	}, nil
}
