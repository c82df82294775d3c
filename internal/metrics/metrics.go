// Package metrics defines the Prometheus collectors shared by the HTTP and
// MCP surfaces.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ironsheep/chroma-alpha/internal/imaging"
)

// DefaultBuckets provides a common set of histogram buckets in seconds that can
// be reused across the application for latency metrics.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} //nolint: gochecknoglobals

// Surfaces that run the keying pipeline.
const (
	SurfaceHTTP = "http"
	SurfaceMCP  = "mcp"
	SurfaceCLI  = "cli"
)

// Request outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeClientError = "client_error"
	OutcomeTooLarge    = "too_large"
	OutcomeCanceled    = "canceled"
	OutcomeError       = "error"
)

// Metrics holds the keying collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests       *prometheus.CounterVec
	processSeconds prometheus.Histogram
	pixels         prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chroma_alpha_requests_total",
			Help: "Keying requests by surface and outcome.",
		}, []string{"surface", "outcome"}),
		processSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chroma_alpha_process_seconds",
			Help:    "Time spent keying one image, decode and encode included.",
			Buckets: DefaultBuckets,
		}),
		pixels: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chroma_alpha_pixels_total",
			Help: "Pixels keyed successfully.",
		}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.processSeconds, m.pixels} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("could not register collector: %w", err)
		}
	}

	return m, nil
}

// Outcome classifies the result of a keying run.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, imaging.ErrResourceExhaustion):
		return OutcomeTooLarge
	case imaging.IsClientError(err):
		return OutcomeClientError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeError
	}
}

// Observe records one keying run on surface. pixels is counted only on success.
func (m *Metrics) Observe(surface string, err error, elapsed time.Duration, pixels int) {
	if m == nil {
		return
	}

	m.requests.WithLabelValues(surface, Outcome(err)).Inc()
	m.processSeconds.Observe(elapsed.Seconds())
	if err == nil && pixels > 0 {
		m.pixels.Add(float64(pixels))
	}
}
