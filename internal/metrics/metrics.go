// Package metrics records Prometheus metrics for backend requests, tool
// calls and resource reads, and optionally serves them over HTTP.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const namespace = "dataops_mcp"

// Tool and resource outcomes
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Recorder owns a private registry and the server's collectors
type Recorder struct {
	registry *prometheus.Registry

	backendRequests *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	toolCalls       *prometheus.CounterVec
	toolDuration    *prometheus.HistogramVec
	resourceReads   *prometheus.CounterVec
}

// NewRecorder creates a recorder with all collectors registered
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Backend API requests by outcome.",
		}, []string{"outcome"}),
		backendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Backend API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "MCP tool calls by tool and outcome.",
		}, []string{"tool", "outcome"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "MCP tool call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
		resourceReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resource_reads_total",
			Help:      "MCP resource reads by resource and outcome.",
		}, []string{"resource", "outcome"}),
	}

	r.registry.MustRegister(
		r.backendRequests,
		r.backendDuration,
		r.toolCalls,
		r.toolDuration,
		r.resourceReads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveRequest implements client.Observer
func (r *Recorder) ObserveRequest(outcome string, d time.Duration) {
	r.backendRequests.WithLabelValues(outcome).Inc()
	r.backendDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveToolCall records one tool invocation
func (r *Recorder) ObserveToolCall(tool string, isError bool, d time.Duration) {
	r.toolCalls.WithLabelValues(tool, outcome(isError)).Inc()
	r.toolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// ObserveResourceRead records one resource read
func (r *Recorder) ObserveResourceRead(resource string, failed bool) {
	r.resourceReads.WithLabelValues(resource, outcome(failed)).Inc()
}

// Handler returns the /metrics HTTP handler
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Listen binds addr for the /metrics endpoint. Callers bind before serving
// so that a bad or busy address fails startup.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener on %q: %w", addr, err)
	}
	return ln, nil
}

// Serve serves /metrics on ln until ctx is canceled
func (r *Recorder) Serve(ctx context.Context, ln net.Listener, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", ln.Addr().String()).Msg("metrics listener started")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func outcome(failed bool) string {
	if failed {
		return OutcomeError
	}
	return OutcomeOK
}
