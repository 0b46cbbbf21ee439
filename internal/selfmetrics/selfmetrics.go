// Package selfmetrics exposes the agent's own operational metrics over
// Prometheus and a small HTTP surface for liveness checks, mirroring the
// teacher's internal/metrics package and HTTP wiring.
package selfmetrics

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry groups the self-observability counters/gauges the engine updates
// once per cycle.
type Registry struct {
	CycleDuration       prometheus.Histogram
	CollectorDuration    *prometheus.HistogramVec
	CollectorErrorsTotal *prometheus.CounterVec
	MetricBufferFill     prometheus.Gauge
	LogBufferFill        prometheus.Gauge
	SinkWritesTotal      *prometheus.CounterVec
	FlushSuccessTotal    prometheus.Counter
	FlushFailureTotal    prometheus.Counter
	DroppedEntriesTotal  *prometheus.CounterVec
}

// NewRegistry registers every self-metric against reg (internal/app and the
// tests pass a fresh prometheus.NewRegistry).
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rtcollector_cycle_duration_seconds",
			Help:    "Time spent running one cycle: the collect phase plus any flush.",
			Buckets: prometheus.DefBuckets,
		}),
		CollectorDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rtcollector_collector_duration_seconds",
			Help:    "Time spent inside a single collector invocation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"collector"}),
		CollectorErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rtcollector_collector_errors_total",
			Help: "Total collector invocations that returned an error or panicked.",
		}, []string{"collector"}),
		MetricBufferFill: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rtcollector_metric_buffer_fill",
			Help: "Current number of buffered metrics awaiting flush.",
		}),
		LogBufferFill: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rtcollector_log_buffer_fill",
			Help: "Current number of buffered log records awaiting flush.",
		}),
		SinkWritesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rtcollector_sink_writes_total",
			Help: "Total sink write attempts by sink and outcome.",
		}, []string{"sink", "outcome"}),
		FlushSuccessTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "rtcollector_flush_success_total",
			Help: "Total flush cycles where every sink succeeded.",
		}),
		FlushFailureTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "rtcollector_flush_failure_total",
			Help: "Total flush cycles where at least one sink failed.",
		}),
		DroppedEntriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rtcollector_dropped_entries_total",
			Help: "Total buffered entries dropped by the overflow policy.",
		}, []string{"kind"}),
	}
}

// Server serves /metrics and /healthz on addr.
type Server struct {
	httpServer *http.Server
}

// NewServer builds a Server. gatherer is the registry the self-metrics were
// registered against; internal/app passes its own prometheus.Registry.
func NewServer(addr string, gatherer prometheus.Gatherer) *Server {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &Server{httpServer: &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Run blocks serving HTTP until ctx is cancelled, then shuts down
// gracefully. Matches the oklog/run actor signature used in internal/app.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.httpServer.ListenAndServe() }()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// Close stops accepting connections immediately.
func (s *Server) Close() error {
	return s.httpServer.Close()
}
