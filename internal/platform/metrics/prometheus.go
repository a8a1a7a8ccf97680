package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsManager holds the service's Prometheus collectors.
type MetricsManager struct {
	Registry            *prometheus.Registry
	CommitsTotal        *prometheus.CounterVec // listing_type, outcome, step
	MediaUploadsTotal   *prometheus.CounterVec // kind
	MediaDeleteFailures prometheus.Counter
	HTTPLatency         *prometheus.HistogramVec // route, method, status
}

func NewMetricsManager(serviceName string) *MetricsManager {
	namespace := strings.ReplaceAll(serviceName, "-", "_")
	registry := prometheus.NewRegistry()

	commits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listing_commits_total",
		Help:      "Listing form commits by listing type, outcome and failed step.",
	}, []string{"listing_type", "outcome", "step"})
	uploads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "media_uploads_total",
		Help:      "Media objects uploaded to the blob store.",
	}, []string{"kind"})
	deleteFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "media_delete_failures_total",
		Help:      "Media deletions that failed and were only logged.",
	})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method", "status"})

	registry.MustRegister(
		commits,
		uploads,
		deleteFailures,
		latency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &MetricsManager{
		Registry:            registry,
		CommitsTotal:        commits,
		MediaUploadsTotal:   uploads,
		MediaDeleteFailures: deleteFailures,
		HTTPLatency:         latency,
	}
}

// MediaUploaded and MediaDeleteFailed satisfy usecase.MediaObserver.
func (m *MetricsManager) MediaUploaded(kind string) {
	m.MediaUploadsTotal.WithLabelValues(kind).Inc()
}

func (m *MetricsManager) MediaDeleteFailed() {
	m.MediaDeleteFailures.Inc()
}

// CommitFinished records one form submission. step is empty on success.
func (m *MetricsManager) CommitFinished(listingType, step string, err error) {
	outcome := "succeeded"
	if err != nil {
		outcome = "failed"
	}
	m.CommitsTotal.WithLabelValues(listingType, outcome, step).Inc()
}

// ObserveHTTP records one request against its route pattern.
func (m *MetricsManager) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	m.HTTPLatency.WithLabelValues(route, method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// StartMetricsServer blocks serving /metrics on port. An empty port disables it.
func StartMetricsServer(port string, log *logger.Logger, registry *prometheus.Registry) error {
	if port == "" {
		log.Info("Prometheus metrics port not configured, server will not start")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	log.Info("Prometheus metrics server starting", "port", port, "path", "/metrics")
	server := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}
	return server.ListenAndServe()
}
