package fastsync

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	"github.com/tendermint/fastsync/config"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this package.
	MetricsSubsystem = "fastsync"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	RequestsSent      metrics.Counter
	ResponsesReceived metrics.Counter
	// Failures are labelled by "failure".
	Failures          metrics.Counter
	PeersDropped      metrics.Counter
	ReputationReports metrics.Counter
	ConnectedPeers    metrics.Gauge
	PendingRequests   metrics.Gauge
	SyncDuration      metrics.Gauge
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
// Optionally, labels can be provided along with their values ("foo",
// "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		RequestsSent: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "requests_sent",
			Help:      "The number of state requests sent to peers.",
		}, labels).With(labelsAndValues...),
		ResponsesReceived: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "responses_received",
			Help:      "The number of state responses that decoded successfully.",
		}, labels).With(labelsAndValues...),
		Failures: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "request_failures",
			Help:      "The number of failed state requests, by failure.",
		}, append(labels, "failure")).With(labelsAndValues...),
		PeersDropped: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "peers_dropped",
			Help:      "The number of peers dropped on request of the strategy.",
		}, labels).With(labelsAndValues...),
		ReputationReports: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "reputation_reports",
			Help:      "The number of reputation changes reported to the network.",
		}, labels).With(labelsAndValues...),
		ConnectedPeers: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "connected_peers",
			Help:      "The number of peers known to the engine.",
		}, labels).With(labelsAndValues...),
		PendingRequests: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "pending_requests",
			Help:      "The number of state requests awaiting a response.",
		}, labels).With(labelsAndValues...),
		SyncDuration: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "sync_duration_seconds",
			Help:      "Time from engine start until the state was handed to the import queue.",
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		RequestsSent:      discard.NewCounter(),
		ResponsesReceived: discard.NewCounter(),
		Failures:          discard.NewCounter(),
		PeersDropped:      discard.NewCounter(),
		ReputationReports: discard.NewCounter(),
		ConnectedPeers:    discard.NewGauge(),
		PendingRequests:   discard.NewGauge(),
		SyncDuration:      discard.NewGauge(),
	}
}

// NewMetrics returns Prometheus metrics under the configured namespace when
// instrumentation is enabled, and NopMetrics otherwise.
func NewMetrics(cfg *config.InstrumentationConfig) *Metrics {
	if cfg == nil || !cfg.Prometheus {
		return NopMetrics()
	}
	return PrometheusMetrics(cfg.Namespace)
}
