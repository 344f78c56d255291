package server

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this
	// package.
	MetricsSubsystem = "server"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Number of open client connections.
	Connections metrics.Gauge
	// Number of commands executed, labeled by command.
	Commands metrics.Counter
	// Number of lines rejected as invalid commands.
	InvalidCommands metrics.Counter
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
		Connections: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "connections",
			Help:      "Number of open client connections.",
		}, labels).With(labelsAndValues...),
		Commands: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "commands_total",
			Help:      "Number of commands executed.",
		}, append(labels, "command")).With(labelsAndValues...),
		InvalidCommands: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "invalid_commands_total",
			Help:      "Number of lines rejected as invalid commands.",
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		Connections:     discard.NewGauge(),
		Commands:        discard.NewCounter(),
		InvalidCommands: discard.NewCounter(),
	}
}
