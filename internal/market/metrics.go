package market

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this
	// package.
	MetricsSubsystem = "market"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Number of connected clients.
	Clients metrics.Gauge
	// Number of active supplies.
	Supplies metrics.Gauge
	// Number of outstanding demands.
	Demands metrics.Gauge
	// Number of active watches.
	Watches metrics.Gauge

	// Number of demands settled against a supply.
	Matches metrics.Counter
	// Number of supplies removed because nothing was left of them.
	DepletedSupplies metrics.Counter
	// Number of supply-appeared notifications sent to watchers.
	WatchNotifications metrics.Counter
	// Number of inserts dropped because a table was full, labeled by table.
	RejectedInserts metrics.Counter
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
		Clients: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "clients",
			Help:      "Number of connected clients.",
		}, labels).With(labelsAndValues...),
		Supplies: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "supplies",
			Help:      "Number of active supplies.",
		}, labels).With(labelsAndValues...),
		Demands: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "demands",
			Help:      "Number of outstanding demands.",
		}, labels).With(labelsAndValues...),
		Watches: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "watches",
			Help:      "Number of active watches.",
		}, labels).With(labelsAndValues...),
		Matches: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "matches_total",
			Help:      "Number of demands settled against a supply.",
		}, labels).With(labelsAndValues...),
		DepletedSupplies: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "depleted_supplies_total",
			Help:      "Number of supplies removed because nothing was left of them.",
		}, labels).With(labelsAndValues...),
		WatchNotifications: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "watch_notifications_total",
			Help:      "Number of supply-appeared notifications sent to watchers.",
		}, labels).With(labelsAndValues...),
		RejectedInserts: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "rejected_inserts_total",
			Help:      "Number of inserts dropped because a table was full.",
		}, append(labels, "table")).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		Clients:            discard.NewGauge(),
		Supplies:           discard.NewGauge(),
		Demands:            discard.NewGauge(),
		Watches:            discard.NewGauge(),
		Matches:            discard.NewCounter(),
		DepletedSupplies:   discard.NewCounter(),
		WatchNotifications: discard.NewCounter(),
		RejectedInserts:    discard.NewCounter(),
	}
}
