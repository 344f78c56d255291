package node

import (
	"github.com/supdem/supdem/config"
	"github.com/supdem/supdem/internal/market"
	"github.com/supdem/supdem/internal/notify"
	"github.com/supdem/supdem/internal/server"
)

// MetricsProvider returns the market, notification queue and server metrics.
type MetricsProvider func() (*market.Metrics, *notify.Metrics, *server.Metrics)

// DefaultMetricsProvider returns Prometheus metrics if Prometheus is enabled,
// otherwise no-op metrics.
func DefaultMetricsProvider(cfg *config.InstrumentationConfig) MetricsProvider {
	return func() (*market.Metrics, *notify.Metrics, *server.Metrics) {
		if cfg.Prometheus {
			return market.PrometheusMetrics(cfg.Namespace),
				notify.PrometheusMetrics(cfg.Namespace),
				server.PrometheusMetrics(cfg.Namespace)
		}
		return NopMetricsProvider()()
	}
}

// NopMetricsProvider returns no-op metrics for every component.
func NopMetricsProvider() MetricsProvider {
	return func() (*market.Metrics, *notify.Metrics, *server.Metrics) {
		return market.NopMetrics(), notify.NopMetrics(), server.NopMetrics()
	}
}
