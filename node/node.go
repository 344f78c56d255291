// Package node assembles a runnable supdem server from its configuration:
// the market, the client listener, and the optional Prometheus endpoint.
package node

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/netutil"

	"github.com/supdem/supdem/config"
	"github.com/supdem/supdem/internal/market"
	"github.com/supdem/supdem/internal/server"
	"github.com/supdem/supdem/libs/log"
	"github.com/supdem/supdem/libs/service"
)

const prometheusShutdownTimeout = 5 * time.Second

// Node is the top-level supdem service.
type Node struct {
	*service.BaseService
	logger log.Logger

	config *config.Config
	market *market.Market
	server *server.Server

	prometheusSrv *http.Server
	prometheusLn  net.Listener
}

// NewNode builds a node from conf. Metrics are collected through
// metricsProvider; pass NopMetricsProvider() to disable them.
func NewNode(conf *config.Config, logger log.Logger, metricsProvider MetricsProvider) (*Node, error) {
	if err := conf.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	marketMetrics, notifyMetrics, serverMetrics := metricsProvider()

	m := market.NewMarket(conf.Market, logger.With("module", "market"),
		market.WithMetrics(marketMetrics),
		market.WithNotifyMetrics(notifyMetrics),
	)
	srv := server.NewServer(conf.Server, m, logger.With("module", "server"),
		server.WithMetrics(serverMetrics),
	)

	n := &Node{
		logger: logger,
		config: conf,
		market: m,
		server: srv,
	}
	n.BaseService = service.NewBaseService(logger, "Node", n)
	return n, nil
}

// DefaultNewNode builds a node whose metrics follow conf.Instrumentation.
func DefaultNewNode(conf *config.Config, logger log.Logger) (*Node, error) {
	return NewNode(conf, logger, DefaultMetricsProvider(conf.Instrumentation))
}

// OnStart starts the Prometheus endpoint, if enabled, then the listener.
func (n *Node) OnStart(ctx context.Context) error {
	if n.config.Instrumentation.Prometheus && n.config.Instrumentation.PrometheusListenAddr != "" {
		if err := n.startPrometheusServer(); err != nil {
			return err
		}
	}

	if err := n.server.Start(ctx); err != nil {
		n.stopPrometheusServer()
		return fmt.Errorf("failed to start server: %w", err)
	}

	n.logger.Info("market open",
		"width", n.config.Market.Width,
		"height", n.config.Market.Height,
		"addr", n.server.Addr().String())
	return nil
}

// OnStop ends every session, then shuts the Prometheus endpoint down.
func (n *Node) OnStop() {
	if err := n.server.Stop(); err != nil && !errors.Is(err, service.ErrAlreadyStopped) {
		n.logger.Error("error stopping server", "err", err)
	}
	n.server.Wait()
	n.stopPrometheusServer()

	stats := n.market.Stats()
	n.logger.Info("market closed",
		"clients", stats.Clients,
		"supplies", stats.Supplies,
		"demands", stats.Demands,
		"watches", stats.Watches)
}

// Market returns the node's market.
func (n *Node) Market() *market.Market { return n.market }

// Server returns the node's client listener.
func (n *Node) Server() *server.Server { return n.server }

// PrometheusAddr returns the address of the metrics endpoint, or nil when it
// is not running.
func (n *Node) PrometheusAddr() net.Addr {
	if n.prometheusLn == nil {
		return nil
	}
	return n.prometheusLn.Addr()
}

// startPrometheusServer serves /metrics from the default registry, which is
// where the go-kit collectors register themselves.
func (n *Node) startPrometheusServer() error {
	cfg := n.config.Instrumentation

	ln, err := net.Listen("tcp", cfg.PrometheusListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen for prometheus on %s: %w", cfg.PrometheusListenAddr, err)
	}
	if cfg.MaxOpenConnections > 0 {
		ln = netutil.LimitListener(ln, cfg.MaxOpenConnections)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer, promhttp.HandlerFor(
			prometheus.DefaultGatherer,
			promhttp.HandlerOpts{MaxRequestsInFlight: cfg.MaxOpenConnections},
		),
	))
	n.prometheusSrv = &http.Server{Handler: mux}
	n.prometheusLn = ln

	go func() {
		if err := n.prometheusSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			n.logger.Error("prometheus HTTP server Serve", "err", err)
		}
	}()
	n.logger.Info("serving metrics", "addr", ln.Addr().String())
	return nil
}

func (n *Node) stopPrometheusServer() {
	if n.prometheusSrv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), prometheusShutdownTimeout)
	defer cancel()
	if err := n.prometheusSrv.Shutdown(ctx); err != nil {
		n.logger.Error("prometheus HTTP server Shutdown", "err", err)
	}
}
