// Package server accepts client connections and runs one session per
// connection against a shared market.
package server

import (
	"context"
	"net"
	"sync"

	"golang.org/x/net/netutil"

	"github.com/supdem/supdem/config"
	"github.com/supdem/supdem/internal/market"
	"github.com/supdem/supdem/libs/log"
	tmnet "github.com/supdem/supdem/libs/net"
	"github.com/supdem/supdem/libs/service"
	tmsync "github.com/supdem/supdem/libs/sync"
)

// Server is the line-protocol listener.
type Server struct {
	*service.BaseService
	logger log.Logger

	cfg     *config.ServerConfig
	market  *market.Market
	metrics *Metrics

	listener net.Listener
	cancel   context.CancelFunc

	connsMtx tmsync.Mutex
	conns    map[string]net.Conn // by session id
	sessions sync.WaitGroup
	accepts  sync.WaitGroup
}

// Option sets an optional parameter on the Server.
type Option func(*Server)

// WithMetrics sets the metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(s *Server) { s.metrics = metrics }
}

// NewServer returns a server that serves m on cfg.ListenAddress once started.
func NewServer(cfg *config.ServerConfig, m *market.Market, logger log.Logger, options ...Option) *Server {
	s := &Server{
		logger:  logger,
		cfg:     cfg,
		market:  m,
		metrics: NopMetrics(),
		conns:   make(map[string]net.Conn),
	}
	s.BaseService = service.NewBaseService(logger, "Server", s)
	for _, option := range options {
		option(s)
	}
	return s
}

// OnStart binds the listener and starts accepting connections. A bind failure
// is returned to the caller.
func (s *Server) OnStart(ctx context.Context) error {
	ln, err := tmnet.Listen(s.cfg.ListenAddress)
	if err != nil {
		return err
	}
	if s.cfg.MaxOpenConnections > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxOpenConnections)
	}
	s.listener = ln

	ctx, s.cancel = context.WithCancel(ctx)

	s.logger.Info("listening", "addr", tmnet.ConnString(ln.Addr()))

	s.accepts.Add(1)
	go s.acceptRoutine(ctx)
	return nil
}

// OnStop closes the listener, ends every session and waits for their
// clients to be released.
func (s *Server) OnStop() {
	s.cancel()
	if err := s.listener.Close(); err != nil {
		s.logger.Error("error closing listener", "err", err)
	}
	s.accepts.Wait()

	s.connsMtx.Lock()
	for _, conn := range s.conns {
		// unblocks the session's reader; the session closes the conn itself
		_ = conn.Close()
	}
	s.connsMtx.Unlock()

	s.sessions.Wait()
}

// Addr returns the address the server is listening on. It is only valid
// after a successful Start.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *Server) acceptRoutine(ctx context.Context) {
	defer s.accepts.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || !s.IsRunning() {
				return // Ignore error from listener closing.
			}
			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				s.logger.Error("temporary error accepting connection", "err", err)
				continue
			}
			s.logger.Error("failed to accept connection", "err", err)
			return
		}

		sess := newSession(conn, s.market, s.logger, s.metrics)
		s.addConn(sess.id, conn)

		s.sessions.Add(1)
		go func() {
			defer s.sessions.Done()
			defer s.removeConn(sess.id)
			sess.run(ctx)
		}()
	}
}

func (s *Server) addConn(id string, conn net.Conn) {
	s.connsMtx.Lock()
	defer s.connsMtx.Unlock()

	s.conns[id] = conn
	s.metrics.Connections.Set(float64(len(s.conns)))
}

func (s *Server) removeConn(id string) {
	s.connsMtx.Lock()
	defer s.connsMtx.Unlock()

	delete(s.conns, id)
	s.metrics.Connections.Set(float64(len(s.conns)))
}
