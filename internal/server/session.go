package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/supdem/supdem/internal/market"
	"github.com/supdem/supdem/internal/notify"
	"github.com/supdem/supdem/libs/log"
)

// errQuit ends a session after the client sent quit.
var errQuit = errors.New("client quit")

// A session serves one client connection. A registered session runs two
// tasks: the command task reads request lines and writes replies, the
// notification task drains the client's queue. Both write through out.
type session struct {
	id      string
	conn    net.Conn
	out     *connWriter
	market  *market.Market
	logger  log.Logger
	metrics *Metrics
}

func newSession(conn net.Conn, m *market.Market, logger log.Logger, metrics *Metrics) *session {
	id := uuid.NewString()
	return &session{
		id:      id,
		conn:    conn,
		out:     newConnWriter(conn),
		market:  m,
		logger:  logger.With("session", id, "remote", conn.RemoteAddr().String()),
		metrics: metrics,
	}
}

// run serves the connection until the client quits or disconnects, or ctx is
// done. The client's market entries are released only after both tasks have
// returned; the connection is closed last.
func (s *session) run(ctx context.Context) {
	defer s.conn.Close()

	h, q, err := s.market.Register(s.conn.RemoteAddr().String())
	if err != nil {
		s.logger.Info("client registry is full; serving inert session", "err", err)
		s.runInert(ctx)
		return
	}
	s.logger = s.logger.With("client", h)
	s.logger.Info("client connected")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.readCommands(h)
	})
	g.Go(func() error {
		return q.Drain(gctx, s.out.WriteString)
	})
	g.Go(func() error {
		// unblock the command task once the session is going down
		<-gctx.Done()
		return s.conn.SetReadDeadline(time.Unix(1, 0))
	})
	err = g.Wait()

	if rerr := s.market.Release(h); rerr != nil {
		s.logger.Error("failed to release client", "err", rerr)
	}

	switch {
	case err == nil, errors.Is(err, errQuit), errors.Is(err, io.EOF),
		errors.Is(err, context.Canceled), errors.Is(err, notify.ErrQueueClosed):
		s.logger.Info("client disconnected")
	default:
		s.logger.Info("client disconnected", "err", err)
	}
}

// readCommands is the command task. It always returns a non-nil error so that
// the notification task is stopped with it.
func (s *session) readCommands(h market.Handle) error {
	scanner := bufio.NewScanner(s.conn)
	for scanner.Scan() {
		if err := s.handleLine(h, scanner.Text()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return io.EOF
}

func (s *session) handleLine(h market.Handle, line string) error {
	cmd, err := ParseCommand(line)
	if err != nil {
		s.metrics.InvalidCommands.Add(1)
		s.logger.Debug("invalid command", "line", line, "err", err)
		return s.out.WriteString(replyInvalidCommand)
	}
	s.metrics.Commands.With("command", cmd.Name).Add(1)

	if err := s.execute(h, cmd); err != nil {
		return err
	}
	if cmd.Name == CmdQuit {
		return errQuit
	}
	return nil
}

// execute applies cmd and writes the reply. Only write errors are returned.
func (s *session) execute(h market.Handle, cmd Command) error {
	var err error
	switch cmd.Name {
	case CmdMove:
		err = s.market.Move(h, cmd.Args[0], cmd.Args[1])
	case CmdDemand:
		err = s.market.PostDemand(h, market.Bundle{A: cmd.Args[0], B: cmd.Args[1], C: cmd.Args[2]})
	case CmdSupply:
		err = s.market.PostSupply(h, cmd.Args[0], market.Bundle{A: cmd.Args[1], B: cmd.Args[2], C: cmd.Args[3]})
	case CmdWatch:
		err = s.market.Watch(h, cmd.Args[0])
	case CmdUnwatch:
		err = s.market.Unwatch(h)
	case CmdListSupplies:
		return writeSupplies(s.out, s.market.Supplies())
	case CmdListDemands:
		return writeDemands(s.out, s.market.Demands())
	case CmdMySupplies:
		return writeSupplies(s.out, s.market.SuppliesOf(h))
	case CmdMyDemands:
		return writeDemands(s.out, s.market.DemandsOf(h))
	case CmdQuit:
	}

	switch {
	case err == nil:
	case errors.Is(err, market.ErrTableFull):
		// the order is dropped but the client is still told OK
		s.logger.Info("order dropped", "command", cmd, "err", err)
	case errors.Is(err, market.ErrInvalidOrder):
		s.metrics.InvalidCommands.Add(1)
		return s.out.WriteString(replyInvalidCommand)
	default:
		s.logger.Error("command failed", "command", cmd, "err", err)
	}
	return s.out.WriteString(replyOK)
}

// runInert serves a connection that could not be registered. Nothing is
// applied to the market; every command is refused until the client quits.
func (s *session) runInert(ctx context.Context) {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.conn.SetReadDeadline(time.Unix(1, 0))
		case <-stop:
		}
	}()

	scanner := bufio.NewScanner(s.conn)
	for scanner.Scan() {
		cmd, err := ParseCommand(scanner.Text())
		switch {
		case err == nil && cmd.Name == CmdQuit:
			_ = s.out.WriteString(replyOK)
			return
		case err != nil:
			s.metrics.InvalidCommands.Add(1)
			err = s.out.WriteString(replyInvalidCommand)
		default:
			err = s.out.WriteString(replyServerFull)
		}
		if err != nil {
			return
		}
	}
}
