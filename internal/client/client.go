// Package client drives a supdem server from the command line: either one
// interactive session on stdin, or any number of concurrent sessions each
// replaying the same script.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/supdem/supdem/libs/log"
	tmnet "github.com/supdem/supdem/libs/net"
	tmsync "github.com/supdem/supdem/libs/sync"
)

const prompt = "> "

// Config configures a client run.
type Config struct {
	// Server connection string, "@path" or "host:port".
	Conn string
	// Number of concurrent sessions in script mode.
	Clients int
	// Pause between two script lines.
	Delay time.Duration
	// How long to keep reading notifications after the last line was sent
	// when the script does not end with quit.
	Linger time.Duration
}

// DefaultConfig returns a single-client configuration with no delay.
func DefaultConfig() Config {
	return Config{
		Clients: 1,
		Linger:  time.Second,
	}
}

// ValidateBasic performs basic validation.
func (cfg Config) ValidateBasic() error {
	if err := tmnet.Validate(cfg.Conn); err != nil {
		return fmt.Errorf("invalid connection string %q: %w", cfg.Conn, err)
	}
	if cfg.Clients <= 0 {
		return fmt.Errorf("number of clients must be positive, got %d", cfg.Clients)
	}
	if cfg.Delay < 0 {
		return errors.New("delay can't be negative")
	}
	if cfg.Linger < 0 {
		return errors.New("linger can't be negative")
	}
	return nil
}

// ReadScript loads a script file, one command per line.
func ReadScript(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading script %s: %w", path, err)
	}
	return lines, nil
}

// RunScript opens cfg.Clients sessions and replays script on each of them
// concurrently. Everything the server sends is copied to out, one whole line
// at a time; with more than one client each line is prefixed with the
// client's number.
func RunScript(ctx context.Context, cfg Config, script []string, out io.Writer, logger log.Logger) error {
	if err := cfg.ValidateBasic(); err != nil {
		return err
	}
	out = newLockedWriter(out)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Clients; i++ {
		prefix := ""
		if cfg.Clients > 1 {
			prefix = fmt.Sprintf("client %d: ", i)
		}
		id := i
		g.Go(func() error {
			s, err := dial(ctx, cfg.Conn, out, prefix, logger.With("client", id))
			if err != nil {
				return fmt.Errorf("client %d: %w", id, err)
			}
			return s.replay(ctx, script, cfg.Delay, cfg.Linger)
		})
	}
	return g.Wait()
}

// RunInteractive opens one session and forwards the lines read from in until
// quit is sent, in is exhausted, or the server hangs up.
func RunInteractive(ctx context.Context, cfg Config, in io.Reader, out io.Writer, logger log.Logger) error {
	if err := cfg.ValidateBasic(); err != nil {
		return err
	}
	out = newLockedWriter(out)

	s, err := dial(ctx, cfg.Conn, out, "", logger)
	if err != nil {
		return err
	}
	defer s.conn.Close()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-s.done:
				return
			}
		}
	}()

	for {
		_, _ = io.WriteString(out, prompt)

		select {
		case line, ok := <-lines:
			if !ok {
				return s.finish(ctx, 0)
			}
			if err := s.send(line); err != nil {
				return err
			}
			if isQuit(line) {
				return s.finish(ctx, cfg.Linger)
			}
		case <-s.done:
			return s.recvErr
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// session is one connection. A receiver goroutine copies server output to out
// until the connection is closed by either side.
type session struct {
	conn   net.Conn
	out    io.Writer
	prefix string
	logger log.Logger

	done    chan struct{}
	recvErr error
}

func dial(ctx context.Context, addr string, out io.Writer, prefix string, logger log.Logger) (*session, error) {
	conn, err := tmnet.Dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	logger.Debug("connected", "addr", addr)

	s := &session{
		conn:   conn,
		out:    out,
		prefix: prefix,
		logger: logger,
		done:   make(chan struct{}),
	}
	go s.receive()
	return s, nil
}

func (s *session) receive() {
	defer close(s.done)

	scanner := bufio.NewScanner(s.conn)
	for scanner.Scan() {
		_, _ = io.WriteString(s.out, s.prefix+scanner.Text()+"\n")
	}

	err := scanner.Err()
	switch {
	case err == nil:
		_, _ = io.WriteString(s.out, s.prefix+"Server closed the connection\n")
	case errors.Is(err, net.ErrClosed):
	default:
		s.recvErr = err
	}
}

func (s *session) send(line string) error {
	_, err := io.WriteString(s.conn, line+"\n")
	return err
}

func (s *session) replay(ctx context.Context, script []string, delay, linger time.Duration) error {
	defer s.conn.Close()

	for _, line := range script {
		if err := s.send(line); err != nil {
			return err
		}
		if isQuit(line) {
			break
		}
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-s.done:
				return s.recvErr
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return s.finish(ctx, linger)
}

// finish waits up to linger for the server to hang up, then closes the
// connection and waits for the receiver.
func (s *session) finish(ctx context.Context, linger time.Duration) error {
	select {
	case <-s.done:
	case <-time.After(linger):
	case <-ctx.Done():
	}
	s.conn.Close()
	<-s.done
	return s.recvErr
}

func isQuit(line string) bool {
	return strings.TrimSpace(line) == "quit"
}

type lockedWriter struct {
	mtx tmsync.Mutex
	w   io.Writer
}

func newLockedWriter(w io.Writer) io.Writer {
	return &lockedWriter{w: w}
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mtx.Lock()
	defer lw.mtx.Unlock()
	return lw.w.Write(p)
}
