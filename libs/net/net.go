// Package net resolves the connection strings accepted on the command line.
//
// A connection string is either "@path", a filesystem-addressed unix socket,
// or "host:port" for TCP. The explicit "unix://" and "tcp://" forms are also
// understood.
package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	tmos "github.com/supdem/supdem/libs/os"
)

const (
	ProtocolTCP  = "tcp"
	ProtocolUnix = "unix"
)

// ProtocolAndAddress splits a connection string into the network and address
// understood by the net package.
func ProtocolAndAddress(conn string) (string, string) {
	if strings.HasPrefix(conn, "@") {
		return ProtocolUnix, conn[1:]
	}

	protocol, address := ProtocolTCP, conn
	parts := strings.SplitN(address, "://", 2)
	if len(parts) == 2 {
		protocol, address = parts[0], parts[1]
	}
	return protocol, address
}

// Validate reports whether conn can be listened on or dialed.
func Validate(conn string) error {
	protocol, address := ProtocolAndAddress(conn)
	if address == "" {
		return errors.New("empty address")
	}

	switch protocol {
	case ProtocolUnix:
		return nil
	case ProtocolTCP:
		if _, _, err := net.SplitHostPort(address); err != nil {
			return fmt.Errorf("invalid tcp address %q (expected host:port): %w", address, err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported protocol %q", protocol)
	}
}

// Listen opens a listener for conn. For unix sockets a stale socket file left
// by a previous run is removed first.
func Listen(conn string) (net.Listener, error) {
	if err := Validate(conn); err != nil {
		return nil, err
	}

	protocol, address := ProtocolAndAddress(conn)
	if protocol == ProtocolUnix {
		if err := tmos.RemoveStaleSocket(address); err != nil {
			return nil, err
		}
	}

	return net.Listen(protocol, address)
}

// Dial connects to conn.
func Dial(ctx context.Context, conn string) (net.Conn, error) {
	if err := Validate(conn); err != nil {
		return nil, err
	}

	protocol, address := ProtocolAndAddress(conn)
	var d net.Dialer
	return d.DialContext(ctx, protocol, address)
}

// ConnString renders a listener address back into connection-string form.
func ConnString(addr net.Addr) string {
	if addr.Network() == ProtocolUnix {
		return "@" + addr.String()
	}
	return addr.String()
}
