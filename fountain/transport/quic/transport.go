package quic

import (
	"context"
	"errors"
	"net"
	"time"

	q "github.com/quic-go/quic-go"
)

// ErrNoDatagrams is returned when the peer did not negotiate
// QUIC datagram support.
var ErrNoDatagrams = errors.New("quic: peer does not support datagrams")

// Config returns the QUIC settings both ends use.
// Droplets travel as unreliable datagrams, so datagram support is required.
func Config() *q.Config {
	return &q.Config{
		EnableDatagrams: true,
		MaxIdleTimeout:  30 * time.Second,
		KeepAlivePeriod: 10 * time.Second,
	}
}

// Listener accepts datagram-capable QUIC connections.
type Listener struct {
	ln *q.Listener
}

func Listen(addr string) (*Listener, error) {
	tlsConf, err := NewServerTLSConfig()
	if err != nil {
		return nil, err
	}
	ln, err := q.ListenAddr(addr, tlsConf, Config())
	if err != nil {
		return nil, err
	}
	return &Listener{ln: ln}, nil
}

// Accept waits for the next connection.
// Connections without datagram support are closed and skipped.
func (l *Listener) Accept(ctx context.Context) (q.Connection, error) {
	for {
		conn, err := l.ln.Accept(ctx)
		if err != nil {
			return nil, err
		}
		if err := requireDatagrams(conn); err != nil {
			continue
		}
		return conn, nil
	}
}

func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

func (l *Listener) AddrString() string {
	if l.ln == nil {
		return ""
	}
	return l.ln.Addr().String()
}

func (l *Listener) Close() error { return l.ln.Close() }

func Dial(ctx context.Context, addr string) (q.Connection, error) {
	tlsConf, err := NewClientTLSConfig()
	if err != nil {
		return nil, err
	}
	conn, err := q.DialAddr(ctx, addr, tlsConf, Config())
	if err != nil {
		return nil, err
	}
	if err := requireDatagrams(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

func requireDatagrams(conn q.Connection) error {
	if conn.ConnectionState().SupportsDatagrams {
		return nil
	}
	_ = conn.CloseWithError(0, "datagrams required")
	return ErrNoDatagrams
}
