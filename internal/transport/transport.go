// Package transport wraps net.Listener/net.Conn behind the narrow
// StreamAcceptor/ByteStream interfaces the rest of the server depends on.
// It sets address reuse and a 1-second accept deadline on the listener,
// and defines StreamDeadline, the 1-second send/recv deadline that the
// worker applies to each accepted connection, as in the original C
// server's setup_server_networking.
package transport

import (
	"context"
	"fmt"
	"net"
	"time"
)

// StreamDeadline is the per-operation read/write deadline applied to every
// accepted connection, matching the C original's SO_RCVTIMEO/SO_SNDTIMEO
// of one second.
const StreamDeadline = time.Second

// ByteStream is the minimal connection surface the worker depends on.
type ByteStream interface {
	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
	Close() error
	SetDeadline(t time.Time) error
}

// StreamAcceptor is the minimal listener surface the supervisor depends on.
type StreamAcceptor interface {
	Accept() (ByteStream, error)
	Close() error
	Addr() net.Addr
}

type tcpAcceptor struct {
	ln *net.TCPListener
}

// Listen opens a TCP listener on port with SO_REUSEADDR-equivalent
// behavior. backlog receives the cache capacity, the value the C original
// passes to listen(socket, cacheSize), but it is not used: Go's net
// package doesn't expose listen(2)'s backlog argument, so the listener
// uses the platform's default backlog whatever value is given.
func Listen(port, backlog int) (StreamAcceptor, error) {
	lc := net.ListenConfig{
		Control: controlReuseAddr,
	}
	ln, err := lc.Listen(context.Background(), "tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}
	_ = backlog
	return &tcpAcceptor{ln: ln.(*net.TCPListener)}, nil
}

// Accept blocks for at most StreamDeadline before returning a timeout
// error, so the supervisor's accept loop re-checks the shutdown latch
// roughly once a second even with no incoming connections -- matching
// the C original, where SO_RCVTIMEO on the listening socket itself makes
// accept() time out the same way.
func (a *tcpAcceptor) Accept() (ByteStream, error) {
	if err := a.ln.SetDeadline(time.Now().Add(StreamDeadline)); err != nil {
		return nil, err
	}
	conn, err := a.ln.Accept()
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (a *tcpAcceptor) Close() error { return a.ln.Close() }

func (a *tcpAcceptor) Addr() net.Addr { return a.ln.Addr() }
