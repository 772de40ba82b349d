package control

import (
	"context"
	"log/slog"
	"net"
)

// Listener implements the ControlChannel's listener role (§4.8): it
// accepts inbound TCP connections on a fixed port, and the first one
// establishes the Channel — any subsequent incoming connection is
// cancelled (closed immediately without ceremony) since the channel is
// one-shot.
type Listener struct {
	ln  net.Listener
	log *slog.Logger
}

// Listen opens a TCP listener on addr (":0" for a system-chosen port),
// with SO_REUSEADDR set on the listening socket so a restarted `beam
// receive` doesn't have to wait out the previous socket's TIME_WAIT
// before rebinding the same port.
func Listen(addr string) (*Listener, error) {
	lc := net.ListenConfig{Control: setReuseAddr}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{ln: ln, log: slog.Default().With("component", "control")}, nil
}

// Addr returns the listener's bound address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Accept blocks for the first inbound connection, wraps it as a Channel in
// the Connecting state, and closes the listener so no further connections
// are accepted (first established wins, per §4.8).
func (l *Listener) Accept() (*Channel, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, err
	}
	_ = l.ln.Close()
	return Adopt(conn), nil
}

// Close stops accepting without having received a connection.
func (l *Listener) Close() error {
	return l.ln.Close()
}
