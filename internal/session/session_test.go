package session

import (
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/beamteleport/beam/internal/config"
	"github.com/beamteleport/beam/internal/control"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func socketPair(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	clientCh := make(chan net.Conn, 1)
	go func() {
		conn, err := net.Dial("tcp", ln.Addr().String())
		if err != nil {
			t.Errorf("dial: %v", err)
			return
		}
		clientCh <- conn
	}()

	serverConn, err := ln.Accept()
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	return serverConn, <-clientCh
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateIdle:       "idle",
		StateConnecting: "connecting",
		StateActive:     "active",
		StateStopping:   "stopping",
		StateStopped:    "stopped",
		State(99):       "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}

func TestOnceFlagTriggersOnlyOnce(t *testing.T) {
	var f onceFlag
	if !f.trigger() {
		t.Fatal("first trigger should report true")
	}
	if f.trigger() {
		t.Fatal("second trigger should report false")
	}
}

func TestStopFromIdleIsIdempotent(t *testing.T) {
	s := newSession("test-device", config.Default(), testLogger())
	s.Stop()
	if got := s.State(); got != StateStopped {
		t.Fatalf("State() after Stop from idle = %s, want stopped", got)
	}
	// A second Stop must not panic or re-enter teardown.
	s.Stop()
}

// TestReceiverTearsDownOnDisconnect exercises the receiver's wiring against
// a real socket pair: closing the peer's end must drive the session to
// stopped without ever building a media pipeline (no beam_offer sent).
func TestReceiverTearsDownOnDisconnect(t *testing.T) {
	serverConn, clientConn := socketPair(t)
	defer clientConn.Close()

	cfg := config.Default()
	cfg.DeviceID = "receiver-under-test"

	ch := make(chan State, 8)
	s := NewReceiver(cfg, testLogger(), control.Adopt(serverConn))
	s.OnStateChange(func(st State) { ch <- st })
	s.Serve()

	clientConn.Close()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case st := <-ch:
			if st == StateStopped {
				return
			}
		case <-deadline:
			t.Fatal("session never reached stopped after peer disconnect")
		}
	}
}

// TestActiveSessionTearsDownOnDisconnect exercises the teardown path the
// idle-state test above can't reach: a peer disconnect while the session
// is active drives control.Channel.terminate() from inside the channel's
// own readLoop goroutine, which synchronously invokes the
// OnStateChange(StateDisconnected) closure registered by NewReceiver —
// so Stop() runs reentrantly on that same goroutine instead of the test
// goroutine. Stop must still reach stopped without deadlocking on its own
// channel teardown.
func TestActiveSessionTearsDownOnDisconnect(t *testing.T) {
	serverConn, clientConn := socketPair(t)
	defer clientConn.Close()

	cfg := config.Default()
	cfg.DeviceID = "receiver-under-test"

	ch := make(chan State, 8)
	s := NewReceiver(cfg, testLogger(), control.Adopt(serverConn))
	s.OnStateChange(func(st State) { ch <- st })
	s.Serve()

	// Move straight to active without building the real media pipeline:
	// buildReceiverPipeline needs a live capture/display target, which
	// this test isn't exercising. The point here is Stop()'s teardown
	// ordering past the StateIdle early-return, not pipeline setup.
	s.mu.Lock()
	s.state = StateActive
	s.mu.Unlock()

	clientConn.Close()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case st := <-ch:
			if st == StateStopped {
				return
			}
		case <-deadline:
			t.Fatal("active session never reached stopped after peer disconnect (teardown deadlock)")
		}
	}
}
