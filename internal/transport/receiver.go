package transport

import (
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/beamteleport/beam/internal/protocol"
)

// Receiver runs a dedicated, single-consumer receive loop over a UDP
// socket, reassembling fragmented NALs and delivering complete ones to a
// callback. Teardown follows §5's cancellation recipe: close the done
// channel (the running=false signal), close the socket to unblock the blocking ReadFromUDP call, then join the
// loop goroutine before returning from Stop.
type Receiver struct {
	conn *net.UDPConn
	name string

	reassembler *Reassembler

	onNAL func(NAL)

	stopOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewReceiver creates a Receiver reading from conn. onNAL is invoked from
// the receive goroutine for every fully reassembled NAL; it must not block.
func NewReceiver(conn *net.UDPConn, name string, onNAL func(NAL)) *Receiver {
	return &Receiver{
		conn:        conn,
		name:        name,
		reassembler: NewReassembler(),
		onNAL:       onNAL,
		done:        make(chan struct{}),
	}
}

// Start launches the receive loop on its own goroutine.
func (r *Receiver) Start() {
	r.wg.Add(1)
	go r.loop()
}

func (r *Receiver) loop() {
	defer r.wg.Done()

	buf := make([]byte, protocol.MaxDatagram+64)
	for {
		n, _, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-r.done:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			slog.Warn("transport: receive error", "stream", r.name, "error", err)
			continue
		}

		hdr, err := protocol.Decode(buf[:n])
		if err != nil {
			// Truncated header: drop silently per §4.3 step 1.
			continue
		}

		payload := buf[protocol.HeaderSize:n]
		if nal, ok := r.reassembler.Feed(hdr, payload); ok {
			r.onNAL(nal)
		}
	}
}

// Stop signals the loop to exit, closes the socket to unblock the
// in-flight read, and waits for the loop goroutine to finish before
// returning — callers may safely drop the Receiver's owning object
// immediately afterward.
func (r *Receiver) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		_ = r.conn.Close()
	})
	r.wg.Wait()
}
