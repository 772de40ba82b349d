// Package transport implements the best-effort UDP fragmentation/reassembly
// layer shared by the video and audio pipelines (spec §4.2–§4.3).
//
// Grounded on fpv-sender/sender/sender.go's Packetizer/Sender split: a
// reusable packet buffer, a monotonic per-sender sequence counter, and a
// sendFn hook so the fragmentation loop stays decoupled from the socket.
package transport

import (
	"log/slog"
	"net"
	"sync/atomic"

	"github.com/beamteleport/beam/internal/protocol"
)

// NAL is a single encoded access unit handed to the sender: opaque bytes,
// a keyframe flag, and a 90kHz (video) or opaque-counter (audio) timestamp.
type NAL struct {
	Data       []byte
	IsKeyframe bool
	Timestamp  uint32
}

// Sender fragments NAL units per §4.2 and writes them to a UDP socket.
// Best-effort: Send never blocks the caller on network error, and a single
// datagram failure is logged once and dropped rather than propagated.
type Sender struct {
	conn     *net.UDPConn
	peerAddr *net.UDPAddr
	seq      uint32
	buf      []byte

	name string // for log context, e.g. "video" or "audio"
}

// NewSender creates a Sender writing to peerAddr over conn.
func NewSender(conn *net.UDPConn, peerAddr *net.UDPAddr, name string) *Sender {
	return &Sender{
		conn:     conn,
		peerAddr: peerAddr,
		buf:      make([]byte, protocol.MaxDatagram),
		name:     name,
	}
}

// SetPeerAddr updates the destination address (used once the control
// channel reports the peer's chosen ports).
func (s *Sender) SetPeerAddr(addr *net.UDPAddr) {
	s.peerAddr = addr
}

// nextSeq returns the next sequence number, wrapping at 65536.
func (s *Sender) nextSeq() uint16 {
	return uint16(atomic.AddUint32(&s.seq, 1) - 1)
}

// Send fragments n into one or more datagrams and writes each in
// fragment-index order (§4.2). Failure to write a single datagram is
// logged once and the loop continues to the next fragment — the encoder
// is never blocked by a slow or broken socket.
func (s *Sender) Send(n NAL) {
	maxPayload := protocol.MaxPayload
	fragCount := (len(n.Data) + maxPayload - 1) / maxPayload
	if fragCount == 0 {
		fragCount = 1
	}

	var flags uint8
	if n.IsKeyframe {
		flags |= protocol.FlagKeyframe
	}

	for i := 0; i < fragCount; i++ {
		start := i * maxPayload
		end := start + maxPayload
		if end > len(n.Data) {
			end = len(n.Data)
		}
		payload := n.Data[start:end]

		fragFlags := flags
		if i == 0 {
			fragFlags |= protocol.FlagStart
		}
		if i == fragCount-1 {
			fragFlags |= protocol.FlagEnd
		}

		hdr := protocol.Header{
			Sequence:  s.nextSeq(),
			Timestamp: n.Timestamp,
			Flags:     fragFlags,
			FragIndex: uint16(i),
			FragCount: uint16(fragCount),
		}

		total := protocol.HeaderSize + len(payload)
		if cap(s.buf) < total {
			s.buf = make([]byte, total)
		}
		buf := s.buf[:total]
		protocol.EncodeInto(buf, hdr)
		copy(buf[protocol.HeaderSize:], payload)

		if _, err := s.conn.WriteToUDP(buf, s.peerAddr); err != nil {
			slog.Warn("transport: datagram send failed, dropping", "stream", s.name, "error", err)
			continue
		}
	}
}
