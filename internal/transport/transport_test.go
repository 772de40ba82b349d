package transport

import (
	"bytes"
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/beamteleport/beam/internal/protocol"
)

// fragmentNAL mimics Sender.Send's fragmentation without touching a socket,
// returning the raw datagrams so tests can feed them to a Reassembler in
// arbitrary order.
func fragmentNAL(n NAL) [][]byte {
	maxPayload := protocol.MaxPayload
	fragCount := (len(n.Data) + maxPayload - 1) / maxPayload
	if fragCount == 0 {
		fragCount = 1
	}
	var flags uint8
	if n.IsKeyframe {
		flags |= protocol.FlagKeyframe
	}

	var out [][]byte
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
			Sequence:  uint16(i),
			Timestamp: n.Timestamp,
			Flags:     fragFlags,
			FragIndex: uint16(i),
			FragCount: uint16(fragCount),
		}
		buf := make([]byte, protocol.HeaderSize+len(payload))
		protocol.EncodeInto(buf, hdr)
		copy(buf[protocol.HeaderSize:], payload)
		out = append(out, buf)
	}
	return out
}

func feedAll(t *testing.T, r *Reassembler, datagrams [][]byte) (NAL, bool) {
	t.Helper()
	var result NAL
	var got bool
	for _, dg := range datagrams {
		hdr, err := protocol.Decode(dg)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if nal, ok := r.Feed(hdr, dg[protocol.HeaderSize:]); ok {
			result, got = nal, true
		}
	}
	return result, got
}

func TestSinglePacketNAL(t *testing.T) {
	data := bytes.Repeat([]byte{0x42}, 100)
	n := NAL{Data: data, IsKeyframe: true, Timestamp: 1000}
	datagrams := fragmentNAL(n)
	if len(datagrams) != 1 {
		t.Fatalf("expected 1 datagram, got %d", len(datagrams))
	}
	hdr, err := protocol.Decode(datagrams[0])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if hdr.Flags != (protocol.FlagStart | protocol.FlagEnd | protocol.FlagKeyframe) {
		t.Fatalf("flags = %#x, want 0x07", hdr.Flags)
	}

	r := NewReassembler()
	got, ok := feedAll(t, r, datagrams)
	if !ok {
		t.Fatal("expected completion")
	}
	if !bytes.Equal(got.Data, data) || !got.IsKeyframe || got.Timestamp != 1000 {
		t.Fatalf("got %+v", got)
	}
}

func Test3000ByteNALFragmentation(t *testing.T) {
	data := make([]byte, 3000)
	for i := range data {
		data[i] = byte(i)
	}

	for _, keyframe := range []bool{true, false} {
		n := NAL{Data: data, IsKeyframe: keyframe, Timestamp: 42}
		datagrams := fragmentNAL(n)
		if len(datagrams) != 3 {
			t.Fatalf("expected 3 fragments, got %d", len(datagrams))
		}

		wantFlags := []uint8{protocol.FlagStart, 0, protocol.FlagEnd}
		if keyframe {
			for i := range wantFlags {
				wantFlags[i] |= protocol.FlagKeyframe
			}
		}
		for i, dg := range datagrams {
			hdr, err := protocol.Decode(dg)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if hdr.Flags != wantFlags[i] {
				t.Fatalf("fragment %d flags = %#x, want %#x", i, hdr.Flags, wantFlags[i])
			}
		}

		r := NewReassembler()
		got, ok := feedAll(t, r, datagrams)
		if !ok {
			t.Fatal("expected completion")
		}
		if !bytes.Equal(got.Data, data) {
			t.Fatal("reassembled data mismatch")
		}
	}
}

func TestOutOfOrderReassembly(t *testing.T) {
	data := make([]byte, 3000)
	rand.New(rand.NewSource(1)).Read(data)
	n := NAL{Data: data, IsKeyframe: false, Timestamp: 7}
	datagrams := fragmentNAL(n)

	inOrder := NewReassembler()
	wantNAL, ok := feedAll(t, inOrder, datagrams)
	if !ok {
		t.Fatal("in-order feed did not complete")
	}

	reordered := [][]byte{datagrams[2], datagrams[0], datagrams[1]}
	outOfOrder := NewReassembler()
	gotNAL, ok := feedAll(t, outOfOrder, reordered)
	if !ok {
		t.Fatal("out-of-order feed did not complete")
	}

	if !bytes.Equal(gotNAL.Data, wantNAL.Data) {
		t.Fatal("out-of-order reassembly produced different bytes")
	}
}

func TestDuplicateFragmentIdempotent(t *testing.T) {
	data := bytes.Repeat([]byte{0x1}, 3000)
	n := NAL{Data: data, Timestamp: 5}
	datagrams := fragmentNAL(n)

	r := NewReassembler()
	completions := 0
	feed := func(dg []byte) {
		hdr, _ := protocol.Decode(dg)
		if _, ok := r.Feed(hdr, dg[protocol.HeaderSize:]); ok {
			completions++
		}
	}
	feed(datagrams[0])
	feed(datagrams[0]) // duplicate before completion
	feed(datagrams[1])
	feed(datagrams[2])
	feed(datagrams[2]) // duplicate after completion: record gone, starts a new one

	if completions != 1 {
		t.Fatalf("expected exactly 1 completion from the genuine NAL, got %d", completions)
	}
}

func TestReassemblyGC(t *testing.T) {
	r := NewReassembler()
	// Start a record at ts=1000 with 2 expected fragments, only deliver 1.
	hdr := protocol.Header{Timestamp: 1000, Flags: protocol.FlagStart, FragIndex: 0, FragCount: 2}
	if _, ok := r.Feed(hdr, []byte{1}); ok {
		t.Fatal("should not complete with 1 of 2 fragments")
	}
	if r.PendingCount() != 1 {
		t.Fatalf("expected 1 pending record, got %d", r.PendingCount())
	}

	// A packet at exactly ts+90000 must NOT evict yet (not strictly greater
	// by more than the window).
	r.gc(1000 + ReassemblyGCWindow)
	if r.PendingCount() != 1 {
		t.Fatal("record evicted too early")
	}

	// A packet at ts+90001 evicts it.
	r.gc(1000 + ReassemblyGCWindow + 1)
	if r.PendingCount() != 0 {
		t.Fatal("record was not evicted past the GC window")
	}
}

func TestReassemblyGCNotEvictedForFutureTimestamp(t *testing.T) {
	r := NewReassembler()
	hdr := protocol.Header{Timestamp: 5000, Flags: protocol.FlagStart, FragIndex: 0, FragCount: 2}
	r.Feed(hdr, []byte{1})

	// A packet with an *older* timestamp than the pending record must not
	// evict it (record's ts is strictly greater than arrived).
	r.gc(4000)
	if r.PendingCount() != 1 {
		t.Fatal("future record was evicted by an older arrival")
	}
}

func TestSenderReceiverLoopback(t *testing.T) {
	recvConn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	sendConn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}

	received := make(chan NAL, 1)
	recv := NewReceiver(recvConn, "video", func(n NAL) { received <- n })
	recv.Start()
	defer recv.Stop()

	sender := NewSender(sendConn, recvConn.LocalAddr().(*net.UDPAddr), "video")
	data := bytes.Repeat([]byte{0x9}, 500)
	sender.Send(NAL{Data: data, IsKeyframe: true, Timestamp: 123})

	select {
	case nal := <-received:
		if !bytes.Equal(nal.Data, data) || !nal.IsKeyframe || nal.Timestamp != 123 {
			t.Fatalf("got %+v", nal)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for loopback NAL")
	}
}

func TestReceiverStopIsIdempotentAndImmediate(t *testing.T) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	recv := NewReceiver(conn, "video", func(NAL) {})
	recv.Start()
	recv.Stop()
	recv.Stop() // must not panic or block
}
