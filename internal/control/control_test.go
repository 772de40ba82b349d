package control

import (
	"net"
	"testing"
	"time"
)

func loopbackPair(t *testing.T) (*Channel, *Channel) {
	t.Helper()
	ln, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	type result struct {
		ch  *Channel
		err error
	}
	acceptCh := make(chan result, 1)
	go func() {
		ch, err := ln.Accept()
		acceptCh <- result{ch, err}
	}()

	client, err := Connect(ln.Addr().String(), 2*time.Second)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	res := <-acceptCh
	if res.err != nil {
		t.Fatalf("Accept: %v", res.err)
	}

	client.Run()
	res.ch.Run()

	return client, res.ch
}

func TestSendReceiveRoundTrip(t *testing.T) {
	client, server := loopbackPair(t)
	defer client.Close()
	defer server.Close()

	received := make(chan Envelope, 1)
	server.OnMessage(func(env Envelope) { received <- env })

	client.Send("beam_offer", map[string]any{
		"senderName":  "Alice's Mac",
		"windowTitle": "Notes",
		"width":       640,
		"height":      480,
		"hasAudio":    true,
		"bundleID":    "com.apple.Notes",
	})

	select {
	case env := <-received:
		if env.Type != "beam_offer" {
			t.Fatalf("got type %q, want beam_offer", env.Type)
		}
		var payload struct {
			SenderName string `json:"senderName"`
			Width      int    `json:"width"`
		}
		if err := Decode(env, &payload); err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if payload.SenderName != "Alice's Mac" || payload.Width != 640 {
			t.Fatalf("decoded payload = %+v", payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestPingTriggersImmediatePong(t *testing.T) {
	client, server := loopbackPair(t)
	defer client.Close()
	defer server.Close()

	// The server sends the ping, so the client's pong arrives at the server.
	pongReceived := make(chan struct{}, 1)
	server.OnMessage(func(env Envelope) {
		if env.Type == "pong" {
			pongReceived <- struct{}{}
		}
	})

	server.writeRaw(mustMarshalType("ping"))

	select {
	case <-pongReceived:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a pong in response to a ping")
	}
}

func TestSendOnNonConnectedChannelIsDropped(t *testing.T) {
	ln, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	ch := Adopt(conn) // Connecting, Run() never called
	ch.Send("ping", map[string]any{})

	if ch.State() != StateConnecting {
		t.Fatalf("state = %v, want Connecting", ch.State())
	}
}

func TestRemoteHost(t *testing.T) {
	client, server := loopbackPair(t)
	defer client.Close()
	defer server.Close()

	if client.RemoteHost() != "127.0.0.1" {
		t.Fatalf("RemoteHost() = %q, want 127.0.0.1", client.RemoteHost())
	}
}

func TestMalformedFrameDropsConnection(t *testing.T) {
	client, server := loopbackPair(t)
	defer client.Close()
	defer server.Close()

	stateCh := make(chan State, 2)
	client.OnStateChange(func(s State) { stateCh <- s })

	// Write a frame with a declared length at the malformed cutoff directly
	// on the underlying connection.
	var lenBuf [4]byte
	lenBuf[0] = 0x00
	lenBuf[1] = 0x0F
	lenBuf[2] = 0x42
	lenBuf[3] = 0x40 // 0x000F4240 = 1,000,000
	server.conn.Write(lenBuf[:])

	select {
	case s := <-stateCh:
		if s != StateDisconnected {
			t.Fatalf("expected disconnected, got %v", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for disconnection after malformed frame")
	}
}
