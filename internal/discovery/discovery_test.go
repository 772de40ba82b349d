package discovery

import (
	"testing"
	"time"

	"github.com/beamteleport/beam/internal/peer"
)

func TestParseTXT(t *testing.T) {
	fields := parseTXT([]string{"version=1", "platform=mac", "deviceID=abc-123", "name=My Mac"})
	if fields["version"] != "1" || fields["platform"] != "mac" || fields["deviceID"] != "abc-123" || fields["name"] != "My Mac" {
		t.Fatalf("parseTXT = %+v", fields)
	}
}

func TestParseTXTIgnoresMalformed(t *testing.T) {
	fields := parseTXT([]string{"novalue", "key=value"})
	if _, ok := fields["novalue"]; ok {
		t.Fatal("expected malformed record without '=' to be dropped")
	}
	if fields["key"] != "value" {
		t.Fatalf("fields = %+v", fields)
	}
}

func TestEvictIdleRemovesStalePeers(t *testing.T) {
	d := New("self-id", "self", "mac", 0)
	now := time.Now()

	fresh := &peer.Peer{ID: "fresh"}
	fresh.Touch(now, 1234)
	stale := &peer.Peer{ID: "stale"}
	stale.Touch(now.Add(-time.Hour), 1234)

	d.peers["fresh"] = fresh
	d.peers["stale"] = stale

	d.evictIdle(now)

	peers := d.Peers()
	if len(peers) != 1 || peers[0].ID != "fresh" {
		t.Fatalf("expected only the fresh peer to survive, got %+v", peers)
	}
}

func TestPeersSortedByName(t *testing.T) {
	d := New("self-id", "self", "mac", 0)
	now := time.Now()
	for _, name := range []string{"Zelda", "Annie", "Mira"} {
		p := &peer.Peer{ID: name, Name: name}
		p.Touch(now, 1)
		d.peers[name] = p
	}

	peers := d.Peers()
	if len(peers) != 3 || peers[0].Name != "Annie" || peers[1].Name != "Mira" || peers[2].Name != "Zelda" {
		t.Fatalf("expected sorted-by-name order, got %+v", peers)
	}
}
