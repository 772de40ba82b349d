// Package peer defines the identity record produced by discovery (spec §3).
package peer

import "time"

// Peer is a device observed via discovery. Uniqueness is by ID; two
// advertisements sharing an ID are the same peer and only overwrite
// Name/Endpoint, never replace the record outright.
type Peer struct {
	ID       string // stable UUID string (deviceID)
	Name     string // human label
	Platform string // "mac", "android", ...
	Endpoint string // host:port of the peer's control channel listener

	// lastSeen and lastAdvertisedPort are internal bookkeeping (not part of
	// the spec's public Peer shape) that let discovery detect TXT churn and
	// age out peers without recreating the record, per SPEC_FULL.md §3.
	lastSeen           time.Time
	lastAdvertisedPort int
}

// LastSeen reports when this peer was last observed on the wire.
func (p *Peer) LastSeen() time.Time { return p.lastSeen }

// Touch refreshes the peer's last-seen time and returns whether the
// advertised port changed since the previous observation.
func (p *Peer) Touch(now time.Time, port int) (portChanged bool) {
	portChanged = p.lastAdvertisedPort != 0 && p.lastAdvertisedPort != port
	p.lastSeen = now
	p.lastAdvertisedPort = port
	return portChanged
}
