// Package discovery advertises this device over DNS-SD/mDNS and browses for
// peers of the same service type (spec §4.9, §6.1). Structurally grounded on
// agent/internal/discovery/scanner.go: a mutex-guarded map of observed
// entries, classification/filtering before publishing, and age-based
// eviction. The wire mechanism itself is github.com/grandcat/zeroconf, the
// pack's reference DNS-SD library (other_examples/manifests/
// kstaniek-go-ampio-server/go.mod) — the teacher's own scanner targets ARP
// and TCP port scanning, an unrelated mechanism, so this dependency is
// adopted fresh rather than dropped.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/beamteleport/beam/internal/peer"
)

// ServiceType is the DNS-SD service type advertised and browsed (§6.1).
const ServiceType = "_beam._tcp"

// Domain is the DNS-SD domain used for advertise/browse.
const Domain = "local."

// IdleTimeout is how long a peer may go unobserved before it is evicted
// from the published list (§3: "destroyed when the observer goes idle").
const IdleTimeout = 30 * time.Second

// evictionSweep is how often the idle-eviction pass runs.
const evictionSweep = 10 * time.Second

// Discovery owns one outgoing advertisement and one ongoing browse,
// publishing a de-duplicated, self-filtered, name-sorted peer list.
type Discovery struct {
	deviceID string
	name     string
	platform string
	port     int

	server   *zeroconf.Server
	resolver *zeroconf.Resolver

	mu    sync.Mutex
	peers map[string]*peer.Peer

	cancelBrowse context.CancelFunc
	stopEvict    chan struct{}
	wg           sync.WaitGroup

	log *slog.Logger
}

// New creates a Discovery that will advertise deviceID/name/platform on
// port once Start is called.
func New(deviceID, name, platform string, port int) *Discovery {
	return &Discovery{
		deviceID: deviceID,
		name:     name,
		platform: platform,
		port:     port,
		peers:    make(map[string]*peer.Peer),
		log:      slog.Default().With("component", "discovery"),
	}
}

// Start begins advertising and browsing. It returns once the advertisement
// is registered; browsing and eviction continue on background goroutines
// until Stop is called.
func (d *Discovery) Start() error {
	txt := []string{
		"version=1",
		"platform=" + d.platform,
		"deviceID=" + d.deviceID,
		"name=" + d.name,
	}

	server, err := zeroconf.Register(d.name, ServiceType, Domain, d.port, txt, nil)
	if err != nil {
		return fmt.Errorf("discovery: advertise: %w", err)
	}
	d.server = server

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		server.Shutdown()
		return fmt.Errorf("discovery: resolver: %w", err)
	}
	d.resolver = resolver

	ctx, cancel := context.WithCancel(context.Background())
	d.cancelBrowse = cancel
	d.stopEvict = make(chan struct{})

	entries := make(chan *zeroconf.ServiceEntry, 16)
	d.wg.Add(3)
	go d.consumeEntries(entries)
	go func() {
		defer d.wg.Done()
		if err := resolver.Browse(ctx, ServiceType, Domain, entries); err != nil {
			d.log.Warn("browse failed", "error", err)
		}
	}()
	go d.evictLoop()

	return nil
}

// Stop withdraws the advertisement and stops browsing/eviction, waiting for
// the browse, entry-consumer and eviction goroutines to exit.
func (d *Discovery) Stop() {
	if d.cancelBrowse != nil {
		d.cancelBrowse()
	}
	if d.stopEvict != nil {
		close(d.stopEvict)
	}
	if d.server != nil {
		d.server.Shutdown()
	}
	d.wg.Wait()
}

func (d *Discovery) consumeEntries(entries <-chan *zeroconf.ServiceEntry) {
	defer d.wg.Done()
	for entry := range entries {
		d.handleEntry(entry)
	}
}

func (d *Discovery) handleEntry(entry *zeroconf.ServiceEntry) {
	fields := parseTXT(entry.Text)
	deviceID := fields["deviceID"]
	if deviceID == "" || deviceID == d.deviceID {
		return
	}

	host := entryHost(entry)
	if host == "" {
		return
	}
	endpoint := net.JoinHostPort(host, strconv.Itoa(entry.Port))

	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.peers[deviceID]
	if !ok {
		p = &peer.Peer{ID: deviceID}
		d.peers[deviceID] = p
	}
	p.Name = fields["name"]
	p.Platform = fields["platform"]
	p.Endpoint = endpoint
	p.Touch(time.Now(), entry.Port)
}

func (d *Discovery) evictLoop() {
	defer d.wg.Done()
	ticker := time.NewTicker(evictionSweep)
	defer ticker.Stop()
	for {
		select {
		case <-d.stopEvict:
			return
		case <-ticker.C:
			d.evictIdle(time.Now())
		}
	}
}

func (d *Discovery) evictIdle(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, p := range d.peers {
		if now.Sub(p.LastSeen()) > IdleTimeout {
			delete(d.peers, id)
		}
	}
}

// Peers returns a snapshot of currently known peers, sorted by Name for
// stability (§4.9).
func (d *Discovery) Peers() []peer.Peer {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]peer.Peer, 0, len(d.peers))
	for _, p := range d.peers {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func parseTXT(records []string) map[string]string {
	fields := make(map[string]string, len(records))
	for _, r := range records {
		k, v, ok := strings.Cut(r, "=")
		if !ok {
			continue
		}
		fields[k] = v
	}
	return fields
}

func entryHost(entry *zeroconf.ServiceEntry) string {
	if len(entry.AddrIPv4) > 0 {
		return entry.AddrIPv4[0].String()
	}
	if len(entry.AddrIPv6) > 0 {
		return entry.AddrIPv6[0].String()
	}
	return ""
}
