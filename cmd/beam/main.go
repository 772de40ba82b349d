// Command beam is the LAN-only teleportation/remote-control CLI (§1): it
// discovers peers over mDNS, and drives a beam as either the sending or
// the receiving half of a session.
//
// Grounded on breeze-agent/main.go's cobra bootstrap: a root command with
// persistent flags, one subcommand per top-level verb, each RunE loading
// config first and delegating the real work to an internal package.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/beamteleport/beam/internal/buildinfo"
	"github.com/beamteleport/beam/internal/config"
	"github.com/beamteleport/beam/internal/control"
	"github.com/beamteleport/beam/internal/cursorvis"
	"github.com/beamteleport/beam/internal/discovery"
	"github.com/beamteleport/beam/internal/logging"
	"github.com/beamteleport/beam/internal/peer"
	"github.com/beamteleport/beam/internal/session"
)

var rootCmd = &cobra.Command{
	Use:   "beam",
	Short: "Beam: LAN-only window teleportation and remote control",
	Long:  `Beam mirrors a single window to another device on the same LAN and relays input back to it.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Beam %s\n", buildinfo.Version)
		fmt.Printf("Commit: %s\n", buildinfo.Commit)
		fmt.Printf("Protocol: %s\n", buildinfo.ProtocolVersion)
	},
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List Beam peers visible on the LAN",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runDiscover(cfg)
	},
}

var receiveCmd = &cobra.Command{
	Use:   "receive",
	Short: "Advertise this device and accept one incoming beam",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runReceive(cfg)
	},
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Beam a window to a peer",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		peerArg, _ := cmd.Flags().GetString("peer")
		pid, _ := cmd.Flags().GetInt("pid")
		title, _ := cmd.Flags().GetString("title")
		bundleID, _ := cmd.Flags().GetString("bundle-id")
		if peerArg == "" {
			return fmt.Errorf("--peer is required (device ID or host:port)")
		}
		if pid == 0 && title == "" {
			return fmt.Errorf("--pid or --title is required to select a window")
		}
		return runSend(cfg, peerArg, session.Target{PID: pid, WindowTitle: title, BundleID: bundleID})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(receiveCmd)
	rootCmd.AddCommand(sendCmd)

	rootCmd.PersistentFlags().String("log-level", "", "override config log level (debug/info/warn/error)")
	rootCmd.PersistentFlags().String("log-format", "", "override config log format (text/json)")

	sendCmd.Flags().String("peer", "", "peer device ID (resolved via discovery) or host:port")
	sendCmd.Flags().Int("pid", 0, "target window's process ID")
	sendCmd.Flags().String("title", "", "target window title substring")
	sendCmd.Flags().String("bundle-id", "", "target application's bundle identifier (for the mute blacklist)")

	discoverCmd.Flags().Duration("timeout", 5*time.Second, "how long to listen for advertisements")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig builds the runtime config and applies any persistent flag
// overrides, then initializes the process-wide logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if level, _ := rootCmd.PersistentFlags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if format, _ := rootCmd.PersistentFlags().GetString("log-format"); format != "" {
		cfg.LogFormat = format
	}
	logging.Init(cfg.LogFormat, cfg.LogLevel, os.Stdout)

	return cfg, nil
}

func runDiscover(cfg *config.Config) error {
	timeout, _ := discoverCmd.Flags().GetDuration("timeout")

	d := discovery.New(cfg.DeviceID, cfg.DeviceName, cfg.Platform, cfg.ListenPort)
	if err := d.Start(); err != nil {
		return fmt.Errorf("discovery: %w", err)
	}
	defer d.Stop()

	fmt.Printf("Listening for peers for %s...\n", timeout)
	time.Sleep(timeout)

	peers := d.Peers()
	if len(peers) == 0 {
		fmt.Println("No peers found.")
		return nil
	}

	sort.Slice(peers, func(i, j int) bool { return peers[i].Name < peers[j].Name })
	for _, p := range peers {
		fmt.Printf("%-20s %-10s %-10s %s\n", p.Name, p.Platform, p.ID, p.Endpoint)
	}
	return nil
}

// runReceive implements §4.10's receiver path bootstrap: advertise this
// device, accept the first incoming control connection (first one wins,
// per control.Listener), then run the session until it stops or the
// process receives a termination signal.
func runReceive(cfg *config.Config) error {
	log := logging.L("cmd")

	ln, err := control.Listen(fmt.Sprintf(":%d", cfg.ListenPort))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	log.Info("listening for beams", "port", port)

	d := discovery.New(cfg.DeviceID, cfg.DeviceName, cfg.Platform, port)
	if err := d.Start(); err != nil {
		return fmt.Errorf("discovery: %w", err)
	}
	defer d.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	type acceptResult struct {
		ch  *control.Channel
		err error
	}
	accepted := make(chan acceptResult, 1)
	go func() {
		ch, err := ln.Accept()
		accepted <- acceptResult{ch, err}
	}()

	select {
	case <-ctx.Done():
		return nil
	case res := <-accepted:
		if res.err != nil {
			return fmt.Errorf("accept: %w", res.err)
		}
		log.Info("incoming beam connection", "remote", res.ch.RemoteHost())

		sess := session.NewReceiver(cfg, log, res.ch)
		done := make(chan struct{})
		sess.OnStateChange(func(st session.State) {
			log.Info("session state changed", "state", st.String())
			if st == session.StateStopped {
				close(done)
			}
		})
		sess.Serve()

		select {
		case <-ctx.Done():
			sess.Stop()
			<-done
		case <-done:
		}
		return nil
	}
}

// runSend implements §4.10's sender path bootstrap: resolve peerArg to an
// endpoint (via discovery if it names a device ID, directly if it's
// already host:port), dial, and run until the beam ends or the process
// receives a termination signal.
func runSend(cfg *config.Config, peerArg string, target session.Target) error {
	log := logging.L("cmd")

	endpoint, err := resolveEndpoint(cfg, peerArg)
	if err != nil {
		return err
	}

	checker, err := cursorvis.New()
	if err != nil {
		log.Warn("cursor visibility hook unavailable, skipping cursor poll", "error", err)
		checker = nil
	}

	sess := session.NewSender(cfg, log, checker)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	done := make(chan struct{})
	sess.OnStateChange(func(st session.State) {
		log.Info("session state changed", "state", st.String())
		if st == session.StateStopped {
			close(done)
		}
	})

	if err := sess.StartBeam(endpoint, target); err != nil {
		return fmt.Errorf("start beam: %w", err)
	}

	select {
	case <-ctx.Done():
		sess.Stop()
		<-done
	case <-done:
	}
	return nil
}

// resolveEndpoint accepts either a literal host:port or a device ID,
// browsing discovery briefly to resolve the latter.
func resolveEndpoint(cfg *config.Config, peerArg string) (string, error) {
	if _, _, err := splitHostPort(peerArg); err == nil {
		return peerArg, nil
	}

	d := discovery.New(cfg.DeviceID, cfg.DeviceName, cfg.Platform, cfg.ListenPort)
	if err := d.Start(); err != nil {
		return "", fmt.Errorf("discovery: %w", err)
	}
	defer d.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if p := findPeer(d.Peers(), peerArg); p != nil {
			return p.Endpoint, nil
		}
		time.Sleep(250 * time.Millisecond)
	}
	return "", fmt.Errorf("peer %q not found", peerArg)
}

func findPeer(peers []peer.Peer, id string) *peer.Peer {
	for i := range peers {
		if peers[i].ID == id {
			return &peers[i]
		}
	}
	return nil
}

func splitHostPort(s string) (host, port string, err error) {
	host, port, err = net.SplitHostPort(s)
	if err == nil {
		if _, convErr := strconv.Atoi(port); convErr != nil {
			return "", "", convErr
		}
	}
	return host, port, err
}
