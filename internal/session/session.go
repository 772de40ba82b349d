// Package session implements §4.10's state machine: the sender path
// (idle → connecting → active → stopping → stopped) and the receiver path
// (idle → active → stopping → stopped), wiring the control channel to the
// video/audio pipelines, input capture/injection, and window hiding.
//
// Grounded directly on desktop/session.go / session_control.go /
// session_stream.go: the sync.Once-guarded startOnce/stopOnce/cleanupOnce
// triple, atomic.Bool flags for cross-goroutine signaling, the
// sync.WaitGroup drain-before-cleanup teardown order, and the doCleanup
// ordered-shutdown function are carried over in shape and reworked to run
// Beam's encoder/capturer/injector/hider set instead of a WebRTC peer
// connection.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/beamteleport/beam/internal/audio"
	"github.com/beamteleport/beam/internal/config"
	"github.com/beamteleport/beam/internal/control"
	"github.com/beamteleport/beam/internal/input"
	"github.com/beamteleport/beam/internal/protocol"
	"github.com/beamteleport/beam/internal/renderer"
	"github.com/beamteleport/beam/internal/transport"
	"github.com/beamteleport/beam/internal/video"
	"github.com/beamteleport/beam/internal/windowhider"
)

// State is the session's position in the §4.10 state machine.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateActive
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// connectTimeout bounds the sender's initial TCP dial (§4.8 implies a
// bounded connect; the teacher's ICE gather has an analogous timeout).
const connectTimeout = 10 * time.Second

// cursorPollInterval is the sender's local cursor-visibility poll rate
// (§4.10: "sender polls local cursor visibility at 3 Hz").
const cursorPollInterval = time.Second / 3

// Target names the sender-side window to beam: a process ID and an
// optional title substring, plus the bundle identifier used by the mute
// blacklist (§4.7.1) and reported in beam_offer.
type Target struct {
	PID         int
	WindowTitle string
	BundleID    string
}

// CursorVisibility is the sender-side hook for §4.10's cursor poll: it
// reports whether the local cursor is currently visible and, when asked,
// reverses any global cursor-hide the target app may have performed so
// the sender's own cursor stays visible between polls.
type CursorVisibility interface {
	IsVisible() (bool, error)
	ForceVisible() error
}

// Session is one beam, either the sending or receiving half. A Session is
// used once: Stop is terminal, matching the teacher's one-shot Channel.
type Session struct {
	id  string
	cfg *config.Config
	log *slog.Logger

	channel *control.Channel

	mu    sync.RWMutex
	state State

	onStateChange func(State)

	// sender-side pipeline, set by buildSenderPipeline once beam_accept
	// arrives.
	target       Target
	videoEncoder *video.VideoEncoder
	videoCapture video.Capture
	videoSender  *transport.Sender
	videoConn    *net.UDPConn
	audioEncoder *audio.Encoder
	audioCapture audio.Capture
	audioSender  *transport.Sender
	audioConn    *net.UDPConn
	injector     *input.Injector
	hider        *windowhider.Hider
	hideHandle   windowhider.Handle
	hasHide      bool
	cursorVis    CursorVisibility
	metrics      *StreamMetrics

	// receiver-side pipeline, set by buildReceiverPipeline once beam_offer
	// arrives.
	videoDecoder  *video.VideoDecoder
	videoReceiver *transport.Receiver
	videoListener *net.UDPConn
	audioDecoder  *audio.Decoder
	audioReceiver *transport.Receiver
	audioListener *net.UDPConn
	player        *audio.Player
	render        *renderer.Renderer
	inputCapture  *input.Capture
	inputBackend  input.Backend
	offerOnce     onceFlag

	startOnce   sync.Once
	stopOnce    sync.Once
	cleanupOnce sync.Once
	done        chan struct{}
	wg          sync.WaitGroup
}

func newSession(id string, cfg *config.Config, log *slog.Logger) *Session {
	return &Session{
		id:   id,
		cfg:  cfg,
		log:  log.With("session", id),
		done: make(chan struct{}),
	}
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// OnStateChange registers a callback invoked whenever the session
// transitions state. Must be set before StartBeam/serve begins.
func (s *Session) OnStateChange(fn func(State)) {
	s.mu.Lock()
	s.onStateChange = fn
	s.mu.Unlock()
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	fn := s.onStateChange
	s.mu.Unlock()
	if fn != nil {
		fn(st)
	}
	s.log.Info("session state changed", "state", st.String())
}

// spawn runs fn on its own goroutine, tracked by the session's WaitGroup
// and recovering any panic into a logged error rather than crashing the
// process — grounded on the teacher's uniform
// "s.wg.Add(1); go func() { defer s.wg.Done(); ... }()" pattern seen
// throughout session_stream.go.
func (s *Session) spawn(name string, fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("panic in session goroutine", "goroutine", name, "panic", r)
			}
		}()
		fn()
	}()
}

// Stop tears the session down. It is idempotent and safe to call from any
// goroutine, including a control-channel callback.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		if s.state == StateIdle || s.state == StateStopped {
			s.mu.Unlock()
			s.setState(StateStopped)
			return
		}
		s.mu.Unlock()

		s.setState(StateStopping)

		// Reentrancy guard (§4.10): clear all channel callbacks BEFORE
		// sending beam_end, so a message arriving mid-teardown can never
		// re-enter Stop or dispatch into half-torn-down components.
		if s.channel != nil {
			s.channel.OnMessage(func(control.Envelope) {})
			s.channel.OnStateChange(func(control.State) {})
			s.channel.Send(protocol.TypeBeamEnd, protocol.NewBeamEnd())
		}

		close(s.done)
		s.wg.Wait()

		s.doCleanup()

		if s.channel != nil {
			// Disconnect, not Close: Stop is routinely invoked synchronously
			// from inside the channel's own readLoop/heartbeatLoop goroutine
			// (beam_end dispatch, or the OnStateChange(Disconnected) closure
			// fired from within that goroutine's own terminate() call).
			// Close's wg.Wait would join that same goroutine from itself and
			// never return; Disconnect tears down the connection and lets
			// the loop unwind on its own.
			s.channel.Disconnect()
		}

		s.setState(StateStopped)
	})
}

// doCleanup tears down role-specific components in the exact order
// required by §4.10: stop capturers, stop decoders (draining async
// callbacks), stop player (engine stop before drop), detach input
// handler, flush and drop renderer. Grounded on desktop/session.go's
// doCleanup.
func (s *Session) doCleanup() {
	s.cleanupOnce.Do(func() {
		// --- stop capturers ---
		if s.videoCapture != nil {
			if err := s.videoCapture.Stop(); err != nil {
				s.log.Warn("video capture stop failed", "error", err)
			}
		}
		if s.audioCapture != nil {
			if err := s.audioCapture.Stop(); err != nil {
				s.log.Warn("audio capture stop failed", "error", err)
			}
		}
		if s.inputBackend != nil {
			if err := s.inputBackend.Stop(); err != nil {
				s.log.Warn("input capture stop failed", "error", err)
			}
		}

		if s.videoSender != nil && s.videoConn != nil {
			_ = s.videoConn.Close()
		}
		if s.audioSender != nil && s.audioConn != nil {
			_ = s.audioConn.Close()
		}
		if s.videoEncoder != nil {
			_ = s.videoEncoder.Close()
		}
		if s.audioEncoder != nil {
			_ = s.audioEncoder.Close()
		}

		// --- stop decoders (drain async callbacks) ---
		if s.videoReceiver != nil {
			s.videoReceiver.Stop()
		}
		if s.audioReceiver != nil {
			s.audioReceiver.Stop()
		}
		if s.videoDecoder != nil {
			_ = s.videoDecoder.Close()
		}
		if s.audioDecoder != nil {
			_ = s.audioDecoder.Close()
		}
		if s.videoListener != nil {
			_ = s.videoListener.Close()
		}
		if s.audioListener != nil {
			_ = s.audioListener.Close()
		}

		// --- stop player (engine stop before drop) ---
		if s.player != nil {
			if err := s.player.Close(); err != nil {
				s.log.Warn("audio player close failed", "error", err)
			}
		}

		// --- detach input handler ---
		// (inputBackend already stopped above; injector holds no
		// resources of its own beyond the OSInjector it was given)

		// --- flush and drop renderer ---
		if s.render != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := s.render.Stop(ctx); err != nil {
				s.log.Warn("renderer stop failed", "error", err)
			}
			cancel()
		}

		if s.hasHide && s.hider != nil {
			if err := s.hider.RestoreAll(); err != nil {
				s.log.Warn("window restore failed", "error", err)
			}
		}

		if s.metrics != nil {
			snap := s.metrics.snapshot()
			s.log.Info("stream metrics",
				"framesCaptured", snap.FramesCaptured,
				"framesEncoded", snap.FramesEncoded,
				"framesSent", snap.FramesSent,
				"framesDropped", snap.FramesDropped,
				"bandwidthKBps", snap.BandwidthKBps,
				"uptime", snap.Uptime)
		}
	})
}

func fmtErr(op string, err error) error {
	return fmt.Errorf("session: %s: %w", op, err)
}
