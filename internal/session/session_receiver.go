package session

import (
	"net"

	"github.com/beamteleport/beam/internal/audio"
	"github.com/beamteleport/beam/internal/config"
	"github.com/beamteleport/beam/internal/control"
	"github.com/beamteleport/beam/internal/input"
	"github.com/beamteleport/beam/internal/protocol"
	"github.com/beamteleport/beam/internal/renderer"
	"github.com/beamteleport/beam/internal/transport"
	"github.com/beamteleport/beam/internal/video"
	"log/slog"
)

// NewReceiver wraps an already-adopted control channel (handed off by
// control.Listener.Accept) as an idle receiver-role Session, ready to
// dispatch its first beam_offer.
func NewReceiver(cfg *config.Config, log *slog.Logger, channel *control.Channel) *Session {
	s := newSession(cfg.DeviceID, cfg, log)
	s.channel = channel
	s.channel.OnStateChange(func(cs control.State) {
		if cs == control.StateDisconnected {
			s.Stop()
		}
	})
	s.channel.OnMessage(s.handleReceiverMessage)
	return s
}

// Serve starts the receiver's I/O loops. Call after OnStateChange has been
// wired so callers can observe the idle → active transition.
func (s *Session) Serve() {
	s.startOnce.Do(func() {
		s.channel.Run()
	})
}

// buildReceiverPipeline implements §4.10's receiver path step 2: on the
// first beam_offer, stand up decoders, UDP receivers on system-chosen
// ports, the renderer, audio playback, and input capture, then reply
// beam_accept. idle → active.
func (s *Session) buildReceiverPipeline(offer protocol.BeamOffer) error {
	videoListener, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		return fmtErr("video listen", err)
	}
	s.videoListener = videoListener

	dec, err := video.NewVideoDecoder()
	if err != nil {
		_ = videoListener.Close()
		return fmtErr("video decoder", err)
	}
	s.videoDecoder = dec

	sink, err := renderer.NewPlatformSink(offer.WindowTitle)
	if err != nil {
		s.log.Warn("no display sink on this platform, decoding without presentation", "error", err)
		sink = nopSink{}
	}
	s.render = renderer.New(sink, s.log)

	s.videoReceiver = transport.NewReceiver(videoListener, "video", func(nal transport.NAL) {
		result, err := s.videoDecoder.Decode(nal.Data)
		if err != nil {
			s.log.Warn("video decode failed, requesting keyframe", "error", err)
			s.videoDecoder.RequestKeyframeRecovery()
			s.channel.Send(protocol.TypeKeyframeReq, protocol.NewKeyframeRequest())
			return
		}
		if result == nil {
			return
		}
		s.render.Enqueue(renderer.Frame{I420: result.I420, Width: result.Width, Height: result.Height})
	})
	s.videoReceiver.Start()

	videoPort := videoListener.LocalAddr().(*net.UDPAddr).Port
	audioPort := 0

	if offer.HasAudio {
		if err := s.buildReceiverAudio(offer); err != nil {
			s.log.Warn("audio pipeline unavailable, continuing video-only", "error", err)
		} else {
			audioPort = s.audioListener.LocalAddr().(*net.UDPAddr).Port
		}
	}

	backend := input.NewBackend()
	s.inputCapture = input.New(backend, receiverCaptureSink{s})
	s.inputBackend = backend
	if err := s.inputCapture.Start(); err != nil {
		s.log.Warn("local input capture unavailable", "error", err)
	}

	s.channel.Send(protocol.TypeBeamAccept, protocol.NewBeamAccept(videoPort, audioPort))
	s.setState(StateActive)
	return nil
}

func (s *Session) buildReceiverAudio(offer protocol.BeamOffer) error {
	audioListener, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		return fmtErr("audio listen", err)
	}
	s.audioListener = audioListener

	channels := 2
	dec, err := audio.NewDecoder(channels)
	if err != nil {
		_ = audioListener.Close()
		return fmtErr("audio decoder", err)
	}
	s.audioDecoder = dec

	backend, err := audio.NewPlayback(channels)
	if err != nil {
		_ = audioListener.Close()
		return fmtErr("audio playback", err)
	}
	s.player = audio.NewPlayer(backend)

	s.audioReceiver = transport.NewReceiver(audioListener, "audio", func(nal transport.NAL) {
		pcm, err := s.audioDecoder.Decode(nal.Data)
		if err != nil {
			s.log.Warn("audio decode failed", "error", err)
			return
		}
		if err := s.player.Submit(pcm); err != nil {
			s.log.Warn("audio playback submit failed", "error", err)
		}
	})
	s.audioReceiver.Start()
	return nil
}

// nopSink discards frames when no platform display sink is available,
// so the decode loop still runs (useful for headless receivers/tests).
type nopSink struct{}

func (nopSink) Push(renderer.Frame) error { return nil }
func (nopSink) Resize(int, int) error     { return nil }
func (nopSink) Close() error              { return nil }

// receiverCaptureSink adapts the local input.Capture's normalized events
// into outgoing "input" control messages (§6.3), and toggles
// cursor-capture mode on incoming cursor_state (wired in
// handleReceiverMessage).
type receiverCaptureSink struct{ s *Session }

func (r receiverCaptureSink) OnPointer(e input.PointerEvent) {
	ev := protocol.InputEvent{
		X: e.NormX, Y: e.NormY,
		DeltaX: e.DeltaX, DeltaY: e.DeltaY,
		Button:  e.Button,
		Shift:   e.Modifiers.Shift, Control: e.Modifiers.Control,
		Option: e.Modifiers.Option, Command: e.Modifiers.Command,
	}
	switch e.Phase {
	case input.PointerMove:
		ev.Type = protocol.EventMouseMove
	case input.PointerDown:
		ev.Type = protocol.EventMouseDown
	case input.PointerUp:
		ev.Type = protocol.EventMouseUp
	case input.PointerDrag:
		ev.Type = protocol.EventMouseDrag
	default:
		return
	}
	r.s.channel.Send(protocol.TypeInput, protocol.NewInputMessage(ev))
}

func (r receiverCaptureSink) OnScroll(e input.ScrollEvent) {
	ev := protocol.InputEvent{
		Type: protocol.EventScroll,
		X:    e.NormX, Y: e.NormY,
		DeltaY:  e.DeltaY,
		Shift:   e.Modifiers.Shift, Control: e.Modifiers.Control,
		Option: e.Modifiers.Option, Command: e.Modifiers.Command,
	}
	r.s.channel.Send(protocol.TypeInput, protocol.NewInputMessage(ev))
}

func (r receiverCaptureSink) OnKey(e input.KeyEvent) (consumed bool) {
	ev := protocol.InputEvent{
		KeyCode: e.KeyCode,
		Text:    e.Characters,
		Shift:   e.Modifiers.Shift, Control: e.Modifiers.Control,
		Option: e.Modifiers.Option, Command: e.Modifiers.Command,
	}
	if e.Down {
		ev.Type = protocol.EventKeyDown
	} else {
		ev.Type = protocol.EventKeyUp
	}
	r.s.channel.Send(protocol.TypeInput, protocol.NewInputMessage(ev))
	return true
}
