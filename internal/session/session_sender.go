package session

import (
	"fmt"
	"net"
	"time"

	"github.com/beamteleport/beam/internal/audio"
	"github.com/beamteleport/beam/internal/config"
	"github.com/beamteleport/beam/internal/control"
	"github.com/beamteleport/beam/internal/input"
	"github.com/beamteleport/beam/internal/muteblacklist"
	"github.com/beamteleport/beam/internal/protocol"
	"github.com/beamteleport/beam/internal/transport"
	"github.com/beamteleport/beam/internal/video"
	"github.com/beamteleport/beam/internal/windowhider"
	"log/slog"
)

// NewSender creates an idle sender-role Session. cursorVis may be nil on
// platforms with no cursor-visibility hook (§4.10's 3Hz poll is then
// skipped rather than failing the beam).
func NewSender(cfg *config.Config, log *slog.Logger, cursorVis CursorVisibility) *Session {
	s := newSession(cfg.DeviceID, cfg, log)
	s.cursorVis = cursorVis
	s.metrics = newStreamMetrics()
	return s
}

// StartBeam implements §4.10's sender path steps 1-2: idle → connecting,
// dial the peer's control endpoint, and send beam_offer once connected.
func (s *Session) StartBeam(peerEndpoint string, target Target) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("session: StartBeam called in state %s", s.state)
	}
	s.mu.Unlock()

	if err := validateTarget(target); err != nil {
		return err
	}
	s.target = target

	s.setState(StateConnecting)

	ch, err := control.Connect(peerEndpoint, connectTimeout)
	if err != nil {
		s.setState(StateStopped)
		return fmtErr("connect", err)
	}
	s.channel = ch

	ch.OnStateChange(func(cs control.State) {
		switch cs {
		case control.StateConnected:
			w, h, _ := s.probeWindowSize()
			offer := protocol.NewBeamOffer(s.cfg.DeviceName, target.WindowTitle, w, h, s.cfg.AudioBitrateStereo > 0, target.BundleID)
			ch.Send(protocol.TypeBeamOffer, offer)
		case control.StateDisconnected:
			s.Stop()
		}
	})
	ch.OnMessage(s.handleSenderMessage)
	ch.Run()

	return nil
}

// probeWindowSize opens a throwaway capture just long enough to read the
// target window's current bounds, used to populate beam_offer's
// width/height before the real pipeline (with its own Capture) is built.
func (s *Session) probeWindowSize() (int, int, error) {
	probe, err := video.NewCapture(s.target.PID, s.target.WindowTitle)
	if err != nil {
		return 0, 0, err
	}
	w, h, err := probe.Bounds()
	_ = probe.Stop()
	return w, h, err
}

// buildSenderPipeline implements §4.10 step 3: on beam_accept, build the
// full sender pipeline and transition connecting → active.
func (s *Session) buildSenderPipeline(accept protocol.BeamAccept) error {
	w, h, err := s.probeWindowSize()
	if err != nil {
		return fmtErr("probe window", err)
	}

	peerHost := s.channel.RemoteHost()

	videoConn, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		return fmtErr("video socket", err)
	}
	videoPeerAddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", peerHost, accept.VideoPort))
	if err != nil {
		_ = videoConn.Close()
		return fmtErr("resolve video peer", err)
	}
	s.videoConn = videoConn
	s.videoSender = transport.NewSender(videoConn, videoPeerAddr, "video")

	encCfg := video.EncoderConfig{
		Width:               w,
		Height:              h,
		TargetFPS:           s.cfg.TargetFPS,
		Bitrate:             s.cfg.VideoBitrate,
		MaxKeyframeInterval: s.cfg.MaxKeyframeInterval,
		PreferHardware:      s.cfg.PreferHardwareEncoder,
	}
	enc, err := video.NewVideoEncoder(encCfg)
	if err != nil {
		return fmtErr("video encoder", err)
	}
	s.videoEncoder = enc

	capture, err := video.NewCapture(s.target.PID, s.target.WindowTitle)
	if err != nil {
		return fmtErr("video capture", err)
	}
	s.videoCapture = capture

	var ts uint32
	if err := capture.Start(func(frame video.Frame) {
		s.metrics.recordCapture()
		encodeStart := time.Now()
		nals, err := s.videoEncoder.Encode(frame.I420)
		if err != nil {
			s.log.Warn("video encode failed", "error", err)
			return
		}
		if len(nals) == 0 {
			return
		}

		var auBytes int
		for _, n := range nals {
			auBytes += len(n.Data)
		}
		s.metrics.recordEncode(time.Since(encodeStart), auBytes)

		ts += 3000 // 90kHz clock / 30fps nominal tick; real cadence is capture-driven
		// §4.4: parameter sets and the keyframe slice they belong to share
		// one timestamp and are sent as separate NALs, SPS/PPS first.
		for _, n := range nals {
			s.videoSender.Send(transport.NAL{Data: n.Data, IsKeyframe: n.IsKeyframe, Timestamp: ts})
			s.metrics.recordSend(len(n.Data))
		}
	}); err != nil {
		return fmtErr("start video capture", err)
	}

	if accept.AudioPort != 0 {
		if err := s.buildSenderAudio(peerHost, accept.AudioPort); err != nil {
			s.log.Warn("audio pipeline unavailable, continuing video-only", "error", err)
		}
	}

	osInjector := input.NewOSInjector()
	s.injector = input.New(osInjector, senderFrameProvider{s}, s.target.PID)
	if err := s.injector.Activate(); err != nil {
		s.log.Warn("target activation failed", "error", err)
	}

	hider, err := windowhider.New(windowhider.NewPlatform())
	if err != nil {
		s.log.Warn("window hider unavailable, target window stays visible", "error", err)
	} else {
		s.hider = hider
		handle, err := hider.Hide(s.target.PID, s.target.WindowTitle)
		if err != nil {
			s.log.Warn("window hide failed, target window stays visible", "error", err)
		} else {
			s.hideHandle = handle
			s.hasHide = true
		}
	}

	if s.cursorVis != nil {
		s.spawn("cursor-poll", s.cursorPollLoop)
	}

	s.setState(StateActive)
	return nil
}

// buildSenderAudio wires the per-application audio capture, encoder, and
// UDP sender, and evaluates the §4.7.1 mute-blacklist rule (the result is
// only logged).
func (s *Session) buildSenderAudio(peerHost string, audioPort int) error {
	capture, err := audio.NewCapture(s.target.PID)
	if err != nil {
		return fmtErr("audio capture", err)
	}
	s.audioCapture = capture

	enc, err := audio.NewEncoder(2)
	if err != nil {
		_ = capture.Stop()
		return fmtErr("audio encoder", err)
	}
	s.audioEncoder = enc

	audioConn, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		_ = capture.Stop()
		_ = enc.Close()
		return fmtErr("audio socket", err)
	}
	audioPeerAddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", peerHost, audioPort))
	if err != nil {
		_ = audioConn.Close()
		return fmtErr("resolve audio peer", err)
	}
	s.audioConn = audioConn
	s.audioSender = transport.NewSender(audioConn, audioPeerAddr, "audio")

	// §4.7.1: evaluate once, at attach time, whether an OS-level local mute
	// tap would be allowed; the capture attaches no mute tap, so the result
	// is only logged. Beaming a single window always
	// counts as "every window of that bundle is beamed" (totalWindows=1,
	// beamedWindows=1) absent a window-enumeration API, so the blacklist
	// only ever matters once Beam grows the ability to count sibling
	// windows of the same bundle.
	blacklist := muteblacklist.NewList(s.cfg.MuteBlacklist)
	wantLocalMute := blacklist.ShouldMute(s.target.BundleID, 1, 1)
	s.log.Debug("local mute tap decision", "bundleID", s.target.BundleID, "mute", wantLocalMute)

	var ts uint32
	if err := capture.Start(func(pcm audio.PCM) {
		frames, err := s.audioEncoder.Feed(pcm)
		if err != nil {
			s.log.Warn("audio encode failed", "error", err)
			return
		}
		for _, f := range frames {
			ts += uint32(audio.FrameSize)
			s.audioSender.Send(transport.NAL{Data: f, Timestamp: ts})
		}
	}); err != nil {
		return fmtErr("start audio capture", err)
	}
	return nil
}

// cursorPollLoop implements §4.10's 3Hz sender-side cursor-visibility
// poll: report changes to the receiver via cursor_state, and reverse any
// global cursor-hide the target app performed between polls.
func (s *Session) cursorPollLoop() {
	ticker := time.NewTicker(cursorPollInterval)
	defer ticker.Stop()

	lastVisible := true
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			visible, err := s.cursorVis.IsVisible()
			if err != nil {
				continue
			}
			if !visible {
				if err := s.cursorVis.ForceVisible(); err != nil {
					s.log.Warn("failed to reverse cursor hide", "error", err)
				}
			}
			if visible != lastVisible {
				lastVisible = visible
				s.channel.Send(protocol.TypeCursorState, protocol.NewCursorState(visible))
			}
		}
	}
}

// senderFrameProvider adapts Session to input.FrameProvider, reporting the
// hidden target window's current virtual-display frame so the injector
// can denormalize incoming pointer coordinates (§4.12).
type senderFrameProvider struct{ s *Session }

func (p senderFrameProvider) Frame() (ox, oy, w, h float64, err error) {
	if !p.s.hasHide {
		// No virtual display: fall back to the live capture bounds at
		// the origin, matching a beam whose window was never hidden.
		if p.s.videoCapture == nil {
			return 0, 0, 0, 0, fmt.Errorf("session: no active capture")
		}
		cw, ch, err := p.s.videoCapture.Bounds()
		return 0, 0, float64(cw), float64(ch), err
	}
	bx, by, bw, bh, err := p.s.hider.Bounds(p.s.hideHandle)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return float64(bx), float64(by), float64(bw), float64(bh), nil
}
