package session

import (
	"sync"

	"github.com/beamteleport/beam/internal/control"
	"github.com/beamteleport/beam/internal/input"
	"github.com/beamteleport/beam/internal/protocol"
)

// offerOnce guards the receiver's "first beam_offer wins" rule (§4.10
// step 2 only fires pipeline construction once; a one-shot control
// channel never receives a second offer in practice, but a duplicate or
// retransmitted frame must not rebuild the pipeline twice).
type onceFlag struct {
	mu   sync.Mutex
	done bool
}

func (f *onceFlag) trigger() (first bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done {
		return false
	}
	f.done = true
	return true
}

// handleSenderMessage dispatches control-plane messages received while
// acting as the sender (§4.10's "Control-plane messages consumed in
// active state": input, keyframe_request; plus beam_accept/beam_end).
func (s *Session) handleSenderMessage(env control.Envelope) {
	switch env.Type {
	case protocol.TypeBeamAccept:
		var accept protocol.BeamAccept
		if err := control.Decode(env, &accept); err != nil {
			s.log.Warn("malformed beam_accept", "error", err)
			return
		}
		if err := s.buildSenderPipeline(accept); err != nil {
			s.log.Error("failed to build sender pipeline", "error", err)
			s.Stop()
		}

	case protocol.TypeBeamEnd:
		s.Stop()

	case protocol.TypeInput:
		var msg protocol.InputMessage
		if err := control.Decode(env, &msg); err != nil {
			s.log.Warn("malformed input message", "error", err)
			return
		}
		s.applyInputEvent(msg.Event)

	case protocol.TypeKeyframeReq:
		if s.videoEncoder != nil {
			if err := s.videoEncoder.ForceKeyframe(); err != nil {
				s.log.Warn("force keyframe failed", "error", err)
			}
		}
	}
}

// applyInputEvent translates one wire InputEvent into an Injector call,
// reconstructing the typed pointer/scroll/key event the package works
// with.
func (s *Session) applyInputEvent(e protocol.InputEvent) {
	if s.injector == nil {
		return
	}
	mods := input.Modifiers{Shift: e.Shift, Control: e.Control, Option: e.Option, Command: e.Command}

	switch e.Type {
	case protocol.EventMouseMove, protocol.EventMouseDown, protocol.EventMouseUp, protocol.EventMouseDrag:
		phase := input.PointerMove
		switch e.Type {
		case protocol.EventMouseDown:
			phase = input.PointerDown
		case protocol.EventMouseUp:
			phase = input.PointerUp
		case protocol.EventMouseDrag:
			phase = input.PointerDrag
		}
		pe := input.PointerEvent{
			Phase: phase, Button: e.Button,
			NormX: e.X, NormY: e.Y,
			DeltaX: e.DeltaX, DeltaY: e.DeltaY,
			HasRawDelta: e.DeltaX != 0 || e.DeltaY != 0,
			Modifiers:   mods,
		}
		if err := s.injector.Dispatch(pe); err != nil {
			s.log.Warn("input dispatch failed", "error", err)
		}

	case protocol.EventScroll:
		se := input.ScrollEvent{NormX: e.X, NormY: e.Y, DeltaY: e.DeltaY, Modifiers: mods}
		if err := s.injector.DispatchScroll(se); err != nil {
			s.log.Warn("scroll dispatch failed", "error", err)
		}

	case protocol.EventKeyDown, protocol.EventKeyUp:
		ke := input.KeyEvent{
			Down: e.Type == protocol.EventKeyDown, KeyCode: e.KeyCode,
			Modifiers: mods, Characters: e.Text,
		}
		if err := s.injector.DispatchKey(ke); err != nil {
			s.log.Warn("key dispatch failed", "error", err)
		}
	}
}

// handleReceiverMessage dispatches control-plane messages received while
// acting as the receiver: the first beam_offer builds the pipeline;
// cursor_state toggles local cursor-capture mode (§4.11.1); beam_end
// tears down.
func (s *Session) handleReceiverMessage(env control.Envelope) {
	switch env.Type {
	case protocol.TypeBeamOffer:
		if !s.offerOnce.trigger() {
			return
		}
		var offer protocol.BeamOffer
		if err := control.Decode(env, &offer); err != nil {
			s.log.Warn("malformed beam_offer", "error", err)
			return
		}
		if err := s.buildReceiverPipeline(offer); err != nil {
			s.log.Error("failed to build receiver pipeline", "error", err)
			s.Stop()
		}

	case protocol.TypeCursorState:
		var cs protocol.CursorState
		if err := control.Decode(env, &cs); err != nil {
			s.log.Warn("malformed cursor_state", "error", err)
			return
		}
		if s.inputCapture != nil {
			s.inputCapture.SetCursorCaptured(!cs.Visible)
		}

	case protocol.TypeBeamEnd:
		s.Stop()
	}
}
