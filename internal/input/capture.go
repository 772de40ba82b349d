package input

import "sync/atomic"

// escapeKeyCode is the macOS virtual key code for Escape (kVK_Escape).
const escapeKeyCode = 53

// CaptureSink receives normalized events from the platform backend. Key
// events return whether they were consumed (never propagated further, per
// §4.11: "Key events are NOT propagated up the responder chain").
type CaptureSink interface {
	OnPointer(PointerEvent)
	OnScroll(ScrollEvent)
	OnKey(KeyEvent) (consumed bool)
}

// Backend is the platform input-observer hook (an NSEvent local monitor on
// darwin). It reports raw, not-yet-normalized samples plus the current
// view bounds so Capture can apply §4.11's math itself.
type Backend interface {
	Start(c *Capture) error
	Stop() error
}

// Capture installs local input observers and tracks the cursor-capture
// state machine of §4.11.1. It is the sink the platform Backend calls into
// directly from the OS event-delivery thread.
type Capture struct {
	backend Backend
	sink    CaptureSink

	captured atomic.Bool
}

// New creates a Capture driven by backend and forwarding normalized
// events to sink.
func New(backend Backend, sink CaptureSink) *Capture {
	return &Capture{backend: backend, sink: sink}
}

func (c *Capture) Start() error { return c.backend.Start(c) }
func (c *Capture) Stop() error  { return c.backend.Stop() }

// SetCursorCaptured implements the sender's cursor_state wiring (§4.11.1:
// "visible=false automatically enters capture; visible=true releases
// it").
func (c *Capture) SetCursorCaptured(captured bool) {
	c.captured.Store(captured)
}

// CursorCaptured reports the current capture state.
func (c *Capture) CursorCaptured() bool {
	return c.captured.Load()
}

// HandleRawPointer is called by the Backend with raw view-local
// coordinates and raw deltas; it normalizes, drops off-surface samples,
// and forwards to the sink.
func (c *Capture) HandleRawPointer(phase PointerPhase, button string, x, y, width, height, dx, dy float64, mods Modifiers) {
	nx, ny, ok := NormalizePointer(x, y, width, height)
	if !ok {
		return
	}
	c.sink.OnPointer(PointerEvent{
		Phase:       phase,
		Button:      button,
		NormX:       nx,
		NormY:       ny,
		DeltaX:      dx,
		DeltaY:      dy,
		HasRawDelta: c.captured.Load(),
		Modifiers:   mods,
	})
}

// HandleRawScroll normalizes a scroll sample and forwards it.
func (c *Capture) HandleRawScroll(x, y, width, height, deltaY float64, highPrecision bool, mods Modifiers) {
	nx, ny, ok := NormalizePointer(x, y, width, height)
	if !ok {
		return
	}
	c.sink.OnScroll(ScrollEvent{
		NormX:     nx,
		NormY:     ny,
		DeltaY:    NormalizeScrollDelta(deltaY, highPrecision),
		Modifiers: mods,
	})
}

// HandleRawKey applies the escape-releases-capture rule before forwarding;
// returns whether the OS should consider the key consumed.
func (c *Capture) HandleRawKey(down bool, keyCode int, mods Modifiers, characters string) (consumed bool) {
	if down && keyCode == escapeKeyCode && c.captured.Load() {
		c.captured.Store(false)
		return true // consumed, not forwarded
	}
	c.sink.OnKey(KeyEvent{Down: down, KeyCode: keyCode, Modifiers: mods, Characters: characters})
	return true // all key events are consumed locally (§4.11)
}
