// Package input implements §4.11/§4.12: receiver-side capture and
// normalization of local input, and sender-side denormalization and
// delivery to the hidden target window.
//
// Grounded on desktop/input.go's InputEvent/InputHandler split (a typed
// event struct plus a platform-specific delivery interface) and
// input_darwin.go's build-tag convention (real cgo implementation on
// darwin, an error-returning stub everywhere else) — generalized from
// string-typed OS-shell delivery (cliclick/osascript) to CGEvent/
// Accessibility posting, since Beam's precision and cursor-capture
// requirements (§4.11.1, §4.12) need OS-level event injection.
package input

// PointerPhase identifies which half of a pointer interaction an event
// represents.
type PointerPhase int

const (
	PointerMove PointerPhase = iota
	PointerDown
	PointerUp
	PointerDrag
)

// Modifiers mirrors the four modifier keys InputCapture/InputInjector
// track (§4.11: "a modifier set {shift, control, option, command}").
type Modifiers struct {
	Shift, Control, Option, Command bool
}

// PointerEvent is a normalized pointer sample, already divided by view
// size and Y-flipped (§4.11). Off-surface events never reach this type —
// NormalizePointer filters them first.
type PointerEvent struct {
	Phase            PointerPhase
	Button           string // "left", "right", "middle"
	NormX, NormY     float64
	DeltaX, DeltaY   float64 // raw deltas, authoritative only in cursor-capture mode
	HasRawDelta      bool
	Modifiers        Modifiers
}

// ScrollEvent is a normalized scroll-wheel sample (§4.11).
type ScrollEvent struct {
	NormX, NormY float64
	DeltaY       float64
	Modifiers    Modifiers
}

// KeyEvent is a key down/up sample (§4.11).
type KeyEvent struct {
	Down       bool
	KeyCode    int
	Modifiers  Modifiers
	Characters string // attached on key-down when available
}

// NormalizePointer converts raw view-local coordinates to the [0,1]²
// space with Y flipped so 0 is top, per §4.11. Returns ok=false for
// events outside [-0.1, 1.1]² (dropped as off-surface drags).
func NormalizePointer(x, y, width, height float64) (nx, ny float64, ok bool) {
	if width <= 0 || height <= 0 {
		return 0, 0, false
	}
	nx = x / width
	ny = 1 - y/height
	if nx < -0.1 || nx > 1.1 || ny < -0.1 || ny > 1.1 {
		return nx, ny, false
	}
	return nx, ny, true
}

// NormalizeScrollDelta applies §4.11's two scaling conventions depending
// on whether the OS reported a high-precision delta.
func NormalizeScrollDelta(deltaY float64, highPrecision bool) float64 {
	if highPrecision {
		return deltaY / 500
	}
	return deltaY * 0.03
}

// Denormalize maps a normalized (x, y) back into the hidden window's
// current virtual-display frame (§4.12).
func Denormalize(ox, oy, w, h, x, y float64) (px, py float64) {
	return ox + x*w, oy + y*h
}
