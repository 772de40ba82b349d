package input

import "time"

const (
	clickMaxDistance = 10.0
	clickMaxInterval = 500 * time.Millisecond

	pageDownKeyCode = 121
	pageUpKeyCode   = 116
)

// FrameProvider supplies the hidden target window's current virtual-
// display frame, queried from WindowHider (§4.12's denormalization
// input).
type FrameProvider interface {
	Frame() (ox, oy, w, h float64, err error)
}

// OSInjector is the platform delivery hook (CGEvent/Accessibility on
// darwin).
type OSInjector interface {
	// AXPress attempts an Accessibility "press" at the target point with
	// no cursor movement. ok=false means no pressable element was found
	// there (§4.12 step 1's "if AX press fails" fallback condition).
	AXPress(pid int, x, y float64) (ok bool, err error)

	// PostMouseButton posts an OS mouse down/up event to pid at (x, y),
	// wrapped by the caller in a cursor save/warp/restore.
	PostMouseButton(pid int, x, y float64, button string, down bool) error

	// PostMouseMove posts an OS mouse-moved event, optionally carrying
	// raw delta fields for cursor-capture mode.
	PostMouseMove(pid int, x, y, dx, dy float64, hasDelta bool) error

	// PostKey posts an OS key down/up event with the given modifier flags.
	PostKey(pid int, keyCode int, mods Modifiers, down bool) error

	// PostUnicodeText injects a composed Unicode string (§4.12 step 4).
	PostUnicodeText(pid int, text string) error

	// ScrollAX walks the target's accessibility tree (DFS, max depth 5)
	// for the first AXScrollArea's vertical scroll bar and nudges its
	// value by deltaY, clamped to [0,1]. found=false triggers the
	// Page-Up/Page-Down fallback.
	ScrollAX(pid int, deltaY float64) (found bool, err error)

	// WarpCursor moves the local cursor to (x, y) and returns a restore
	// func that moves it back (§4.12 step 1/2's save/warp/restore dance).
	WarpCursor(x, y float64) (restore func(), err error)

	// ActivateTarget brings pid to the front once at session setup so
	// posted events are treated as input, not activation (§4.12 "Target
	// activation").
	ActivateTarget(pid int) error
}

type pendingDown struct {
	button string
	x, y   float64
	at     time.Time
}

// Injector delivers normalized ControlChannel input events to the hidden
// target process, implementing §4.12's buffered click/drag resolution,
// scroll fallback, and keyboard delivery.
type Injector struct {
	os     OSInjector
	frames FrameProvider
	pid    int

	down *pendingDown
}

// New creates an Injector for the target process pid.
func New(os OSInjector, frames FrameProvider, pid int) *Injector {
	return &Injector{os: os, frames: frames, pid: pid}
}

// Activate performs the one-time target activation.
func (in *Injector) Activate() error {
	return in.os.ActivateTarget(in.pid)
}

func (in *Injector) denorm(nx, ny float64) (float64, float64, error) {
	ox, oy, w, h, err := in.frames.Frame()
	if err != nil {
		return 0, 0, err
	}
	x, y := Denormalize(ox, oy, w, h, nx, ny)
	return x, y, nil
}

// Dispatch delivers one normalized pointer event per §4.12 steps 1–3.
func (in *Injector) Dispatch(e PointerEvent) error {
	x, y, err := in.denorm(e.NormX, e.NormY)
	if err != nil {
		return err
	}

	switch e.Phase {
	case PointerDown:
		in.down = &pendingDown{button: e.Button, x: x, y: y, at: time.Now()}
		return nil

	case PointerUp:
		return in.resolveUp(e.Button, x, y)

	case PointerDrag:
		return in.resolveDrag(x, y)

	case PointerMove:
		return in.os.PostMouseMove(in.pid, x, y, e.DeltaX, e.DeltaY, e.HasRawDelta)
	}
	return nil
}

// resolveUp implements step 1: AX press if the down/up pair is a click
// candidate, else OS-event fallback for both the buffered down and this
// up, wrapped in warp/restore.
func (in *Injector) resolveUp(button string, x, y float64) error {
	down := in.down
	in.down = nil

	if down != nil && isClickCandidate(down, button, x, y) {
		if ok, err := in.os.AXPress(in.pid, x, y); err == nil && ok {
			return nil
		}
	}

	restore, err := in.os.WarpCursor(x, y)
	if err != nil {
		return err
	}
	defer restore()

	if down != nil {
		if err := in.os.PostMouseButton(in.pid, down.x, down.y, down.button, true); err != nil {
			return err
		}
	}
	return in.os.PostMouseButton(in.pid, x, y, button, false)
}

// resolveDrag implements step 2: flush any buffered down first, then
// deliver this drag, both as OS events under warp/restore.
func (in *Injector) resolveDrag(x, y float64) error {
	restore, err := in.os.WarpCursor(x, y)
	if err != nil {
		return err
	}
	defer restore()

	if in.down != nil {
		down := in.down
		in.down = nil
		if err := in.os.PostMouseButton(in.pid, down.x, down.y, down.button, true); err != nil {
			return err
		}
	}
	return in.os.PostMouseButton(in.pid, x, y, "drag", true)
}

func isClickCandidate(down *pendingDown, upButton string, upX, upY float64) bool {
	if down.button != upButton {
		return false
	}
	if time.Since(down.at) >= clickMaxInterval {
		return false
	}
	dx := upX - down.x
	dy := upY - down.y
	return dx*dx+dy*dy < clickMaxDistance*clickMaxDistance
}

// DispatchKey delivers a key event per step 4.
func (in *Injector) DispatchKey(e KeyEvent) error {
	if err := in.os.PostKey(in.pid, e.KeyCode, e.Modifiers, e.Down); err != nil {
		return err
	}
	if e.Down && e.Characters != "" {
		return in.os.PostUnicodeText(in.pid, e.Characters)
	}
	return nil
}

// DispatchScroll delivers a scroll event per step 5: AX scrollbar nudge,
// falling back to Page-Down/Page-Up when no scroll area is found.
func (in *Injector) DispatchScroll(e ScrollEvent) error {
	found, err := in.os.ScrollAX(in.pid, e.DeltaY)
	if err != nil {
		return err
	}
	if found {
		return nil
	}

	keyCode := pageUpKeyCode
	if e.DeltaY > 0 {
		keyCode = pageDownKeyCode
	}
	if err := in.os.PostKey(in.pid, keyCode, Modifiers{}, true); err != nil {
		return err
	}
	return in.os.PostKey(in.pid, keyCode, Modifiers{}, false)
}
