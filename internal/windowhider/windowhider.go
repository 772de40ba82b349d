// Package windowhider implements §4.13: creation of a process-private
// virtual display and the hide/restore/restoreAll lifecycle that moves
// beamed windows onto it.
//
// Grounded on wallpaper.go's manager-plus-backend-interface shape (a
// platform-agnostic manager holding state, a small backend interface doing
// the OS-specific work, deterministic teardown) and on §9's own framing of
// the virtual display as "an external trait: create(w,h) → handle;
// resize(handle, h); destroy(handle); bounds(handle) → rect" — taken
// directly as the Platform interface below.
package windowhider

import (
	"fmt"
	"sync"
)

const (
	// baseWidth is the virtual display's fixed width (§4.13).
	baseWidth = 1920
	// heightStep is both the initial height and the growth increment —
	// resizes always land on a multiple of it, up to maxHeight.
	heightStep = 1080
	// maxHeight is the hard cap on virtual-display height (§4.13: "growable
	// to 10800").
	maxHeight = 10800
	// stackGap is the vertical offset between stacked hidden windows.
	stackGap = 50
)

// ErrNotSupported is returned when the platform has no virtual-display
// facility (§9: "On platforms without this, WindowHider returns a 'not
// supported' error and the session continues unhidden").
var ErrNotSupported = fmt.Errorf("windowhider: virtual display not supported on this platform")

// ErrExceedsCap is returned by Hide when stacking the next window would
// require growing the virtual display past maxHeight.
var ErrExceedsCap = fmt.Errorf("windowhider: virtual display height cap exceeded")

// VirtualDisplay is a live, resizable, process-private display.
type VirtualDisplay interface {
	Bounds() (x, y, w, h int)
	Resize(height int) error
	Destroy() error
}

// WindowHandle is an opaque platform window reference, compared only for
// identity by this package.
type WindowHandle any

// Platform is the OS-specific half of WindowHider: virtual display
// lifecycle, window lookup, and window geometry manipulation.
type Platform interface {
	MainDisplayBounds() (x, y, w, h int, err error)
	CreateVirtualDisplay(x, y, width, height int) (VirtualDisplay, error)

	FindWindow(pid int, titleFilter string) (WindowHandle, error)
	WindowBounds(h WindowHandle) (x, y, w, ht int, err error)
	MoveWindow(h WindowHandle, x, y int) error
	RaiseWindow(h WindowHandle) error
}

// Handle is returned by Hide and opaquely identifies one hidden window for
// a later Restore call (§4.13: "Session borrows the handle for the
// lifetime of the hide").
type Handle struct {
	window WindowHandle
}

type hiddenEntry struct {
	handle               Handle
	origX, origY         int
	slotX, slotY         int
	slotW, slotH         int
}

// Hider owns one virtual display and the hidden-window stack placed on
// it.
type Hider struct {
	platform Platform

	mu      sync.Mutex
	vd      VirtualDisplay
	entries []hiddenEntry
}

// New creates the session's virtual display, positioned at the bottom-left
// of the current display arrangement with a 1px overlap of the main
// display's left edge (§4.13).
func New(platform Platform) (*Hider, error) {
	mainX, mainY, _, mainH, err := platform.MainDisplayBounds()
	if err != nil {
		return nil, fmt.Errorf("windowhider: query main display: %w", err)
	}

	vdX := mainX - (baseWidth - 1)
	vdY := mainY + mainH - heightStep

	vd, err := platform.CreateVirtualDisplay(vdX, vdY, baseWidth, heightStep)
	if err != nil {
		return nil, fmt.Errorf("windowhider: create virtual display: %w", err)
	}

	return &Hider{platform: platform, vd: vd}, nil
}

// Hide locates the target window, records its position, and moves it onto
// the virtual display per the stacking policy (§4.13).
func (h *Hider) Hide(pid int, titleFilter string) (Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	win, err := h.platform.FindWindow(pid, titleFilter)
	if err != nil {
		return Handle{}, err
	}
	origX, origY, w, ht, err := h.platform.WindowBounds(win)
	if err != nil {
		return Handle{}, err
	}

	vdX, vdY, _, vdH := h.vd.Bounds()

	slotX := vdX + stackGap
	slotY := vdY + stackGap
	if n := len(h.entries); n > 0 {
		last := h.entries[n-1]
		slotY = last.slotY + last.slotH + stackGap
	}

	if needed := slotY + ht - vdY; needed > vdH {
		newHeight, ok := nextFittingHeight(needed)
		if !ok {
			return Handle{}, ErrExceedsCap
		}
		if err := h.vd.Resize(newHeight); err != nil {
			return Handle{}, fmt.Errorf("windowhider: resize: %w", err)
		}
	}

	if err := h.platform.MoveWindow(win, slotX, slotY); err != nil {
		return Handle{}, fmt.Errorf("windowhider: move: %w", err)
	}

	handle := Handle{window: win}
	h.entries = append(h.entries, hiddenEntry{
		handle: handle,
		origX:  origX, origY: origY,
		slotX: slotX, slotY: slotY,
		slotW: w, slotH: ht,
	})
	return handle, nil
}

// Bounds reports a hidden window's current slot on the virtual display,
// letting InputInjector denormalize pointer coordinates against it
// (§4.12) without needing its own reference to the Platform backend.
func (h *Hider) Bounds(handle Handle) (x, y, w, ht int, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range h.entries {
		if e.handle == handle {
			return e.slotX, e.slotY, e.slotW, e.slotH, nil
		}
	}
	return 0, 0, 0, 0, fmt.Errorf("windowhider: unknown handle")
}

// Restore moves a previously hidden window back to its recorded position
// and raises it.
func (h *Hider) Restore(handle Handle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.restoreLocked(handle)
}

func (h *Hider) restoreLocked(handle Handle) error {
	idx := -1
	for i, e := range h.entries {
		if e.handle == handle {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("windowhider: unknown handle")
	}
	e := h.entries[idx]
	h.entries = append(h.entries[:idx], h.entries[idx+1:]...)

	if err := h.platform.MoveWindow(e.handle.window, e.origX, e.origY); err != nil {
		return err
	}
	return h.platform.RaiseWindow(e.handle.window)
}

// RestoreAll restores every hidden window in reverse hide order, then
// destroys the virtual display (§4.13).
func (h *Hider) RestoreAll() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var firstErr error
	for i := len(h.entries) - 1; i >= 0; i-- {
		e := h.entries[i]
		if err := h.platform.MoveWindow(e.handle.window, e.origX, e.origY); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := h.platform.RaiseWindow(e.handle.window); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	h.entries = nil

	if err := h.vd.Destroy(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// nextFittingHeight returns the smallest multiple of heightStep that is
// >= required, capped at maxHeight. ok=false means even the cap doesn't
// fit (§4.13: "excess is an error — the session fails to hide").
func nextFittingHeight(required int) (height int, ok bool) {
	h := heightStep
	for h < required {
		h += heightStep
	}
	if h > maxHeight {
		return 0, false
	}
	return h, true
}
