package video

import "errors"

// ErrWindowNotFound is returned when the target window cannot be located
// by title/bundle identifier.
var ErrWindowNotFound = errors.New("video: window not found")

// ErrCaptureNotSupported is returned by platforms without a window capture
// implementation.
var ErrCaptureNotSupported = errors.New("video: window capture not supported on this platform")

// Frame is one captured I420 video frame.
type Frame struct {
	I420          []byte
	Width, Height int
}

// Capture captures frames from a single application window (§4.4:
// "Capture" half of the video pipeline — window pixels, not full-screen).
// Implementations deliver frames via a callback on their own dedicated
// capture thread (§5), never blocking the caller of Start.
type Capture interface {
	Start(onFrame func(Frame)) error
	Stop() error
	Bounds() (width, height int, err error)
}

// NewCapture creates the platform window capturer for the given process ID
// and optional window-title substring filter (empty = first window).
func NewCapture(pid int, titleFilter string) (Capture, error) {
	return newPlatformCapture(pid, titleFilter)
}
