package renderer

import "errors"

// ErrSinkNotSupported is returned by platforms without a display-layer
// backend.
var ErrSinkNotSupported = errors.New("renderer: display sink not supported on this platform")

// NewPlatformSink creates the native display-layer sink for the current
// platform, attached to the given window title.
func NewPlatformSink(windowTitle string) (Sink, error) {
	return newPlatformSink(windowTitle)
}
