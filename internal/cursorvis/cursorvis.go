// Package cursorvis implements the sender-side hook behind §4.10's 3Hz
// cursor-visibility poll: querying whether the local system cursor is
// currently visible and, when some other process has hidden it globally,
// forcing it back on. Platform-split the same way windowhider and input
// are: a tiny interface here, a cgo-backed implementation under
// cursorvis_darwin.go, and a not-supported stub elsewhere.
package cursorvis

import "fmt"

// ErrNotSupported is returned by New on platforms with no cursor-visibility
// hook. session.NewSender accepts a nil CursorVisibility and simply skips
// the poll rather than failing the beam.
var ErrNotSupported = fmt.Errorf("cursorvis: not supported on this platform")

// Checker reports and restores global system cursor visibility. It
// satisfies internal/session's CursorVisibility interface.
type Checker interface {
	IsVisible() (bool, error)
	ForceVisible() error
}
