//go:build darwin

package cursorvis

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices

#include <ApplicationServices/ApplicationServices.h>

// CGCursorIsVisible is a long-standing private CoreGraphics symbol (no
// public header) that screen-sharing tools resolve via weak-linking; it
// reports the system-wide cursor visibility count maintained by the
// WindowServer.
extern bool CGCursorIsVisible(void);

static int beamCursorVisible(void) {
	return CGCursorIsVisible() ? 1 : 0;
}

static void beamForceCursorVisible(void) {
	// CGDisplayShowCursor balances exactly one outstanding
	// CGDisplayHideCursor; called on a cursor that is already visible it
	// is a harmless no-op.
	CGDisplayShowCursor(kCGDirectMainDisplay);
}
*/
import "C"

type darwinChecker struct{}

// New returns the darwin cursor-visibility checker.
func New() (Checker, error) {
	return darwinChecker{}, nil
}

func (darwinChecker) IsVisible() (bool, error) {
	return C.beamCursorVisible() != 0, nil
}

func (darwinChecker) ForceVisible() error {
	C.beamForceCursorVisible()
	return nil
}
