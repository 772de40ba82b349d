//go:build !darwin

package windowhider

type unsupportedPlatform struct{}

// NewPlatform returns a Platform that always reports ErrNotSupported,
// matching §9's "On platforms without this, WindowHider returns a 'not
// supported' error and the session continues unhidden."
func NewPlatform() Platform { return unsupportedPlatform{} }

func (unsupportedPlatform) MainDisplayBounds() (int, int, int, int, error) {
	return 0, 0, 0, 0, ErrNotSupported
}

func (unsupportedPlatform) CreateVirtualDisplay(x, y, width, height int) (VirtualDisplay, error) {
	return nil, ErrNotSupported
}

func (unsupportedPlatform) FindWindow(pid int, titleFilter string) (WindowHandle, error) {
	return nil, ErrNotSupported
}

func (unsupportedPlatform) WindowBounds(h WindowHandle) (int, int, int, int, error) {
	return 0, 0, 0, 0, ErrNotSupported
}

func (unsupportedPlatform) MoveWindow(h WindowHandle, x, y int) error { return ErrNotSupported }
func (unsupportedPlatform) RaiseWindow(h WindowHandle) error         { return ErrNotSupported }
