//go:build !darwin

package input

import "errors"

// ErrNotSupported is returned by platforms without an input backend.
var ErrNotSupported = errors.New("input: not supported on this platform")

type unsupportedBackend struct{}

// NewBackend returns the platform capture observer.
func NewBackend() Backend { return unsupportedBackend{} }

func (unsupportedBackend) Start(*Capture) error { return ErrNotSupported }
func (unsupportedBackend) Stop() error          { return nil }

type unsupportedOS struct{}

// NewOSInjector returns the platform delivery backend.
func NewOSInjector() OSInjector { return unsupportedOS{} }

func (unsupportedOS) AXPress(int, float64, float64) (bool, error)  { return false, ErrNotSupported }
func (unsupportedOS) PostMouseButton(int, float64, float64, string, bool) error {
	return ErrNotSupported
}
func (unsupportedOS) PostMouseMove(int, float64, float64, float64, float64, bool) error {
	return ErrNotSupported
}
func (unsupportedOS) PostKey(int, int, Modifiers, bool) error  { return ErrNotSupported }
func (unsupportedOS) PostUnicodeText(int, string) error        { return ErrNotSupported }
func (unsupportedOS) ScrollAX(int, float64) (bool, error)       { return false, ErrNotSupported }
func (unsupportedOS) WarpCursor(float64, float64) (func(), error) {
	return nil, ErrNotSupported
}
func (unsupportedOS) ActivateTarget(int) error { return ErrNotSupported }
