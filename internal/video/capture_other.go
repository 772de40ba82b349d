//go:build !darwin

package video

func newPlatformCapture(pid int, titleFilter string) (Capture, error) {
	return nil, ErrCaptureNotSupported
}
