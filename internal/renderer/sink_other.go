//go:build !darwin

package renderer

func newPlatformSink(windowTitle string) (Sink, error) {
	return nil, ErrSinkNotSupported
}
