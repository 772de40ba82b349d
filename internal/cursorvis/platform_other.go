//go:build !darwin

package cursorvis

// New reports ErrNotSupported; callers fall back to no cursor poll.
func New() (Checker, error) {
	return nil, ErrNotSupported
}
