//go:build darwin

package control

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// setReuseAddr is the net.ListenConfig.Control hook that sets SO_REUSEADDR
// on the listening socket before bind, matching the teacher's use of
// golang.org/x/sys for raw socket option tuning.
func setReuseAddr(network, address string, c syscall.RawConn) error {
	var setErr error
	err := c.Control(func(fd uintptr) {
		setErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return setErr
}
