//go:build !darwin

package control

import "syscall"

// setReuseAddr is a no-op outside darwin; Beam has no other platform
// backend in this pass, so there is no socket-option API to call here.
func setReuseAddr(network, address string, c syscall.RawConn) error {
	return nil
}
