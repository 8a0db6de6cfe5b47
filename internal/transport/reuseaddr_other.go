//go:build !unix

package transport

import "syscall"

// controlReuseAddr is a no-op on platforms without SO_REUSEADDR support
// through golang.org/x/sys/unix (e.g. Windows, where net already rebinds
// cleanly without it).
func controlReuseAddr(network, address string, c syscall.RawConn) error {
	return nil
}
