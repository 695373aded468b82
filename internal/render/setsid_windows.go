//go:build windows

package render

import (
	"os"
	"syscall"
)

// sessionAttr is a no-op on Windows; process groups are handled by kill.
func sessionAttr() *syscall.SysProcAttr {
	return nil
}

// terminate kills the render process directly.
func terminate(p *os.Process) error {
	return p.Kill()
}
