//go:build !windows

package render

import (
	"os"
	"syscall"
)

// sessionAttr returns SysProcAttr that places the subprocess in its own
// session, so stopping a render signals the whole process group without
// touching the parent's controlling terminal.
func sessionAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}

// terminate sends SIGTERM to the render's process group.
func terminate(p *os.Process) error {
	return syscall.Kill(-p.Pid, syscall.SIGTERM)
}
