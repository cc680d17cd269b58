//go:build !windows

package adapter

import (
	"os"
	"syscall"
)

// sessionAttr puts the spawned process in its own process group so a forced
// kill can take the whole tree down, launcher scripts included.
func sessionAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// killTree force-terminates the process group rooted at pid.
func killTree(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}

// processAlive reports whether a pid refers to a live process. Signal 0
// performs the permission and existence checks without delivering anything.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
