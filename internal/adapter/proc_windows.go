//go:build windows

package adapter

import (
	"os/exec"
	"strconv"
	"strings"
	"syscall"
)

func sessionAttr() *syscall.SysProcAttr {
	return nil
}

// killTree force-terminates pid and its descendants via taskkill.
func killTree(pid int) error {
	return exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(pid)).Run()
}

// processAlive queries the process table for pid. Windows has no signal 0
// equivalent, so tasklist output is the liveness source.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	output, err := exec.Command("tasklist", "/FI", "PID eq "+strconv.Itoa(pid), "/NH", "/FO", "CSV").Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(output), "\""+strconv.Itoa(pid)+"\"")
}
