//go:build !windows

package mpv

import (
	"os/exec"
	"syscall"
)

// mpv runs in its own process group so a terminal ^C reaches the TUI only.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

func signalGroup(cmd *exec.Cmd, sig syscall.Signal) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return syscall.Kill(-cmd.Process.Pid, sig)
}

// interruptProcess asks mpv and its helpers to exit.
func interruptProcess(cmd *exec.Cmd) error {
	return signalGroup(cmd, syscall.SIGTERM)
}

func killProcess(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	_ = signalGroup(cmd, syscall.SIGKILL)
	return cmd.Process.Kill()
}
