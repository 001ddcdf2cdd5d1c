//go:build unix

package plugin

import (
	"os/exec"
	"syscall"
)

// killProcessGroup runs the plugin in its own process group and kills the
// whole group on cancellation, so children started by a shell script die
// with it.
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
