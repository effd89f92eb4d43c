//go:build unix

package predictor

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// isolateProcessGroup runs the command in its own process group and kills the
// whole group on cancellation. Model scripts may spawn helpers that inherit
// the output pipes; killing only the direct child would leave them running
// and keep Run blocked on the pipes past the deadline.
func isolateProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
}
