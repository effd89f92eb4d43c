//go:build !unix

package predictor

import "os/exec"

// isolateProcessGroup is a no-op where process groups are unavailable;
// cancellation kills the direct child only.
func isolateProcessGroup(cmd *exec.Cmd) {}
