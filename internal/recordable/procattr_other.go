//go:build !unix

package recordable

import "os/exec"

// setProcessGroup is a no-op where process groups are not available;
// exec.CommandContext still kills the direct child on cancellation.
func setProcessGroup(cmd *exec.Cmd) {}
