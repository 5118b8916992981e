//go:build unix

package bridge

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// exitStatus returns the exit code and signal name of a finished process.
// The code is -1 when a signal ended it.
func exitStatus(ps *os.ProcessState) (int, string) {
	if ps == nil {
		return -1, ""
	}
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return -1, unix.SignalName(ws.Signal())
	}
	return ps.ExitCode(), ""
}
