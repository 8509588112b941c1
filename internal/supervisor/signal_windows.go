//go:build windows

package supervisor

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// configureSysProcAttr starts the child in its own process group to make
// termination more reliable.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

// signalProcess sends an interrupt for a graceful stop and terminates the
// process outright otherwise. There is no group signaling on Windows; only
// the direct child is reached.
func signalProcess(cmd *exec.Cmd, graceful bool) error {
	var err error
	if graceful {
		err = cmd.Process.Signal(os.Interrupt)
	} else {
		err = cmd.Process.Kill()
	}
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}
