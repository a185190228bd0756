//go:build unix

package process

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

var supportedSignals = []Signal{
	{"HUP", int(unix.SIGHUP)},
	{"INT", int(unix.SIGINT)},
	{"QUIT", int(unix.SIGQUIT)},
	{"KILL", int(unix.SIGKILL)},
	{"TERM", int(unix.SIGTERM)},
	{"USR1", int(unix.SIGUSR1)},
	{"USR2", int(unix.SIGUSR2)},
}

// Send delivers sig to a single process.
//
// pid must be positive: kill(2) treats 0 and negative values as process
// groups or "every process", which is never what a caller here means.
func Send(pid int, sig Signal) error {
	if pid <= 0 {
		return fmt.Errorf("refusing to signal pid %d", pid)
	}

	err := unix.Kill(pid, unix.Signal(sig.Number))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.ESRCH):
		return fmt.Errorf("failed to signal process %d: %w", pid, ErrNoSuchProcess)
	case errors.Is(err, unix.EPERM):
		return fmt.Errorf("failed to signal process %d: %w", pid, ErrPermissionDenied)
	default:
		return fmt.Errorf("failed to signal process %d: %w", pid, err)
	}
}
