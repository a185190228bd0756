// Package session identifies the invoking process and the root of its session
package session

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"safekill.dev/internal/dirs"
	"safekill.dev/internal/process"
)

// ErrInvalidRootPID is returned when the root pid override is not a positive integer
var ErrInvalidRootPID = errors.New("invalid root pid")

// Context identifies the caller for one run
type Context struct {
	SelfPID   int `json:"self_pid"`
	ParentPID int `json:"parent_pid"`
	RootPID   int `json:"root_pid"`
	// RootFromEnv is set when RootPID came from the environment override
	RootFromEnv bool `json:"root_from_env,omitempty"`
}

// Options supplies the process identity and environment. Zero values fall
// back to the running process.
type Options struct {
	Getenv    func(string) string
	SelfPID   int
	ParentPID int
}

// Detect resolves the session context against snap.
//
// The root pid is taken from SAFE_KILL_ROOT_PID when set. Otherwise it is
// the parent of the invoking shell (our grandparent), then the shell
// itself, then this process.
func Detect(snap *process.Snapshot, opts Options) (Context, error) {
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	if opts.SelfPID == 0 {
		opts.SelfPID = os.Getpid()
	}
	if opts.ParentPID == 0 {
		opts.ParentPID = os.Getppid()
	}

	ctx := Context{SelfPID: opts.SelfPID, ParentPID: opts.ParentPID}

	if raw := strings.TrimSpace(opts.Getenv(dirs.RootPIDEnv)); raw != "" {
		pid, err := strconv.Atoi(raw)
		if err != nil || pid <= 0 {
			return Context{}, fmt.Errorf("%w: %s=%q", ErrInvalidRootPID, dirs.RootPIDEnv, raw)
		}
		ctx.RootPID = pid
		ctx.RootFromEnv = true
		return ctx, nil
	}

	ctx.RootPID = defaultRoot(snap, opts.SelfPID, opts.ParentPID)
	return ctx, nil
}

func defaultRoot(snap *process.Snapshot, self, parent int) int {
	if parent <= 0 {
		return self
	}
	if r, ok := snap.Lookup(parent); ok && r.HasParent {
		return r.PPID
	}
	return parent
}
