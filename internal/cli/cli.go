package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"safekill.dev/internal/config"
	"safekill.dev/internal/killer"
	"safekill.dev/internal/pipeline"
	"safekill.dev/internal/process"
	"safekill.dev/internal/session"
)

// Exit codes
const (
	ExitSuccess          = 0
	ExitNoTarget         = 1
	ExitPermissionDenied = 2
	ExitConfigError      = 3
	ExitGeneralError     = 255
)

// exitError carries a process exit code out of a cobra RunE
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// usageError marks invalid flag combinations and arguments
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func newUsageError(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// app holds the streams and hooks a command run uses. Tests replace them.
type app struct {
	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader
	getenv func(string) string

	// color enables styled output; interactive allows prompts
	color       bool
	interactive bool

	// Pipeline hooks; nil means the live system
	capture   func(ctx context.Context) (*process.Snapshot, error)
	sender    killer.Sender
	selfPID   int
	parentPID int
}

func newApp() *app {
	return &app{
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		stdin:       os.Stdin,
		getenv:      os.Getenv,
		color:       isTerminal(os.Stdout),
		interactive: isTerminal(os.Stdin),
	}
}

// isTerminal returns true if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Execute runs the CLI with args (without the program name) and returns the exit code.
func Execute(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newApp().run(ctx, args)
}

func (a *app) run(ctx context.Context, args []string) int {
	root := a.newRootCmd()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(a.stderr, "safe-kill: %v\n", ee.err)
		}
		return ee.code
	}

	fmt.Fprintf(a.stderr, "safe-kill: %v\n", err)
	return exitCodeForError(err)
}

// exitCodeForError classifies errors that stop a run before any signal is sent
func exitCodeForError(err error) int {
	var cfgErr *config.Error
	switch {
	case errors.As(err, &cfgErr),
		errors.Is(err, pipeline.ErrEnvironment),
		errors.Is(err, process.ErrUnsupportedPlatform),
		errors.Is(err, session.ErrInvalidRootPID):
		return ExitConfigError
	default:
		return ExitGeneralError
	}
}

// exitCodeForStatus maps a finished run to its exit code
func exitCodeForStatus(status killer.Status) int {
	switch status {
	case killer.StatusSuccess:
		return ExitSuccess
	case killer.StatusNoTarget:
		return ExitNoTarget
	case killer.StatusPermissionDenied:
		return ExitPermissionDenied
	default:
		return ExitGeneralError
	}
}
