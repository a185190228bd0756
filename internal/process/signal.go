package process

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidSignal is returned for unknown signal names or numbers
	ErrInvalidSignal = errors.New("invalid signal")
	// ErrNoSuchProcess means the target exited before the signal was sent
	ErrNoSuchProcess = errors.New("no such process")
	// ErrPermissionDenied means the OS refused to deliver the signal
	ErrPermissionDenied = errors.New("permission denied")
)

// userSignalNumbers maps both the Linux and BSD numbering of the user
// signals to a name, so scripts written for either platform parse anywhere.
var userSignalNumbers = map[int]string{
	10: "USR1",
	30: "USR1",
	12: "USR2",
	31: "USR2",
}

// Signal is a supported signal by short name (without the SIG prefix) and platform number
type Signal struct {
	Name   string `json:"name"`
	Number int    `json:"number"`
}

func (s Signal) String() string {
	return "SIG" + s.Name
}

// ParseSignal accepts "TERM", "SIGTERM", "sigterm" or a number such as "15".
// Only the signals in Signals are accepted.
func ParseSignal(raw string) (Signal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Signal{}, fmt.Errorf("%w: empty signal", ErrInvalidSignal)
	}

	if n, err := strconv.Atoi(s); err == nil {
		for _, sig := range supportedSignals {
			if sig.Number == n {
				return sig, nil
			}
		}
		if sig, ok := lookupSignal(userSignalNumbers[n]); ok {
			return sig, nil
		}
		return Signal{}, fmt.Errorf("%w: unsupported signal number %d (supported: %s)", ErrInvalidSignal, n, signalNames())
	}

	if sig, ok := lookupSignal(strings.TrimPrefix(strings.ToUpper(s), "SIG")); ok {
		return sig, nil
	}
	return Signal{}, fmt.Errorf("%w: unknown signal %q (supported: %s)", ErrInvalidSignal, raw, signalNames())
}

func lookupSignal(name string) (Signal, bool) {
	for _, sig := range supportedSignals {
		if sig.Name == name {
			return sig, true
		}
	}
	return Signal{}, false
}

// signalNames lists the supported names for error messages
func signalNames() string {
	names := make([]string, 0, len(supportedSignals))
	for _, sig := range Signals() {
		names = append(names, sig.Name)
	}
	return strings.Join(names, ", ")
}

// DefaultSignal returns SIGTERM
func DefaultSignal() Signal {
	sig, _ := ParseSignal("TERM")
	return sig
}

// Signals lists the supported signals
func Signals() []Signal {
	out := make([]Signal, len(supportedSignals))
	copy(out, supportedSignals)
	return out
}
