// Package killer applies policy verdicts by delivering signals
package killer

import (
	"errors"

	"safekill.dev/internal/policy"
	"safekill.dev/internal/process"
)

// Sender delivers a signal to a single pid
type Sender interface {
	Send(pid int, sig process.Signal) error
}

// SenderFunc adapts a function to Sender
type SenderFunc func(pid int, sig process.Signal) error

// Send calls f
func (f SenderFunc) Send(pid int, sig process.Signal) error {
	return f(pid, sig)
}

// OSSender signals real processes
var OSSender Sender = SenderFunc(process.Send)

// Executor handles signal delivery for evaluated candidates
type Executor struct {
	Sender Sender
}

// NewExecutor creates an executor that signals through sender
func NewExecutor(sender Sender) *Executor {
	return &Executor{Sender: sender}
}

// Apply processes verdicts in order. Denied candidates are never signaled
// and a failure on one candidate never stops the rest.
func (e *Executor) Apply(verdicts []policy.Verdict, sig process.Signal, dryRun bool) *Summary {
	summary := &Summary{Results: make([]Result, 0, len(verdicts))}

	for _, v := range verdicts {
		r := Result{PID: v.PID, Name: v.Name, Decision: v.Decision, Reason: v.Reason}

		switch {
		case !v.Allowed():
			r.Outcome = Skipped
			r.Cause = Cause(v.Reason)
		case dryRun:
			r.Outcome = Skipped
			r.Cause = CauseDryRun
		default:
			if err := e.Sender.Send(v.PID, sig); err != nil {
				r.Outcome = Failed
				r.Cause = classify(err)
				r.Error = err.Error()
			} else {
				r.Outcome = Signaled
			}
		}

		summary.add(r)
	}

	return summary
}

func classify(err error) Cause {
	switch {
	case errors.Is(err, process.ErrNoSuchProcess):
		return CauseNoSuchProcess
	case errors.Is(err, process.ErrPermissionDenied):
		return CausePermissionDenied
	default:
		return CauseError
	}
}
