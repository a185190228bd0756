package killer

import (
	"safekill.dev/internal/policy"
)

// Outcome is what happened to one candidate
type Outcome string

const (
	Signaled Outcome = "signaled"
	Skipped  Outcome = "skipped"
	Failed   Outcome = "failed"
)

// Cause qualifies skipped and failed outcomes
type Cause string

const (
	CauseDryRun           Cause = "dry_run"
	CauseNoSuchProcess    Cause = "no_such_process"
	CausePermissionDenied Cause = "permission_denied"
	CauseError            Cause = "error"
)

// Result represents the result of applying one verdict
type Result struct {
	PID      int             `json:"pid"`
	Name     string          `json:"name"`
	Decision policy.Decision `json:"decision"`
	Reason   policy.Reason   `json:"reason"`
	Outcome  Outcome         `json:"outcome"`
	// Cause is the policy reason for denied candidates, dry_run, or the failure class
	Cause Cause  `json:"cause,omitempty"`
	Error string `json:"error,omitempty"`
}

// WouldSignal reports whether the candidate was, or in a dry run would have been, signaled
func (r Result) WouldSignal() bool {
	return r.Outcome == Signaled || (r.Outcome == Skipped && r.Cause == CauseDryRun)
}

// Status is the overall classification of a run
type Status string

const (
	StatusSuccess          Status = "success"
	StatusNoTarget         Status = "no_target"
	StatusPermissionDenied Status = "permission_denied"
	StatusDenied           Status = "denied"
	StatusFailed           Status = "failed"
)

// Summary aggregates the results of a run in candidate order
type Summary struct {
	Results  []Result `json:"results"`
	Signaled int      `json:"signaled"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
}

func (s *Summary) add(r Result) {
	s.Results = append(s.Results, r)
	switch r.Outcome {
	case Signaled:
		s.Signaled++
	case Skipped:
		s.Skipped++
	case Failed:
		s.Failed++
	}
}

// Status classifies the run.
//
// A permission failure on any candidate outranks success on others. A run
// with no candidates, or whose allowed candidates all exited before they
// could be signaled, found no target.
func (s *Summary) Status() Status {
	if len(s.Results) == 0 {
		return StatusNoTarget
	}

	var allowed, wouldSignal, vanished, permission int
	for _, r := range s.Results {
		if r.Decision == policy.Allow {
			allowed++
		}
		if r.WouldSignal() {
			wouldSignal++
		}
		switch r.Cause {
		case CauseNoSuchProcess:
			vanished++
		case CausePermissionDenied:
			permission++
		}
	}

	switch {
	case permission > 0:
		return StatusPermissionDenied
	case wouldSignal > 0:
		return StatusSuccess
	case allowed == 0:
		return StatusDenied
	case vanished == allowed:
		return StatusNoTarget
	default:
		return StatusFailed
	}
}
