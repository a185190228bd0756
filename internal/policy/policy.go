// Package policy decides whether a candidate process may be signaled.
//
// Rules are applied in order and the first match wins:
//
//  1. the caller itself and its parent are never killed
//  2. denylisted names are never killed
//  3. in port mode, the owner of an allowed port may be killed
//  4. allowlisted names may be killed
//  5. otherwise only descendants of the session root may be killed
//
// Evaluation only reads the snapshot it was given.
package policy

import (
	"safekill.dev/internal/ancestry"
	"safekill.dev/internal/config"
	"safekill.dev/internal/process"
	"safekill.dev/internal/session"
	"safekill.dev/internal/target"
)

// Decision is the outcome of evaluating one pid
type Decision string

const (
	Allow Decision = "allow"
	Deny  Decision = "deny"
)

// Reason names the rule that produced a decision
type Reason string

const (
	ReasonSelfOrParent  Reason = "self_or_parent"
	ReasonDenylisted    Reason = "denylisted"
	ReasonPortAllowed   Reason = "port_allowed"
	ReasonAllowlisted   Reason = "allowlisted"
	ReasonDescendant    Reason = "descendant"
	ReasonNotDescendant Reason = "not_descendant"
)

// Describe returns a short human readable explanation
func (r Reason) Describe() string {
	switch r {
	case ReasonSelfOrParent:
		return "refusing to kill self or parent process"
	case ReasonDenylisted:
		return "process is in denylist"
	case ReasonPortAllowed:
		return "port is in allowed_ports"
	case ReasonAllowlisted:
		return "process is in allowlist"
	case ReasonDescendant:
		return "descendant of session root"
	case ReasonNotDescendant:
		return "not a descendant of session root"
	default:
		return string(r)
	}
}

// Verdict is the decision for a single pid
type Verdict struct {
	PID      int      `json:"pid"`
	Name     string   `json:"name"`
	Decision Decision `json:"decision"`
	Reason   Reason   `json:"reason"`
}

// Allowed reports whether the verdict permits signaling
func (v Verdict) Allowed() bool {
	return v.Decision == Allow
}

// Engine evaluates candidates against one snapshot, session and configuration
type Engine struct {
	Snapshot *process.Snapshot
	Tree     *ancestry.Tree
	Session  session.Context
	Config   *config.Config
}

// NewEngine builds an engine, indexing the snapshot's ancestry
func NewEngine(snap *process.Snapshot, sess session.Context, cfg *config.Config) *Engine {
	return &Engine{
		Snapshot: snap,
		Tree:     ancestry.New(snap),
		Session:  sess,
		Config:   cfg,
	}
}

// Evaluate decides whether pid may be signaled for spec.
// ok is false when pid is not in the snapshot; no verdict exists for it.
func (e *Engine) Evaluate(pid int, spec target.Spec) (Verdict, bool) {
	rec, ok := e.Snapshot.Lookup(pid)
	if !ok {
		return Verdict{}, false
	}

	v := Verdict{PID: pid, Name: rec.Name}
	decide := func(d Decision, r Reason) (Verdict, bool) {
		v.Decision = d
		v.Reason = r
		return v, true
	}

	if pid == e.Session.SelfPID || pid == e.Session.ParentPID {
		return decide(Deny, ReasonSelfOrParent)
	}

	if e.Config.IsDenied(rec.Name) {
		return decide(Deny, ReasonDenylisted)
	}

	if spec.Kind == target.ByPort {
		if owner, ok := e.Snapshot.Owner(spec.Port); ok && owner == pid && e.Config.PortAllowed(spec.Port) {
			return decide(Allow, ReasonPortAllowed)
		}
	}

	if e.Config.IsAllowed(rec.Name) {
		return decide(Allow, ReasonAllowlisted)
	}

	if e.Tree.IsDescendant(pid, e.Session.RootPID) {
		return decide(Allow, ReasonDescendant)
	}
	return decide(Deny, ReasonNotDescendant)
}

// EvaluateAll evaluates pids in order, skipping any absent from the snapshot
func (e *Engine) EvaluateAll(pids []int, spec target.Spec) []Verdict {
	verdicts := make([]Verdict, 0, len(pids))
	for _, pid := range pids {
		if v, ok := e.Evaluate(pid, spec); ok {
			verdicts = append(verdicts, v)
		}
	}
	return verdicts
}
