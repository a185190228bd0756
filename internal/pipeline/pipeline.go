// Package pipeline runs one snapshot, resolve, evaluate, execute cycle
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"

	"safekill.dev/internal/ancestry"
	"safekill.dev/internal/config"
	"safekill.dev/internal/killer"
	"safekill.dev/internal/logs"
	"safekill.dev/internal/policy"
	"safekill.dev/internal/process"
	"safekill.dev/internal/session"
	"safekill.dev/internal/target"
)

// ErrEnvironment wraps failures to establish the run: the process table
// could not be read or the session root is misconfigured
var ErrEnvironment = errors.New("cannot establish run environment")

// Request describes one kill invocation
type Request struct {
	Spec   target.Spec
	Signal process.Signal
	DryRun bool
}

// Report is the full account of one kill invocation
type Report struct {
	RunID      string          `json:"run_id"`
	Spec       target.Spec     `json:"target"`
	Signal     process.Signal  `json:"signal"`
	DryRun     bool            `json:"dry_run"`
	Session    session.Context `json:"session"`
	Summary    *killer.Summary `json:"summary"`
	Status     killer.Status   `json:"status"`
	Hint       string          `json:"hint,omitempty"`
	CapturedAt time.Time       `json:"captured_at"`
}

// Entry is one row of a session listing
type Entry struct {
	PID        int             `json:"pid"`
	PPID       int             `json:"ppid,omitempty"`
	Name       string          `json:"name"`
	Command    string          `json:"command,omitempty"`
	Descendant bool            `json:"descendant"`
	Decision   policy.Decision `json:"decision"`
	Reason     policy.Reason   `json:"reason"`
}

// Killable reports whether the entry would be signaled by pid
func (e Entry) Killable() bool {
	return e.Decision == policy.Allow
}

// Listing is the set of processes the caller can see and act on
type Listing struct {
	RunID      string          `json:"run_id"`
	Session    session.Context `json:"session"`
	Entries    []Entry         `json:"entries"`
	CapturedAt time.Time       `json:"captured_at"`
}

// Runner wires the pipeline stages together. Zero-valued fields fall back
// to the live system.
type Runner struct {
	Capture   func(ctx context.Context) (*process.Snapshot, error)
	Sender    killer.Sender
	Config    *config.Config
	Logger    *zap.SugaredLogger
	Getenv    func(string) string
	SelfPID   int
	ParentPID int
}

// Kill resolves the request's target, evaluates each candidate and signals
// the allowed ones. Policy denials and per-pid failures are part of the
// report, not errors.
func (r *Runner) Kill(ctx context.Context, req Request) (*Report, error) {
	if err := req.Spec.Validate(); err != nil {
		return nil, err
	}

	runID := logs.NewRunID()
	log := r.logger().With("run_id", runID)

	snap, sess, err := r.prepare(ctx, log)
	if err != nil {
		return nil, err
	}

	cfg := r.config()
	pids := target.Resolver{PortsEnabled: cfg.PortsConfigured}.Resolve(req.Spec, snap)
	log.Debugw("resolved target", "target", req.Spec.String(), "candidates", pids)

	engine := policy.NewEngine(snap, sess, cfg)
	verdicts := engine.EvaluateAll(pids, req.Spec)
	for _, v := range verdicts {
		log.Debugw("verdict",
			"pid", v.PID,
			"name", v.Name,
			"decision", v.Decision,
			"reason", v.Reason,
			"ancestry", engine.Tree.Chain(v.PID),
		)
	}

	summary := killer.NewExecutor(r.sender()).Apply(verdicts, req.Signal, req.DryRun)
	for _, res := range summary.Results {
		if res.Outcome == killer.Failed {
			log.Warnw("signal failed", "pid", res.PID, "name", res.Name, "cause", res.Cause, "error", res.Error)
			continue
		}
		log.Debugw("outcome", "pid", res.PID, "name", res.Name, "outcome", res.Outcome, "cause", res.Cause)
	}

	report := &Report{
		RunID:      runID,
		Spec:       req.Spec,
		Signal:     req.Signal,
		DryRun:     req.DryRun,
		Session:    sess,
		Summary:    summary,
		Status:     summary.Status(),
		CapturedAt: snap.CapturedAt,
	}
	if req.Spec.Kind == target.ByPort && !cfg.PortAllowed(req.Spec.Port) {
		report.Hint = cfg.PortHint(req.Spec.Port)
	}

	log.Debugw("run complete", "status", report.Status, "signaled", summary.Signaled, "skipped", summary.Skipped, "failed", summary.Failed)
	return report, nil
}

// List returns every descendant of the session root plus any other process
// the policy would allow, each annotated with its verdict. It never signals.
func (r *Runner) List(ctx context.Context) (*Listing, error) {
	runID := logs.NewRunID()
	log := r.logger().With("run_id", runID)

	snap, sess, err := r.prepare(ctx, log)
	if err != nil {
		return nil, err
	}

	engine := policy.NewEngine(snap, sess, r.config())
	descendants := make(map[int]bool)
	for _, pid := range engine.Tree.DescendantsOf(sess.RootPID) {
		descendants[pid] = true
	}

	listing := &Listing{RunID: runID, Session: sess, CapturedAt: snap.CapturedAt}
	for _, rec := range snap.Records() {
		v, ok := engine.Evaluate(rec.PID, target.PID(rec.PID))
		if !ok {
			continue
		}
		if !descendants[rec.PID] && !v.Allowed() {
			continue
		}
		listing.Entries = append(listing.Entries, Entry{
			PID:        rec.PID,
			PPID:       rec.PPID,
			Name:       rec.Name,
			Command:    rec.Command,
			Descendant: descendants[rec.PID],
			Decision:   v.Decision,
			Reason:     v.Reason,
		})
	}
	sort.Slice(listing.Entries, func(i, j int) bool { return listing.Entries[i].PID < listing.Entries[j].PID })

	log.Debugw("listed session", "root", sess.RootPID, "entries", len(listing.Entries))
	return listing, nil
}

// prepare captures the snapshot and detects the session
func (r *Runner) prepare(ctx context.Context, log *zap.SugaredLogger) (*process.Snapshot, session.Context, error) {
	capture := r.Capture
	if capture == nil {
		capture = process.Capture
	}

	snap, err := capture(ctx)
	if err != nil {
		return nil, session.Context{}, fmt.Errorf("%w: %w", ErrEnvironment, err)
	}
	log.Debugw("captured snapshot", "processes", snap.Len())

	sess, err := session.Detect(snap, session.Options{
		Getenv:    r.getenv(),
		SelfPID:   r.SelfPID,
		ParentPID: r.ParentPID,
	})
	if err != nil {
		return nil, session.Context{}, fmt.Errorf("%w: %w", ErrEnvironment, err)
	}
	log.Debugw("session",
		"self", sess.SelfPID,
		"parent", sess.ParentPID,
		"root", sess.RootPID,
		"root_from_env", sess.RootFromEnv,
		"root_ancestry", ancestry.New(snap).Chain(sess.RootPID),
	)
	return snap, sess, nil
}

func (r *Runner) logger() *zap.SugaredLogger {
	if r.Logger == nil {
		return logs.Nop()
	}
	return r.Logger
}

func (r *Runner) config() *config.Config {
	if r.Config == nil {
		return config.Default()
	}
	return r.Config
}

func (r *Runner) sender() killer.Sender {
	if r.Sender == nil {
		return killer.OSSender
	}
	return r.Sender
}

func (r *Runner) getenv() func(string) string {
	if r.Getenv == nil {
		return os.Getenv
	}
	return r.Getenv
}
