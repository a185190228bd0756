package pipeline

import (
	"context"
	"errors"
	"testing"

	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"safekill.dev/internal/config"
	"safekill.dev/internal/killer"
	"safekill.dev/internal/policy"
	"safekill.dev/internal/process"
	"safekill.dev/internal/session"
	"safekill.dev/internal/target"
)

// The test process tree:
//
//	1 init
//	├── 100 terminal (root)
//	│   └── 200 bash (parent)
//	│       ├── 300 safe-kill (self)
//	│       └── 10 node
//	├── 20 node-root
//	├── 30 nodejs
//	└── 900 postgres :3000 :5432
func testSnapshot() *process.Snapshot {
	return process.NewSnapshot([]process.Record{
		{PID: 1, PPID: 0, Name: "init"},
		{PID: 100, PPID: 1, Name: "terminal"},
		{PID: 200, PPID: 100, Name: "bash"},
		{PID: 300, PPID: 200, Name: "safe-kill"},
		{PID: 10, PPID: 200, Name: "node", Command: "node server.js"},
		{PID: 20, PPID: 1, Name: "node-root"},
		{PID: 30, PPID: 1, Name: "nodejs"},
		{PID: 900, PPID: 1, Name: "postgres"},
	}, []process.PortOwner{{Port: 3000, PID: 900}, {Port: 5432, PID: 900}})
}

type recordingSender struct {
	sent []int
	errs map[int]error
}

func (s *recordingSender) Send(pid int, sig process.Signal) error {
	s.sent = append(s.sent, pid)
	return s.errs[pid]
}

func newRunner(cfg *config.Config, sender killer.Sender) *Runner {
	return &Runner{
		Capture: func(ctx context.Context) (*process.Snapshot, error) {
			return testSnapshot(), nil
		},
		Sender:    sender,
		Config:    cfg,
		Getenv:    func(string) string { return "" },
		SelfPID:   300,
		ParentPID: 200,
	}
}

func TestKillByNameDryRun(t *testing.T) {
	g := NewWithT(t)
	sender := &recordingSender{}
	r := newRunner(&config.Config{Denylist: []string{"node-root"}}, sender)

	report, err := r.Kill(context.Background(), Request{
		Spec:   target.Name("node"),
		Signal: process.DefaultSignal(),
		DryRun: true,
	})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(sender.sent).To(BeEmpty())
	g.Expect(report.Session).To(Equal(session.Context{SelfPID: 300, ParentPID: 200, RootPID: 100}))
	g.Expect(report.Status).To(Equal(killer.StatusSuccess))
	g.Expect(report.RunID).NotTo(BeEmpty())

	type row struct {
		pid    int
		reason policy.Reason
		cause  killer.Cause
	}
	var rows []row
	for _, res := range report.Summary.Results {
		rows = append(rows, row{res.PID, res.Reason, res.Cause})
	}
	g.Expect(rows).To(Equal([]row{
		{10, policy.ReasonDescendant, killer.CauseDryRun},
		{20, policy.ReasonDenylisted, killer.Cause(policy.ReasonDenylisted)},
		{30, policy.ReasonNotDescendant, killer.Cause(policy.ReasonNotDescendant)},
	}))
}

func TestKillByPIDSignalsDescendant(t *testing.T) {
	g := NewWithT(t)
	sender := &recordingSender{}
	r := newRunner(&config.Config{}, sender)

	report, err := r.Kill(context.Background(), Request{Spec: target.PID(10), Signal: process.DefaultSignal()})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(sender.sent).To(Equal([]int{10}))
	g.Expect(report.Status).To(Equal(killer.StatusSuccess))
	g.Expect(report.Summary.Signaled).To(Equal(1))
}

func TestKillSelfIsDenied(t *testing.T) {
	g := NewWithT(t)
	sender := &recordingSender{}
	r := newRunner(&config.Config{}, sender)

	report, err := r.Kill(context.Background(), Request{Spec: target.PID(300), Signal: process.DefaultSignal()})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(sender.sent).To(BeEmpty())
	g.Expect(report.Status).To(Equal(killer.StatusDenied))
	g.Expect(report.Summary.Results[0].Reason).To(Equal(policy.ReasonSelfOrParent))
}

func TestKillUnknownPIDIsNoTarget(t *testing.T) {
	r := newRunner(&config.Config{}, &recordingSender{})

	report, err := r.Kill(context.Background(), Request{Spec: target.PID(4242), Signal: process.DefaultSignal()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Status != killer.StatusNoTarget {
		t.Errorf("expected no target, got %s", report.Status)
	}
}

func TestKillByAllowedPort(t *testing.T) {
	g := NewWithT(t)
	sender := &recordingSender{}
	cfg := &config.Config{
		AllowedPorts:    []config.PortRange{{Start: 3000, End: 3010}},
		PortsConfigured: true,
	}
	r := newRunner(cfg, sender)

	report, err := r.Kill(context.Background(), Request{Spec: target.Port(3000), Signal: process.DefaultSignal()})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(sender.sent).To(Equal([]int{900}))
	g.Expect(report.Summary.Results[0].Reason).To(Equal(policy.ReasonPortAllowed))
	g.Expect(report.Hint).To(BeEmpty())

	// Same owner, port outside the allowed range
	report, err = r.Kill(context.Background(), Request{Spec: target.Port(5432), Signal: process.DefaultSignal()})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(report.Status).To(Equal(killer.StatusDenied))
	g.Expect(report.Hint).To(ContainSubstring("5432"))
	g.Expect(report.Hint).To(ContainSubstring("currently allowed: 3000-3010"))
}

func TestKillByPortDisabledWithoutTable(t *testing.T) {
	g := NewWithT(t)
	sender := &recordingSender{}
	r := newRunner(&config.Config{}, sender)

	report, err := r.Kill(context.Background(), Request{Spec: target.Port(3000), Signal: process.DefaultSignal()})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(sender.sent).To(BeEmpty())
	g.Expect(report.Status).To(Equal(killer.StatusNoTarget))
	g.Expect(report.Hint).To(ContainSubstring("[allowed_ports]"))
}

func TestKillPermissionDenied(t *testing.T) {
	sender := &recordingSender{errs: map[int]error{10: process.ErrPermissionDenied}}
	r := newRunner(&config.Config{}, sender)

	report, err := r.Kill(context.Background(), Request{Spec: target.Name("node"), Signal: process.DefaultSignal()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Status != killer.StatusPermissionDenied {
		t.Errorf("expected permission denied, got %s", report.Status)
	}
}

func TestKillInvalidSpec(t *testing.T) {
	r := newRunner(&config.Config{}, &recordingSender{})
	captured := false
	r.Capture = func(ctx context.Context) (*process.Snapshot, error) {
		captured = true
		return testSnapshot(), nil
	}

	if _, err := r.Kill(context.Background(), Request{Spec: target.Name(""), Signal: process.DefaultSignal()}); err == nil {
		t.Fatal("expected error for empty name")
	}
	if captured {
		t.Error("snapshot must not be taken for an invalid target")
	}
}

func TestEnvironmentErrors(t *testing.T) {
	t.Run("capture failure", func(t *testing.T) {
		r := newRunner(&config.Config{}, &recordingSender{})
		r.Capture = func(ctx context.Context) (*process.Snapshot, error) {
			return nil, process.ErrUnsupportedPlatform
		}

		_, err := r.Kill(context.Background(), Request{Spec: target.PID(10), Signal: process.DefaultSignal()})
		if !errors.Is(err, ErrEnvironment) || !errors.Is(err, process.ErrUnsupportedPlatform) {
			t.Errorf("expected wrapped environment error, got %v", err)
		}
	})

	t.Run("bad root override", func(t *testing.T) {
		r := newRunner(&config.Config{}, &recordingSender{})
		r.Getenv = func(key string) string {
			if key == "SAFE_KILL_ROOT_PID" {
				return "not-a-pid"
			}
			return ""
		}

		_, err := r.List(context.Background())
		if !errors.Is(err, ErrEnvironment) || !errors.Is(err, session.ErrInvalidRootPID) {
			t.Errorf("expected wrapped root pid error, got %v", err)
		}
	})
}

func TestRootOverrideWidensSession(t *testing.T) {
	sender := &recordingSender{}
	r := newRunner(&config.Config{}, sender)
	r.Getenv = func(key string) string {
		if key == "SAFE_KILL_ROOT_PID" {
			return "1"
		}
		return ""
	}

	report, err := r.Kill(context.Background(), Request{Spec: target.PID(30), Signal: process.DefaultSignal()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Status != killer.StatusSuccess || len(sender.sent) != 1 {
		t.Errorf("expected pid 30 signaled under root 1, got %s %v", report.Status, sender.sent)
	}
}

func TestList(t *testing.T) {
	g := NewWithT(t)
	r := newRunner(&config.Config{Allowlist: []string{"postgres"}}, &recordingSender{})

	listing, err := r.List(context.Background())
	g.Expect(err).NotTo(HaveOccurred())

	got := map[int]Entry{}
	for _, e := range listing.Entries {
		got[e.PID] = e
	}
	g.Expect(got).To(HaveLen(5))
	g.Expect(got[100].Reason).To(Equal(policy.ReasonDescendant))
	g.Expect(got[100].Descendant).To(BeTrue())
	g.Expect(got[200].Reason).To(Equal(policy.ReasonSelfOrParent))
	g.Expect(got[300].Reason).To(Equal(policy.ReasonSelfOrParent))
	g.Expect(got[10].Killable()).To(BeTrue())
	g.Expect(got[10].Descendant).To(BeTrue())
	g.Expect(got[10].Command).To(Equal("node server.js"))
	g.Expect(got[900].Reason).To(Equal(policy.ReasonAllowlisted))
	g.Expect(got[900].Descendant).To(BeFalse())
	g.Expect(listing.Entries[0].PID).To(Equal(10))
}

func TestLogsCarryRunID(t *testing.T) {
	g := NewWithT(t)
	core, recorded := observer.New(zapcore.DebugLevel)
	r := newRunner(&config.Config{}, &recordingSender{errs: map[int]error{10: process.ErrNoSuchProcess}})
	r.Logger = zap.New(core).Sugar()

	report, err := r.Kill(context.Background(), Request{Spec: target.Name("node"), Signal: process.DefaultSignal()})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(report.Status).To(Equal(killer.StatusNoTarget))

	g.Expect(recorded.FilterMessage("verdict").Len()).To(Equal(3))
	g.Expect(recorded.FilterMessage("signal failed").Len()).To(Equal(1))
	for _, entry := range recorded.All() {
		g.Expect(entry.ContextMap()).To(HaveKeyWithValue("run_id", report.RunID))
	}
}
