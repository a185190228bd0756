package session

import (
	"errors"
	"testing"

	"safekill.dev/internal/process"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestDetect(t *testing.T) {
	snap := process.NewSnapshot([]process.Record{
		{PID: 1, PPID: 0, Name: "init"},
		{PID: 100, PPID: 1, Name: "terminal"},
		{PID: 200, PPID: 100, Name: "bash"},
		{PID: 300, PPID: 200, Name: "safe-kill"},
		{PID: 500, PPID: 0, Name: "orphan-shell"},
		{PID: 600, PPID: 500, Name: "safe-kill"},
	}, nil)

	tests := []struct {
		name     string
		env      map[string]string
		self     int
		parent   int
		wantRoot int
		fromEnv  bool
	}{
		{"grandparent", nil, 300, 200, 100, false},
		{"parent without parent", nil, 600, 500, 500, false},
		{"parent missing from snapshot", nil, 700, 650, 650, false},
		{"env override", map[string]string{"SAFE_KILL_ROOT_PID": "1"}, 300, 200, 1, true},
		{"env override with spaces", map[string]string{"SAFE_KILL_ROOT_PID": " 42 "}, 300, 200, 42, true},
		{"empty env ignored", map[string]string{"SAFE_KILL_ROOT_PID": ""}, 300, 200, 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, err := Detect(snap, Options{Getenv: env(tt.env), SelfPID: tt.self, ParentPID: tt.parent})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ctx.SelfPID != tt.self || ctx.ParentPID != tt.parent {
				t.Errorf("unexpected identity %+v", ctx)
			}
			if ctx.RootPID != tt.wantRoot {
				t.Errorf("expected root %d, got %d", tt.wantRoot, ctx.RootPID)
			}
			if ctx.RootFromEnv != tt.fromEnv {
				t.Errorf("expected RootFromEnv=%v", tt.fromEnv)
			}
		})
	}
}

func TestDetectInvalidOverride(t *testing.T) {
	snap := process.NewSnapshot([]process.Record{{PID: 1}}, nil)

	for _, raw := range []string{"abc", "0", "-5", "1.5"} {
		_, err := Detect(snap, Options{
			Getenv:    env(map[string]string{"SAFE_KILL_ROOT_PID": raw}),
			SelfPID:   10,
			ParentPID: 9,
		})
		if !errors.Is(err, ErrInvalidRootPID) {
			t.Errorf("%q: expected ErrInvalidRootPID, got %v", raw, err)
		}
	}
}

func TestDetectDefaultsToRunningProcess(t *testing.T) {
	snap := process.NewSnapshot([]process.Record{{PID: 1}}, nil)

	ctx, err := Detect(snap, Options{Getenv: env(nil)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.SelfPID <= 0 || ctx.ParentPID <= 0 || ctx.RootPID <= 0 {
		t.Errorf("expected live pids, got %+v", ctx)
	}
}
