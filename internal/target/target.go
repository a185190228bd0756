// Package target turns a user target specification into candidate pids
package target

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"safekill.dev/internal/process"
)

// Kind selects how a Spec identifies its targets
type Kind int

const (
	ByPID Kind = iota + 1
	ByName
	ByPort
)

func (k Kind) String() string {
	switch k {
	case ByPID:
		return "pid"
	case ByName:
		return "name"
	case ByPort:
		return "port"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind for JSON reports
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Spec is exactly one of a pid, a name pattern or a port
type Spec struct {
	Kind    Kind   `json:"kind"`
	PID     int    `json:"pid,omitempty"`
	Pattern string `json:"pattern,omitempty"`
	Port    int    `json:"port,omitempty"`
}

// PID targets a single process id
func PID(pid int) Spec {
	return Spec{Kind: ByPID, PID: pid}
}

// Name targets every process whose name matches pattern
func Name(pattern string) Spec {
	return Spec{Kind: ByName, Pattern: pattern}
}

// Port targets the process owning port
func Port(port int) Spec {
	return Spec{Kind: ByPort, Port: port}
}

func (s Spec) String() string {
	switch s.Kind {
	case ByPID:
		return fmt.Sprintf("pid %d", s.PID)
	case ByName:
		return fmt.Sprintf("name %q", s.Pattern)
	case ByPort:
		return fmt.Sprintf("port %d", s.Port)
	default:
		return "no target"
	}
}

// Validate checks that the spec is well formed
func (s Spec) Validate() error {
	switch s.Kind {
	case ByPID:
		if s.PID <= 0 {
			return fmt.Errorf("invalid pid %d", s.PID)
		}
	case ByName:
		if strings.TrimSpace(s.Pattern) == "" {
			return errors.New("process name cannot be empty")
		}
		if hasMeta(s.Pattern) && !doublestar.ValidatePattern(s.Pattern) {
			return fmt.Errorf("invalid name pattern %q", s.Pattern)
		}
	case ByPort:
		if s.Port < 1 || s.Port > 65535 {
			return fmt.Errorf("invalid port %d", s.Port)
		}
	default:
		return errors.New("no target specified")
	}
	return nil
}

// Resolver resolves specs against a snapshot
type Resolver struct {
	// PortsEnabled is false when no allowed_ports table is configured,
	// in which case port specs resolve to nothing.
	PortsEnabled bool
}

// Resolve returns the sorted, deduplicated candidate pids for spec.
// An empty result is not an error.
func (r Resolver) Resolve(spec Spec, snap *process.Snapshot) []int {
	var pids []int

	switch spec.Kind {
	case ByPID:
		if _, ok := snap.Lookup(spec.PID); ok {
			pids = append(pids, spec.PID)
		}
	case ByName:
		for _, rec := range snap.Records() {
			if MatchName(spec.Pattern, rec.Name) {
				pids = append(pids, rec.PID)
			}
		}
	case ByPort:
		if !r.PortsEnabled {
			return nil
		}
		if pid, ok := snap.Owner(spec.Port); ok {
			pids = append(pids, pid)
		}
	}

	sort.Ints(pids)
	return pids
}

// MatchName matches a process name pkill-style: a pattern with glob
// metacharacters must match the whole name, anything else is a
// case-sensitive substring.
func MatchName(pattern, name string) bool {
	if pattern == "" || name == "" {
		return false
	}
	if hasMeta(pattern) {
		ok, err := doublestar.Match(pattern, name)
		return err == nil && ok
	}
	return strings.Contains(name, pattern)
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
