package process

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrUnsupportedPlatform is returned when the process table cannot be read on this OS
var ErrUnsupportedPlatform = errors.New("process enumeration is not supported on this platform")

// Record is one process as seen at capture time
type Record struct {
	PID       int    `json:"pid"`
	PPID      int    `json:"ppid,omitempty"`
	HasParent bool   `json:"has_parent"`
	Name      string `json:"name"`
	// Command is the full command line, empty when it could not be read
	Command string `json:"command,omitempty"`
}

// PortOwner is a socket bound to Port by PID
type PortOwner struct {
	Port int
	PID  int
}

// Snapshot is a point-in-time view of the process table and port ownership.
// It is never modified after construction.
type Snapshot struct {
	records    map[int]Record
	ports      map[int]int
	CapturedAt time.Time
}

// NewSnapshot builds a snapshot from raw records and port owners.
//
// A record with PPID <= 0, or whose PPID is its own PID, has no parent.
// Duplicate PIDs keep the first record. When several processes own the
// same port the lowest PID wins; owners missing from records are dropped.
func NewSnapshot(records []Record, owners []PortOwner) *Snapshot {
	s := &Snapshot{
		records:    make(map[int]Record, len(records)),
		ports:      make(map[int]int),
		CapturedAt: time.Now(),
	}

	for _, r := range records {
		if r.PID <= 0 {
			continue
		}
		if _, dup := s.records[r.PID]; dup {
			continue
		}
		if r.PPID <= 0 || r.PPID == r.PID {
			r.PPID = 0
			r.HasParent = false
		} else {
			r.HasParent = true
		}
		s.records[r.PID] = r
	}

	for _, o := range owners {
		if o.Port <= 0 || o.Port > 65535 {
			continue
		}
		if _, ok := s.records[o.PID]; !ok {
			continue
		}
		if cur, ok := s.ports[o.Port]; !ok || o.PID < cur {
			s.ports[o.Port] = o.PID
		}
	}

	return s
}

// Lookup returns the record for pid
func (s *Snapshot) Lookup(pid int) (Record, bool) {
	r, ok := s.records[pid]
	return r, ok
}

// Owner returns the pid owning port
func (s *Snapshot) Owner(port int) (int, bool) {
	pid, ok := s.ports[port]
	return pid, ok
}

// Records returns every record ordered by pid
func (s *Snapshot) Records() []Record {
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out
}

// Len returns the number of processes in the snapshot
func (s *Snapshot) Len() int {
	return len(s.records)
}

// Capture enumerates all processes and port owners once.
// Port data is best effort: if it cannot be read the snapshot has no ports.
func Capture(ctx context.Context) (*Snapshot, error) {
	records, err := listProcesses(ctx)
	if err != nil {
		if errors.Is(err, ErrUnsupportedPlatform) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to enumerate processes: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("failed to enumerate processes: process table is empty")
	}

	owners, err := listPortOwners(ctx)
	if err != nil {
		owners = nil
	}

	return NewSnapshot(records, owners), nil
}
