//go:build linux

package process

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
)

const procRoot = "/proc"

func listProcesses(ctx context.Context) ([]Record, error) {
	entries, err := os.ReadDir(procRoot)
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}

		stat, err := os.ReadFile(filepath.Join(procRoot, e.Name(), "stat"))
		if err != nil {
			// Exited since ReadDir
			continue
		}
		comm, ppid, err := parseStat(string(stat))
		if err != nil {
			continue
		}

		// Kernel threads have an empty cmdline
		cmdline, _ := os.ReadFile(filepath.Join(procRoot, e.Name(), "cmdline"))

		records = append(records, Record{
			PID:     pid,
			PPID:    ppid,
			Name:    linuxName(comm, cmdline),
			Command: commandLine(cmdline),
		})
	}
	return records, nil
}

func listPortOwners(ctx context.Context) ([]PortOwner, error) {
	var entries []netEntry
	for _, table := range []struct {
		path       string
		listenOnly bool
	}{
		{"net/tcp", true},
		{"net/tcp6", true},
		{"net/udp", false},
		{"net/udp6", false},
	} {
		f, err := os.Open(filepath.Join(procRoot, table.path))
		if err != nil {
			continue
		}
		entries = append(entries, parseNetTable(f, table.listenOnly)...)
		f.Close()
	}
	if len(entries) == 0 {
		return nil, nil
	}

	inodes := socketOwners(ctx)

	var owners []PortOwner
	for _, e := range entries {
		for _, pid := range inodes[e.Inode] {
			owners = append(owners, PortOwner{Port: e.Port, PID: pid})
		}
	}
	return owners, nil
}

// socketOwners maps socket inodes to every pid holding an fd on them.
// fd directories of other users' processes are usually unreadable and skipped.
func socketOwners(ctx context.Context) map[string][]int {
	owners := make(map[string][]int)

	entries, err := os.ReadDir(procRoot)
	if err != nil {
		return owners
	}
	for _, e := range entries {
		if ctx.Err() != nil {
			return owners
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}

		fdDir := filepath.Join(procRoot, e.Name(), "fd")
		fds, err := os.ReadDir(fdDir)
		if err != nil {
			continue
		}
		for _, fd := range fds {
			link, err := os.Readlink(filepath.Join(fdDir, fd.Name()))
			if err != nil {
				continue
			}
			if inode, ok := socketInode(link); ok {
				owners[inode] = append(owners[inode], pid)
			}
		}
	}
	return owners
}
