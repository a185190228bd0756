package process

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// commMaxLen is the kernel's TASK_COMM_LEN minus the terminator
const commMaxLen = 15

// parseStat extracts comm and ppid from the contents of /proc/<pid>/stat.
// comm sits between the first '(' and the last ')' and may itself
// contain spaces or parentheses.
func parseStat(data string) (string, int, error) {
	open := strings.IndexByte(data, '(')
	closing := strings.LastIndexByte(data, ')')
	if open < 0 || closing < open {
		return "", 0, errors.New("malformed stat: missing comm")
	}
	comm := data[open+1 : closing]

	// After comm: state ppid ...
	fields := strings.Fields(data[closing+1:])
	if len(fields) < 2 {
		return "", 0, errors.New("malformed stat: missing ppid")
	}
	ppid, err := strconv.Atoi(fields[1])
	if err != nil {
		return "", 0, fmt.Errorf("malformed stat ppid %q: %w", fields[1], err)
	}
	return comm, ppid, nil
}

// linuxName picks the display name for a /proc entry. comm is truncated to
// 15 bytes; when the cmdline's executable extends it, the longer name wins.
func linuxName(comm string, cmdline []byte) string {
	name := strings.TrimSpace(comm)
	if len(comm) < commMaxLen || len(cmdline) == 0 {
		return name
	}
	argv0 := NormalizeName(string(cmdline))
	if strings.HasPrefix(argv0, comm) {
		return argv0
	}
	return name
}

// netEntry is one row of /proc/net/{tcp,udp}{,6}
type netEntry struct {
	Port  int
	Inode string
}

const tcpListen = "0A"

// parseNetTable reads a /proc/net socket table. With listenOnly set,
// only TCP LISTEN rows are returned; otherwise every bound row is.
func parseNetTable(r io.Reader, listenOnly bool) []netEntry {
	var out []netEntry

	scanner := bufio.NewScanner(r)
	scanner.Scan() // skip header

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 10 {
			continue
		}

		local := fields[1]
		state := fields[3]
		inode := fields[9]

		if listenOnly && state != tcpListen {
			continue
		}
		if inode == "0" {
			continue
		}

		i := strings.LastIndexByte(local, ':')
		if i < 0 {
			continue
		}
		port, err := strconv.ParseInt(local[i+1:], 16, 32)
		if err != nil || port == 0 {
			continue
		}
		out = append(out, netEntry{Port: int(port), Inode: inode})
	}
	return out
}

// socketInode returns the inode of an fd link target like "socket:[12345]"
func socketInode(link string) (string, bool) {
	if !strings.HasPrefix(link, "socket:[") || !strings.HasSuffix(link, "]") {
		return "", false
	}
	return link[len("socket:[") : len(link)-1], true
}

// parsePS parses `ps -axo pid=,ppid=,comm=` output. comm may contain spaces
// and is taken as the rest of the line after the two numeric columns.
func parsePS(output string) []Record {
	var records []Record

	for _, line := range strings.Split(output, "\n") {
		rest := strings.TrimSpace(line)
		if rest == "" {
			continue
		}

		pidStr, rest, ok := cutField(rest)
		if !ok {
			continue
		}
		ppidStr, comm, ok := cutField(rest)
		if !ok {
			continue
		}

		pid, err := strconv.Atoi(pidStr)
		if err != nil {
			continue
		}
		ppid, err := strconv.Atoi(ppidStr)
		if err != nil {
			continue
		}

		records = append(records, Record{PID: pid, PPID: ppid, Name: baseName(comm)})
	}
	return records
}

// parsePSArgs parses `ps -axo pid=,args=` output into pid -> command line
func parsePSArgs(output string) map[int]string {
	commands := make(map[int]string)
	for _, line := range strings.Split(output, "\n") {
		pidStr, args, ok := cutField(strings.TrimSpace(line))
		if !ok {
			continue
		}
		pid, err := strconv.Atoi(pidStr)
		if err != nil {
			continue
		}
		commands[pid] = strings.TrimSpace(args)
	}
	return commands
}

// commandLine joins a NUL-separated /proc/<pid>/cmdline into one string
func commandLine(raw []byte) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.TrimRight(string(raw), "\x00"), "\x00", " "))
}

func cutField(s string) (string, string, bool) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return "", "", false
	}
	return s[:i], strings.TrimLeft(s[i:], " \t"), true
}

// parseLsof parses `lsof -F pn` output: a "p<pid>" line starts a process,
// each following "n<addr>" line is one of its sockets.
func parseLsof(output string) []PortOwner {
	var owners []PortOwner
	pid := 0

	for _, line := range strings.Split(output, "\n") {
		if line == "" {
			continue
		}
		switch line[0] {
		case 'p':
			n, err := strconv.Atoi(line[1:])
			if err != nil {
				pid = 0
				continue
			}
			pid = n
		case 'n':
			if pid == 0 {
				continue
			}
			addr := line[1:]
			// Connected sockets read "local->remote"
			if i := strings.Index(addr, "->"); i >= 0 {
				addr = addr[:i]
			}
			if port := addrPort(addr); port > 0 {
				owners = append(owners, PortOwner{Port: port, PID: pid})
			}
		}
	}
	return owners
}

// parseSockstat parses `sockstat -l` output:
// USER COMMAND PID FD PROTO LOCAL FOREIGN
func parseSockstat(output string) []PortOwner {
	var owners []PortOwner

	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 6 || fields[0] == "USER" {
			continue
		}
		pid, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}
		if port := addrPort(fields[5]); port > 0 {
			owners = append(owners, PortOwner{Port: port, PID: pid})
		}
	}
	return owners
}

// addrPort returns the port of "*:80", "127.0.0.1:8080" or "[::1]:8080"
func addrPort(addr string) int {
	i := strings.LastIndexByte(addr, ':')
	if i < 0 {
		return 0
	}
	port, err := strconv.Atoi(addr[i+1:])
	if err != nil || port <= 0 || port > 65535 {
		return 0
	}
	return port
}
