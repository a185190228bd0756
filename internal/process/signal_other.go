//go:build !unix

package process

// POSIX numbering, reported for parsing and output only
var supportedSignals = []Signal{
	{"HUP", 1},
	{"INT", 2},
	{"QUIT", 3},
	{"KILL", 9},
	{"TERM", 15},
}

// Send is not supported without POSIX signals
func Send(pid int, sig Signal) error {
	return ErrUnsupportedPlatform
}
