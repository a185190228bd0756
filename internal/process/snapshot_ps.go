//go:build darwin || freebsd

package process

import (
	"context"
	"os/exec"
)

// listProcesses reads names and parents from ps. Command lines come from a
// second ps call since args= and comm= can both contain spaces.
func listProcesses(ctx context.Context) ([]Record, error) {
	out, err := exec.CommandContext(ctx, "ps", "-axo", "pid=,ppid=,comm=").Output()
	if err != nil {
		return nil, err
	}
	records := parsePS(string(out))

	args, err := exec.CommandContext(ctx, "ps", "-axo", "pid=,args=").Output()
	if err != nil {
		return records, nil
	}
	commands := parsePSArgs(string(args))
	for i := range records {
		records[i].Command = commands[records[i].PID]
	}
	return records, nil
}
