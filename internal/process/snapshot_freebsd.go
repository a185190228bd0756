//go:build freebsd

package process

import (
	"context"
	"os/exec"
)

func listPortOwners(ctx context.Context) ([]PortOwner, error) {
	out, err := exec.CommandContext(ctx, "sockstat", "-4", "-6", "-l").Output()
	if err != nil {
		return nil, err
	}
	return parseSockstat(string(out)), nil
}
