//go:build darwin

package process

import (
	"context"
	"os/exec"
)

// listPortOwners uses lsof. Without root lsof only sees the caller's own
// sockets, which covers the processes an agent may target anyway.
func listPortOwners(ctx context.Context) ([]PortOwner, error) {
	var owners []PortOwner
	for _, args := range [][]string{
		{"-nP", "-iTCP", "-sTCP:LISTEN", "-F", "pn"},
		{"-nP", "-iUDP", "-F", "pn"},
	} {
		// lsof exits 1 when nothing matches; its output is still usable
		out, _ := exec.CommandContext(ctx, "lsof", args...).Output()
		owners = append(owners, parseLsof(string(out))...)
	}
	return owners, nil
}
