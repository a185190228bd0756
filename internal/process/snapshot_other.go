//go:build !linux && !darwin && !freebsd

package process

import "context"

func listProcesses(ctx context.Context) ([]Record, error) {
	return nil, ErrUnsupportedPlatform
}

func listPortOwners(ctx context.Context) ([]PortOwner, error) {
	return nil, nil
}
