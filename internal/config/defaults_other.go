//go:build !linux && !darwin

package config

func defaultDenylist() []string {
	return []string{"init", "systemd"}
}
