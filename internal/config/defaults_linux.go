//go:build linux

package config

func defaultDenylist() []string {
	return []string{"systemd", "init", "kthreadd", "dbus-daemon", "gnome-shell", "Xorg", "sshd"}
}
