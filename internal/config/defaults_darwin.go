//go:build darwin

package config

func defaultDenylist() []string {
	return []string{"launchd", "kernel_task", "WindowServer", "loginwindow", "Finder", "Dock", "SystemUIServer"}
}
