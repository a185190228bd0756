package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrConfigExists is returned by WriteDefault when the file exists and force is not set
var ErrConfigExists = errors.New("config file already exists")

const scaffold = `# safe-kill configuration
#
# Processes started from your current session (descendants of the session
# root) can always be killed. The lists below adjust that rule.

# Processes that may be killed even outside the current session.
# Entries match the whole process name; glob patterns are allowed.
[allowlist]
processes = [
  # "next-server",
  # "vite",
]

# Processes that may never be killed, whatever else matches.
# Removing this table restores the built-in system denylist.
[denylist]
processes = [
%s]

# Ports that may be targeted with --port. Ranges are inclusive.
# Without this table, --port is disabled.
[allowed_ports]
ports = ["1420", "3000-3010", "8080"]
`

// Scaffold returns the commented default configuration written by init
func Scaffold() string {
	var entries string
	for _, name := range DefaultDenylist() {
		entries += fmt.Sprintf("  %q,\n", name)
	}
	return fmt.Sprintf(scaffold, entries)
}

// WriteDefault writes the scaffold to path, creating parent directories.
// An existing file is only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(Scaffold()), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
