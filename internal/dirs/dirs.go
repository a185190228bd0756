package dirs

import (
	"fmt"
	"os"
	"path/filepath"
)

// AppName is the directory name used under the user config directory.
const AppName = "safe-kill"

// ConfigFile is the preferred configuration file name.
const ConfigFile = "config.toml"

// AltConfigFiles are accepted when ConfigFile does not exist, in priority order.
var AltConfigFiles = []string{"config.yaml", "config.yml"}

// RootPIDEnv overrides the session root pid used for ancestry checks.
const RootPIDEnv = "SAFE_KILL_ROOT_PID"

// ConfigDir returns ~/.config/safe-kill (or the platform equivalent).
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// ConfigPath returns the default path of the TOML configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFile), nil
}
