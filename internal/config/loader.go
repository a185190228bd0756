package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"safekill.dev/internal/dirs"
)

// Error is returned for any configuration file that cannot be used.
// The CLI maps it to the configuration error exit code.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid config at %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Default returns the configuration used when no config file exists:
// the OS default denylist, no allowlist, port targeting disabled.
func Default() *Config {
	return &Config{Denylist: DefaultDenylist()}
}

// DefaultDenylist returns the built-in denylist for the current OS
func DefaultDenylist() []string {
	return defaultDenylist()
}

// Load finds, parses and validates the configuration.
// It searches in the following priority order:
// 1. Custom path (if provided; must exist)
// 2. <config dir>/safe-kill/config.toml
// 3. <config dir>/safe-kill/config.yaml, config.yml
//
// When nothing is found the defaults are returned with an empty path.
func Load(customPath string) (*Config, string, error) {
	if customPath != "" {
		if _, err := os.Stat(customPath); err != nil {
			return nil, customPath, &Error{Path: customPath, Err: err}
		}
		cfg, err := loadFile(customPath)
		return cfg, customPath, err
	}

	dir, err := dirs.ConfigDir()
	if err != nil {
		// No home directory: nothing to load, defaults apply.
		return Default(), "", nil
	}

	candidates := append([]string{dirs.ConfigFile}, dirs.AltConfigFiles...)
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, path, &Error{Path: path, Err: err}
		}
		cfg, err := loadFile(path)
		return cfg, path, err
	}

	return Default(), "", nil
}

func loadFile(path string) (*Config, error) {
	f, err := ParseFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	cfg, err := Build(f)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return cfg, nil
}

// Parse decodes and validates TOML configuration text
func Parse(data string) (*Config, error) {
	f, err := parseTOML([]byte(data))
	if err != nil {
		return nil, err
	}
	return Build(f)
}
