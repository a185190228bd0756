package config

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IsAllowed reports whether name matches an allowlist pattern.
func (c *Config) IsAllowed(name string) bool {
	return matchesAny(c.Allowlist, name)
}

// IsDenied reports whether name matches a denylist pattern.
func (c *Config) IsDenied(name string) bool {
	return matchesAny(c.Denylist, name)
}

// PortAllowed reports whether port is covered by any allowed_ports entry.
// Always false when the allowed_ports table is absent.
func (c *Config) PortAllowed(port int) bool {
	if !c.PortsConfigured {
		return false
	}
	for _, r := range c.AllowedPorts {
		if r.Contains(port) {
			return true
		}
	}
	return false
}

// PortHint explains how to make port targetable.
func (c *Config) PortHint(port int) string {
	if !c.PortsConfigured {
		return fmt.Sprintf("add %d to [allowed_ports] in config.toml or run 'safe-kill init' to create a config file", port)
	}
	hint := fmt.Sprintf("add %d to [allowed_ports] in config.toml", port)
	if len(c.AllowedPorts) == 0 {
		return hint
	}
	ranges := make([]string, len(c.AllowedPorts))
	for i, r := range c.AllowedPorts {
		ranges[i] = r.String()
	}
	return fmt.Sprintf("%s (currently allowed: %s)", hint, strings.Join(ranges, ", "))
}

// matchesAny matches the whole name against each pattern; patterns without
// glob metacharacters therefore require an exact match.
func matchesAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if p == name {
			return true
		}
		// Patterns were validated at load time.
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}
