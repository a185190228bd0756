package config

import (
	"fmt"
	"strconv"
)

// File is the on-disk shape of the configuration file (TOML or YAML)
type File struct {
	Allowlist    *ProcessList  `toml:"allowlist" yaml:"allowlist"`
	Denylist     *ProcessList  `toml:"denylist" yaml:"denylist"`
	AllowedPorts *AllowedPorts `toml:"allowed_ports" yaml:"allowed_ports"`
}

// ProcessList is a list of process name patterns
type ProcessList struct {
	Processes []string `toml:"processes" yaml:"processes"`
}

// AllowedPorts lists port specs ("3306" or "3000-3100") that may be targeted with --port
type AllowedPorts struct {
	Ports []string `toml:"ports" yaml:"ports"`
}

// PortRange is an inclusive port range. A single port has Start == End.
type PortRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether port lies within the range, bounds included.
func (r PortRange) Contains(port int) bool {
	return port >= r.Start && port <= r.End
}

func (r PortRange) String() string {
	if r.Start == r.End {
		return strconv.Itoa(r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Config is the validated, read-only policy configuration for one invocation.
type Config struct {
	// Allowlist names bypass the ancestry check.
	Allowlist []string
	// Denylist names can never be killed. Checked before every bypass.
	Denylist []string
	// AllowedPorts may be targeted with --port and bypass the ancestry check.
	AllowedPorts []PortRange
	// PortsConfigured is false when the allowed_ports table is absent,
	// which disables port targeting entirely.
	PortsConfigured bool
}
