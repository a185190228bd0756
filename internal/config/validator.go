package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrInvalidPortRange is returned for port specs that are not "N" or "A-B".
var ErrInvalidPortRange = errors.New("invalid port range")

const maxPort = 65535

// ParsePortRange parses a single port ("3306") or an inclusive range
// ("3000-3100"). Surrounding whitespace is ignored.
func ParsePortRange(spec string) (PortRange, error) {
	s := strings.TrimSpace(spec)

	if !strings.Contains(s, "-") {
		port, err := parsePort(s)
		if err != nil {
			return PortRange{}, fmt.Errorf("%w %q", ErrInvalidPortRange, spec)
		}
		return PortRange{Start: port, End: port}, nil
	}

	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return PortRange{}, fmt.Errorf("%w %q", ErrInvalidPortRange, spec)
	}
	start, err := parsePort(strings.TrimSpace(parts[0]))
	if err != nil {
		return PortRange{}, fmt.Errorf("%w %q", ErrInvalidPortRange, spec)
	}
	end, err := parsePort(strings.TrimSpace(parts[1]))
	if err != nil {
		return PortRange{}, fmt.Errorf("%w %q", ErrInvalidPortRange, spec)
	}
	if start > end {
		return PortRange{}, fmt.Errorf("%w %q: start is greater than end", ErrInvalidPortRange, spec)
	}
	return PortRange{Start: start, End: end}, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if port < 1 || port > maxPort {
		return 0, fmt.Errorf("port %d out of range", port)
	}
	return port, nil
}

// Build validates a decoded file and turns it into a Config.
// A file without a [denylist] table gets the OS default denylist.
func Build(f *File) (*Config, error) {
	var errs []string
	cfg := &Config{}

	if f.Allowlist != nil {
		for i, p := range f.Allowlist.Processes {
			if err := validatePattern(p); err != nil {
				errs = append(errs, fmt.Sprintf("allowlist.processes[%d]: %v", i, err))
				continue
			}
			cfg.Allowlist = append(cfg.Allowlist, p)
		}
	}

	if f.Denylist != nil {
		for i, p := range f.Denylist.Processes {
			if err := validatePattern(p); err != nil {
				errs = append(errs, fmt.Sprintf("denylist.processes[%d]: %v", i, err))
				continue
			}
			cfg.Denylist = append(cfg.Denylist, p)
		}
	} else {
		cfg.Denylist = DefaultDenylist()
	}

	if f.AllowedPorts != nil {
		cfg.PortsConfigured = true
		for i, spec := range f.AllowedPorts.Ports {
			r, err := ParsePortRange(spec)
			if err != nil {
				errs = append(errs, fmt.Sprintf("allowed_ports.ports[%d]: %v", i, err))
				continue
			}
			cfg.AllowedPorts = append(cfg.AllowedPorts, r)
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return cfg, nil
}

func validatePattern(p string) error {
	if strings.TrimSpace(p) == "" {
		return errors.New("pattern cannot be empty")
	}
	if !doublestar.ValidatePattern(p) {
		return fmt.Errorf("invalid pattern %q", p)
	}
	return nil
}
