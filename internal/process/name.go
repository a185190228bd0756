package process

import "strings"

// NormalizeName reduces a command line or executable path to the base
// executable name: "/usr/bin/node --inspect app.js" becomes "node".
func NormalizeName(raw string) string {
	s := raw
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return baseName(fields[0])
}

// baseName strips directories from an executable path but keeps spaces,
// for sources such as ps comm= that never include arguments.
func baseName(path string) string {
	s := strings.TrimSpace(path)
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		s = s[i+1:]
	}
	return s
}
