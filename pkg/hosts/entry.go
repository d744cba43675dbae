// Package hosts discovers and manages the SSH targets moorfs can mount:
// literal hosts harvested from the user's SSH client config, plus a custom
// host list that may pin ports and remote paths. The merged view is cached
// in memory and invalidated by source file modification times.
package hosts

import (
	"fmt"
	"strings"
)

// Entry is one parsed host target.
//
// The accepted raw forms are:
//
//	host
//	host:port
//	host:/remote/path
//	host:port:/remote/path
//
// Only the raw string is ever persisted; Entry is derived on demand.
type Entry struct {
	Raw        string // original string, verbatim
	Hostname   string // may carry a login user as user@host
	Port       string // optional, digits only
	RemotePath string // optional absolute remote path; empty means the remote home
}

// ParseEntry parses a raw host entry. The path segment, when present,
// starts at the first ":/" so remote paths may themselves contain colons.
func ParseEntry(raw string) (Entry, error) {
	e := Entry{Raw: raw}
	rest := strings.TrimSpace(raw)

	if i := strings.Index(rest, ":/"); i >= 0 {
		e.RemotePath = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.LastIndex(rest, ":"); i >= 0 {
		e.Hostname, e.Port = rest[:i], rest[i+1:]
	} else {
		e.Hostname = rest
	}

	if e.Hostname == "" {
		return Entry{}, fmt.Errorf("hosts.ParseEntry: %q: missing hostname", raw)
	}
	if e.Port != "" && !allDigits(e.Port) {
		return Entry{}, fmt.Errorf("hosts.ParseEntry: %q: invalid port %q", raw, e.Port)
	}
	return e, nil
}

// Host returns the bare host part of the entry, without any user@ prefix.
func (e Entry) Host() string {
	if i := strings.Index(e.Hostname, "@"); i >= 0 {
		return e.Hostname[i+1:]
	}
	return e.Hostname
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
