package hosts

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/moorfs/moorfs/pkg/metrics"
)

var (
	// ErrDuplicateHost is returned when adding an entry already present in
	// the custom host list.
	ErrDuplicateHost = errors.New("duplicate host")
	// ErrHostNotFound is returned when removing an entry the custom host
	// list does not contain.
	ErrHostNotFound = errors.New("host not found")
)

// Registry merges the custom host list with hosts from the SSH client
// config. The merged view is cached and rebuilt only when either source
// file's modification time changes.
type Registry struct {
	sshConfigPath string
	hostListPath  string
	modTime       func(path string) time.Time

	mu    sync.Mutex
	cache *cacheState
}

// cacheState is the memoized host view plus the source modification times
// it was built from.
type cacheState struct {
	custom  []string
	ssh     []string
	listMod time.Time
	confMod time.Time
}

// NewRegistry creates a registry over the given SSH config and custom host
// list paths. Either file may be absent.
func NewRegistry(sshConfigPath, hostListPath string) *Registry {
	return NewRegistryWithModTime(sshConfigPath, hostListPath, fileModTime)
}

// NewRegistryWithModTime injects the modification-time source (for testing).
func NewRegistryWithModTime(sshConfigPath, hostListPath string, modTime func(string) time.Time) *Registry {
	return &Registry{
		sshConfigPath: sshConfigPath,
		hostListPath:  hostListPath,
		modTime:       modTime,
	}
}

// fileModTime returns the file's modification time, or the zero time when
// the file does not exist.
func fileModTime(path string) time.Time {
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return fi.ModTime()
}

// List returns every known host entry: custom hosts first in file order,
// then SSH-config hosts, de-duplicated.
func (r *Registry) List() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.cacheValidLocked() {
		if err := r.rebuildLocked(); err != nil {
			return nil, fmt.Errorf("hosts.List: %w", err)
		}
	}
	return r.cache.merged(), nil
}

// Add appends a raw entry to the custom host list and patches the cache in
// place. The entry must not already be present.
func (r *Registry) Add(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("hosts.Add: empty host entry")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	custom, err := readHostList(r.hostListPath)
	if err != nil {
		return fmt.Errorf("hosts.Add: %w", err)
	}
	for _, h := range custom {
		if h == raw {
			return fmt.Errorf("hosts.Add: %q: %w", raw, ErrDuplicateHost)
		}
	}

	if err := os.MkdirAll(filepath.Dir(r.hostListPath), 0o755); err != nil {
		return fmt.Errorf("hosts.Add: %w", err)
	}
	f, err := os.OpenFile(r.hostListPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("hosts.Add: %w", err)
	}
	if _, err := f.WriteString(raw + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("hosts.Add: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("hosts.Add: %w", err)
	}

	if r.cache != nil {
		r.cache.custom = append(r.cache.custom, raw)
		r.cache.listMod = r.modTime(r.hostListPath)
	}
	return nil
}

// Remove deletes a raw entry from the custom host list and patches the
// cache in place. Removing the last entry deletes the list file.
func (r *Registry) Remove(raw string) error {
	raw = strings.TrimSpace(raw)

	r.mu.Lock()
	defer r.mu.Unlock()

	custom, err := readHostList(r.hostListPath)
	if err != nil {
		return fmt.Errorf("hosts.Remove: %w", err)
	}
	kept := make([]string, 0, len(custom))
	for _, h := range custom {
		if h != raw {
			kept = append(kept, h)
		}
	}
	if len(kept) == len(custom) {
		return fmt.Errorf("hosts.Remove: %q: %w", raw, ErrHostNotFound)
	}

	if len(kept) == 0 {
		if err := os.Remove(r.hostListPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("hosts.Remove: %w", err)
		}
	} else {
		data := strings.Join(kept, "\n") + "\n"
		if err := os.WriteFile(r.hostListPath, []byte(data), 0o644); err != nil {
			return fmt.Errorf("hosts.Remove: %w", err)
		}
	}

	if r.cache != nil {
		r.cache.custom = kept
		r.cache.listMod = r.modTime(r.hostListPath)
	}
	return nil
}

// cacheValidLocked reports whether the cached view still matches both
// source files' modification times.
func (r *Registry) cacheValidLocked() bool {
	return r.cache != nil &&
		r.cache.confMod.Equal(r.modTime(r.sshConfigPath)) &&
		r.cache.listMod.Equal(r.modTime(r.hostListPath))
}

// rebuildLocked re-reads both sources. Modification times are captured
// before the reads so a write racing the rebuild invalidates the next call.
func (r *Registry) rebuildLocked() error {
	confMod := r.modTime(r.sshConfigPath)
	listMod := r.modTime(r.hostListPath)

	custom, err := readHostList(r.hostListPath)
	if err != nil {
		return err
	}
	ssh, err := parseSSHConfigHosts(r.sshConfigPath)
	if err != nil {
		return err
	}

	r.cache = &cacheState{
		custom:  custom,
		ssh:     ssh,
		listMod: listMod,
		confMod: confMod,
	}
	metrics.HostCacheRebuilds.Inc()
	slog.Debug("host cache rebuilt", "custom", len(custom), "ssh_config", len(ssh))
	return nil
}

// merged flattens the cache into one de-duplicated list, custom hosts first.
func (c *cacheState) merged() []string {
	out := make([]string, 0, len(c.custom)+len(c.ssh))
	seen := make(map[string]bool, len(c.custom)+len(c.ssh))
	for _, group := range [][]string{c.custom, c.ssh} {
		for _, h := range group {
			if seen[h] {
				continue
			}
			seen[h] = true
			out = append(out, h)
		}
	}
	return out
}

// readHostList reads the custom host list, one raw entry per line. A
// missing file yields an empty list.
func readHostList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read host list %s: %w", path, err)
	}
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out, nil
}
