// Package mounttab detects active sshfs mounts by parsing the system mount
// table. Mount records are recomputed from the live table on every query
// and never persisted; the table is the single source of truth.
package mounttab

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/moorfs/moorfs/pkg/metrics"
	"github.com/moorfs/moorfs/pkg/proc"
)

// Record describes one active mount directly under the mount root.
type Record struct {
	Alias      string // directory name under the mount root
	LocalPath  string
	RemoteSpec string // user@host:/path as reported by the table; empty when unknown
}

// Mount table line shapes:
//
//	linux:  user@host:/path on /mnt/alias type fuse.sshfs (rw,nosuid,...)
//	darwin: user@host:/path on /mnt/alias (macfuse, nodev, nosuid, ...)
var (
	linuxPattern  = regexp.MustCompile(`^(.+?) on (.+) type fuse\.sshfs\b`)
	darwinPattern = regexp.MustCompile(`^(.+?) on (.+) \([^)]*(?:macfuse|osxfuse)[^)]*\)$`)
)

// Query inspects the system mount table for active sshfs mounts. The line
// pattern is chosen once from the platform name at construction.
type Query struct {
	runner  proc.Runner
	binary  string
	pattern *regexp.Regexp
}

// New creates a query that runs binary (usually "mount") and parses its
// output with the pattern for goos.
func New(runner proc.Runner, goos, binary string) *Query {
	pattern := linuxPattern
	if goos == "darwin" {
		pattern = darwinPattern
	}
	return &Query{runner: runner, binary: binary, pattern: pattern}
}

// List returns the active sshfs mounts whose mount point sits directly
// under mountRoot. When the mount-table command is unavailable it falls
// back to scanning the root: a non-empty directory counts as mounted.
func (q *Query) List(ctx context.Context, mountRoot string) ([]Record, error) {
	out, err := q.runner.Run(ctx, q.binary)
	if err != nil {
		slog.Warn("mount table unavailable, scanning mount root",
			"command", q.binary, "error", err)
		metrics.MountTableFallbacks.Inc()
		return scanMountRoot(mountRoot)
	}

	root := filepath.Clean(mountRoot)
	var records []Record
	for _, line := range strings.Split(string(out), "\n") {
		m := q.pattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		local := filepath.Clean(m[2])
		if filepath.Dir(local) != root {
			continue
		}
		records = append(records, Record{
			Alias:      filepath.Base(local),
			LocalPath:  local,
			RemoteSpec: m[1],
		})
	}
	return records, nil
}

// IsActive reports whether localPath is an active mount under mountRoot.
func (q *Query) IsActive(ctx context.Context, localPath, mountRoot string) (bool, error) {
	records, err := q.List(ctx, mountRoot)
	if err != nil {
		return false, err
	}
	target := filepath.Clean(localPath)
	for _, r := range records {
		if r.LocalPath == target {
			return true, nil
		}
	}
	return false, nil
}

// scanMountRoot is the degraded detection path. A directory that cannot be
// read counts as mounted too: a wedged sshfs endpoint fails reads while
// still occupying its mount point.
func scanMountRoot(mountRoot string) ([]Record, error) {
	entries, err := os.ReadDir(mountRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("mounttab: scan %s: %w", mountRoot, err)
	}
	var records []Record
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		local := filepath.Join(mountRoot, e.Name())
		children, err := os.ReadDir(local)
		if err == nil && len(children) == 0 {
			continue
		}
		records = append(records, Record{Alias: e.Name(), LocalPath: local})
	}
	return records, nil
}
