// Package mountpath maps host entries to local mount directories. The
// mapping is a pure function of the entry and the mount root, so repeated
// mounts of the same target land in the same place.
package mountpath

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/moorfs/moorfs/pkg/hosts"
)

var unsafeRunes = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Resolve computes the local mount directory for entry under mountRoot.
//
// Entries without a remote path map to mountRoot/<hostname>. Entries with
// one get a suffix derived from the path: "root" for "/", otherwise the
// last two path components joined by "-", with runs of characters outside
// [A-Za-z0-9_-] collapsed to a single "-".
func Resolve(entry hosts.Entry, mountRoot string) string {
	if entry.RemotePath == "" {
		return filepath.Join(mountRoot, entry.Hostname)
	}
	return filepath.Join(mountRoot, entry.Hostname+"-"+Suffix(entry.RemotePath))
}

// Suffix derives the directory-name suffix for a remote path.
func Suffix(remotePath string) string {
	trimmed := strings.TrimRight(remotePath, "/")
	if trimmed == "" {
		return "root"
	}

	var parts []string
	for _, p := range strings.Split(trimmed, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 2 {
		parts = parts[len(parts)-2:]
	}
	return unsafeRunes.ReplaceAllString(strings.Join(parts, "-"), "-")
}
