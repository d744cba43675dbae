package hosts

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// parseSSHConfigHosts collects the literal host aliases declared by top-level
// Host directives in an OpenSSH client config. Wildcard and negation patterns
// are skipped, Include directives are not followed, and a missing file yields
// no hosts.
func parseSSHConfigHosts(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open ssh config %s: %w", path, err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(stripInlineComment(sc.Text()))
		if line == "" {
			continue
		}
		key, val, ok := splitKeyVal(line)
		if !ok || !strings.EqualFold(key, "Host") {
			continue
		}
		for _, pattern := range strings.Fields(val) {
			if isLiteralHostPattern(pattern) {
				out = append(out, pattern)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan ssh config %s: %w", path, err)
	}
	return out, nil
}

// splitKeyVal splits an ssh config line on the first whitespace or '='.
func splitKeyVal(line string) (key, val string, ok bool) {
	i := strings.IndexAny(line, " \t=")
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
}

func stripInlineComment(line string) string {
	if i := strings.Index(line, "#"); i >= 0 {
		return line[:i]
	}
	return line
}

// isLiteralHostPattern reports whether an ssh Host pattern names a single
// concrete host: no wildcards, no character classes, no negation.
func isLiteralHostPattern(pattern string) bool {
	if pattern == "" || strings.HasPrefix(pattern, "!") {
		return false
	}
	return !strings.ContainsAny(pattern, "*?[]")
}
