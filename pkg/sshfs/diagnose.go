package sshfs

import "strings"

// sshfs exits 1 for almost everything, so the combined output is the only
// signal for what actually went wrong. Phrase matching is case-insensitive
// and covers the wording of OpenSSH, sftp and libc resolvers.

var missingPathPhrases = []string{
	"no such file or directory",
	"not a directory",
}

var connectionPhrases = []string{
	"connection refused",
	"connection timed out",
	"connection reset",
	"timed out",
	"network is unreachable",
	"no route to host",
	"host is unreachable",
	"could not resolve hostname",
	"name or service not known",
	"temporary failure in name resolution",
	"nodename nor servname provided",
}

func indicatesMissingRemotePath(diag string) bool {
	return containsAny(diag, missingPathPhrases)
}

func indicatesConnectionFailure(diag string) bool {
	return containsAny(diag, connectionPhrases)
}

func containsAny(diag string, phrases []string) bool {
	diag = strings.ToLower(diag)
	for _, p := range phrases {
		if strings.Contains(diag, p) {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
