// Package sshfs mounts and unmounts remote filesystems by driving the
// sshfs binary and the platform's unmount tools. Authentication is a fixed
// chain: one non-interactive key attempt, then a bounded number of
// password attempts fed through stdin.
package sshfs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/moorfs/moorfs/pkg/hosts"
	"github.com/moorfs/moorfs/pkg/metrics"
	"github.com/moorfs/moorfs/pkg/proc"
	"github.com/moorfs/moorfs/pkg/prompt"
)

var (
	// ErrRemotePathNotFound means the requested remote path does not exist.
	ErrRemotePathNotFound = errors.New("remote path not found")
	// ErrConnectionFailed means the host could not be reached at all.
	ErrConnectionFailed = errors.New("connection failed")
	// ErrAuthenticationFailed means key auth and every password attempt failed.
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// Options configures how the sshfs binary is invoked.
type Options struct {
	Binary           string   // sshfs executable; default "sshfs"
	MountOptions     []string // raw tokens forwarded verbatim
	PasswordAttempts int      // password retries after key auth fails; default 3
}

// Mounter mounts remote targets, trying key-based authentication first and
// falling back to interactive passwords.
type Mounter struct {
	runner   proc.Runner
	prompter prompt.Prompter
	opts     Options
}

// NewMounter creates a mounter.
func NewMounter(runner proc.Runner, prompter prompt.Prompter, opts Options) *Mounter {
	if opts.Binary == "" {
		opts.Binary = "sshfs"
	}
	if opts.PasswordAttempts < 1 {
		opts.PasswordAttempts = 3
	}
	return &Mounter{runner: runner, prompter: prompter, opts: opts}
}

// Target returns the sshfs source spec for an entry. A trailing colon with
// no path mounts the remote home directory.
func Target(e hosts.Entry) string {
	return e.Hostname + ":" + e.RemotePath
}

// Mount attaches the entry's remote target at localPath, which must already
// exist. The key phase runs exactly once; a missing remote path or an
// unreachable host at any phase stops the chain immediately.
func (m *Mounter) Mount(ctx context.Context, entry hosts.Entry, localPath string) error {
	target := Target(entry)

	out, err := m.runner.Run(ctx, m.opts.Binary, m.args(entry, localPath, "-o", "BatchMode=yes")...)
	if err == nil {
		return nil
	}
	if err := classifyTerminal(target, string(out)); err != nil {
		return err
	}
	slog.Debug("key auth failed, falling back to password", "target", target)

	attempts := m.opts.PasswordAttempts
	for attempt := 1; attempt <= attempts; attempt++ {
		title := fmt.Sprintf("Password for %s (%d/%d)", entry.Hostname, attempt, attempts)
		password, err := m.prompter.AskText(title, true)
		if err != nil {
			return fmt.Errorf("sshfs.Mount: %w", err)
		}
		metrics.PasswordPrompts.Inc()

		out, err = m.runner.RunInput(ctx, password+"\n",
			m.opts.Binary, m.args(entry, localPath, "-o", "password_stdin")...)
		if err == nil {
			return nil
		}
		if err := classifyTerminal(target, string(out)); err != nil {
			return err
		}
		slog.Warn("password attempt failed", "target", target, "attempt", attempt, "of", attempts)
	}
	return fmt.Errorf("sshfs.Mount: %s: %w after %d password attempts",
		target, ErrAuthenticationFailed, attempts)
}

// classifyTerminal maps diagnostics to the chain-stopping sentinel errors.
// Anything unrecognized returns nil: the chain assumes an auth problem and
// continues.
func classifyTerminal(target, diag string) error {
	switch {
	case indicatesMissingRemotePath(diag):
		return fmt.Errorf("sshfs.Mount: %s: %w", target, ErrRemotePathNotFound)
	case indicatesConnectionFailure(diag):
		return fmt.Errorf("sshfs.Mount: %s: %w: %s", target, ErrConnectionFailed, firstLine(diag))
	}
	return nil
}

func (m *Mounter) args(entry hosts.Entry, localPath string, extra ...string) []string {
	args := []string{Target(entry), localPath}
	if entry.Port != "" {
		args = append(args, "-p", entry.Port)
	}
	args = append(args, extra...)
	args = append(args, m.opts.MountOptions...)
	return args
}
