// Package manager orchestrates the mount engine: it glues host discovery,
// mount-point resolution, active-mount detection, the sshfs auth chain and
// host-application redirection into the operations the CLI exposes.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/moorfs/moorfs/pkg/config"
	"github.com/moorfs/moorfs/pkg/hosts"
	"github.com/moorfs/moorfs/pkg/metrics"
	"github.com/moorfs/moorfs/pkg/mountpath"
	"github.com/moorfs/moorfs/pkg/mounttab"
	"github.com/moorfs/moorfs/pkg/notify"
	"github.com/moorfs/moorfs/pkg/proc"
	"github.com/moorfs/moorfs/pkg/prompt"
	"github.com/moorfs/moorfs/pkg/redirect"
	"github.com/moorfs/moorfs/pkg/sshfs"
)

// Deps are the collaborators a Manager drives. All fields are required.
type Deps struct {
	Registry   *hosts.Registry
	Query      *mounttab.Query
	Mounter    *sshfs.Mounter
	Runner     proc.Runner
	Prompter   prompt.Prompter
	Notifier   notify.Notifier
	Redirector redirect.Redirector
}

// Manager drives the mount lifecycle. It holds no mount state of its own:
// the system mount table is consulted fresh for every operation.
type Manager struct {
	cfg        *config.Config
	registry   *hosts.Registry
	query      *mounttab.Query
	mounter    *sshfs.Mounter
	runner     proc.Runner
	prompter   prompt.Prompter
	notifier   notify.Notifier
	redirector redirect.Redirector
}

// New creates a manager.
func New(cfg *config.Config, deps Deps) *Manager {
	return &Manager{
		cfg:        cfg,
		registry:   deps.Registry,
		query:      deps.Query,
		mounter:    deps.Mounter,
		runner:     deps.Runner,
		prompter:   deps.Prompter,
		notifier:   deps.Notifier,
		redirector: deps.Redirector,
	}
}

// MountResult reports a completed mount.
type MountResult struct {
	Entry     hosts.Entry
	LocalPath string
}

// Mount parses raw, resolves interactive defaults, refuses hosts that are
// already mounted, and attaches the target under the mount root. With jump
// set, the host application's view follows the new mount.
func (m *Manager) Mount(ctx context.Context, raw string, jump bool) (*MountResult, error) {
	entry, err := hosts.ParseEntry(raw)
	if err != nil {
		metrics.MountAttempts.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}

	entry, err = m.applyUserChoice(entry)
	if err != nil {
		metrics.MountAttempts.WithLabelValues(classifyOutcome(err)).Inc()
		return nil, err
	}
	entry, err = m.applyMountPointChoice(entry)
	if err != nil {
		metrics.MountAttempts.WithLabelValues(classifyOutcome(err)).Inc()
		return nil, err
	}

	records, err := m.query.List(ctx, m.cfg.MountDir)
	if err != nil {
		metrics.MountAttempts.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("manager.Mount: %w", err)
	}
	for _, rec := range records {
		if recordMatchesHost(rec, entry) {
			m.notifier.Notify(notify.LevelWarn,
				fmt.Sprintf("%s already mounted at %s", entry.Hostname, rec.LocalPath))
			metrics.MountAttempts.WithLabelValues(metrics.OutcomeAlreadyMounted).Inc()
			return nil, &AlreadyMountedError{Hostname: entry.Hostname, ExistingPath: rec.LocalPath}
		}
	}

	localPath := mountpath.Resolve(entry, m.cfg.MountDir)
	created, err := m.ensureMountDir(localPath)
	if err != nil {
		metrics.MountAttempts.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}

	if err := m.mounter.Mount(ctx, entry, localPath); err != nil {
		m.cleanupMountDir(ctx, localPath, created)
		metrics.MountAttempts.WithLabelValues(classifyOutcome(err)).Inc()
		if !errors.Is(err, prompt.ErrCancelled) {
			m.notifier.Notify(notify.LevelError,
				fmt.Sprintf("mount %s failed: %v", sshfs.Target(entry), err))
		}
		return nil, err
	}

	metrics.MountAttempts.WithLabelValues(metrics.OutcomeSuccess).Inc()
	slog.Info("mounted", "target", sshfs.Target(entry), "path", localPath)
	m.notifier.Notify(notify.LevelInfo,
		fmt.Sprintf("mounted %s at %s", sshfs.Target(entry), localPath))

	if jump {
		if err := m.redirector.JumpTo(ctx, localPath); err != nil {
			m.notifier.Notify(notify.LevelWarn,
				fmt.Sprintf("could not jump to %s: %v", localPath, err))
		}
	}
	return &MountResult{Entry: entry, LocalPath: localPath}, nil
}

// Unmount detaches the mount at localPath. Views parked inside it are
// moved to the user's home first so the host application never sits on a
// dead mount. On success the empty mount point is removed; on failure it
// is left exactly as it was.
func (m *Manager) Unmount(ctx context.Context, localPath string) error {
	localPath = filepath.Clean(localPath)

	fallback, err := os.UserHomeDir()
	if err != nil {
		fallback = "/"
	}
	if err := m.redirector.ViewsUnder(ctx, localPath, fallback); err != nil {
		m.notifier.Notify(notify.LevelWarn,
			fmt.Sprintf("could not move views out of %s: %v", localPath, err))
	}

	if err := sshfs.Unmount(ctx, m.runner, localPath); err != nil {
		metrics.UnmountAttempts.WithLabelValues(metrics.OutcomeError).Inc()
		m.notifier.Notify(notify.LevelError, fmt.Sprintf("unmount %s failed: %v", localPath, err))
		return &UnmountFailedError{LocalPath: localPath, Err: err}
	}

	metrics.UnmountAttempts.WithLabelValues(metrics.OutcomeSuccess).Inc()
	slog.Info("unmounted", "path", localPath)
	m.notifier.Notify(notify.LevelInfo, "unmounted "+localPath)

	if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
		m.notifier.Notify(notify.LevelWarn,
			fmt.Sprintf("mount point %s left in place: %v", localPath, err))
	}
	return nil
}

// Jump points the host application's active view at localPath.
func (m *Manager) Jump(ctx context.Context, localPath string) error {
	if err := m.redirector.JumpTo(ctx, filepath.Clean(localPath)); err != nil {
		return fmt.Errorf("manager.Jump: %w", err)
	}
	return nil
}

// ActiveMounts lists the active mounts under the mount root.
func (m *Manager) ActiveMounts(ctx context.Context) ([]mounttab.Record, error) {
	return m.query.List(ctx, m.cfg.MountDir)
}

// KnownHosts lists every mountable host entry.
func (m *Manager) KnownHosts() ([]string, error) {
	return m.registry.List()
}

// AddHost validates and appends raw to the custom host list.
func (m *Manager) AddHost(raw string) error {
	if _, err := hosts.ParseEntry(raw); err != nil {
		return err
	}
	if err := m.registry.Add(raw); err != nil {
		return err
	}
	m.notifier.Notify(notify.LevelInfo, "added host "+strings.TrimSpace(raw))
	return nil
}

// RemoveHost deletes raw from the custom host list.
func (m *Manager) RemoveHost(raw string) error {
	if err := m.registry.Remove(raw); err != nil {
		return err
	}
	m.notifier.Notify(notify.LevelInfo, "removed host "+strings.TrimSpace(raw))
	return nil
}

// applyUserChoice resolves the login user when default_user is "prompt"
// and the entry does not already pin one.
func (m *Manager) applyUserChoice(entry hosts.Entry) (hosts.Entry, error) {
	if m.cfg.DefaultUser != "prompt" || strings.Contains(entry.Hostname, "@") {
		return entry, nil
	}
	idx, err := m.prompter.AskChoice("User for "+entry.Hostname,
		[]string{"ssh config user", "root", "other"})
	if err != nil {
		return entry, fmt.Errorf("manager.Mount: %w", err)
	}
	switch idx {
	case 1:
		entry.Hostname = "root@" + entry.Hostname
	case 2:
		user, err := m.prompter.AskText("Username for "+entry.Hostname, false)
		if err != nil {
			return entry, fmt.Errorf("manager.Mount: %w", err)
		}
		if user != "" {
			entry.Hostname = user + "@" + entry.Hostname
		}
	}
	return entry, nil
}

// applyMountPointChoice fills the remote path of bare host entries
// according to default_mount_point. An explicit path always wins.
func (m *Manager) applyMountPointChoice(entry hosts.Entry) (hosts.Entry, error) {
	if entry.RemotePath != "" {
		return entry, nil
	}
	mode := m.cfg.DefaultMountPoint
	if mode == "ask" {
		idx, err := m.prompter.AskChoice("Mount point for "+entry.Hostname,
			[]string{"home directory", "filesystem root"})
		if err != nil {
			return entry, fmt.Errorf("manager.Mount: %w", err)
		}
		mode = "home"
		if idx == 1 {
			mode = "root"
		}
	}
	if mode == "root" {
		entry.RemotePath = "/"
	}
	return entry, nil
}

// ensureMountDir creates the mount point, reporting whether this call
// created it. A pre-existing directory must be empty: mounting over stray
// files would hide them.
func (m *Manager) ensureMountDir(localPath string) (bool, error) {
	if err := os.MkdirAll(m.cfg.MountDir, 0o755); err != nil {
		return false, fmt.Errorf("manager.Mount: %w", err)
	}
	err := os.Mkdir(localPath, 0o700)
	if err == nil {
		return true, nil
	}
	if !os.IsExist(err) {
		return false, fmt.Errorf("manager.Mount: %w", err)
	}
	entries, readErr := os.ReadDir(localPath)
	if readErr != nil {
		return false, fmt.Errorf("manager.Mount: %w", readErr)
	}
	if len(entries) > 0 {
		return false, fmt.Errorf("manager.Mount: mount point %s exists and is not empty", localPath)
	}
	return false, nil
}

// cleanupMountDir removes the mount point after a failed mount, but only
// when this operation created it and nothing got mounted on it.
func (m *Manager) cleanupMountDir(ctx context.Context, localPath string, created bool) {
	if !created {
		return
	}
	active, err := m.query.IsActive(ctx, localPath, m.cfg.MountDir)
	if err != nil || active {
		return
	}
	if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not remove mount point", "path", localPath, "error", err)
	}
}

// recordMatchesHost reports whether an active-mount record belongs to the
// entry's host. Table-backed records carry the remote spec; fallback
// records only have the directory alias to go by.
func recordMatchesHost(rec mounttab.Record, entry hosts.Entry) bool {
	host := entry.Host()
	if rec.RemoteSpec != "" {
		spec := rec.RemoteSpec
		if i := strings.Index(spec, ":"); i >= 0 {
			spec = spec[:i]
		}
		if i := strings.Index(spec, "@"); i >= 0 {
			spec = spec[i+1:]
		}
		return spec == host
	}
	alias := rec.Alias
	if i := strings.Index(alias, "@"); i >= 0 {
		alias = alias[i+1:]
	}
	return alias == host || strings.HasPrefix(alias, host+"-")
}

func classifyOutcome(err error) string {
	switch {
	case errors.Is(err, sshfs.ErrRemotePathNotFound):
		return metrics.OutcomeRemotePathNotFound
	case errors.Is(err, sshfs.ErrConnectionFailed):
		return metrics.OutcomeConnectionFailed
	case errors.Is(err, sshfs.ErrAuthenticationFailed):
		return metrics.OutcomeAuthFailed
	case errors.Is(err, prompt.ErrCancelled):
		return metrics.OutcomeCancelled
	default:
		return metrics.OutcomeError
	}
}
