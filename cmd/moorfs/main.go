// Package main provides the moorfs CLI, the mount engine a terminal file
// manager shells out to for browsing remote hosts over sshfs.
//
// Usage:
//
//	moorfs mount [--config <file>] [--jump] <host[:port][:/path]>
//	moorfs unmount [--config <file>] <path|alias>
//	moorfs jump [--config <file>] <path|alias>
//	moorfs hosts list|add|remove [--config <file>] [entry]
//	moorfs mounts [--config <file>]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/moorfs/moorfs/pkg/config"
	"github.com/moorfs/moorfs/pkg/hosts"
	"github.com/moorfs/moorfs/pkg/manager"
	"github.com/moorfs/moorfs/pkg/metrics"
	"github.com/moorfs/moorfs/pkg/mounttab"
	"github.com/moorfs/moorfs/pkg/notify"
	"github.com/moorfs/moorfs/pkg/proc"
	"github.com/moorfs/moorfs/pkg/prompt"
	"github.com/moorfs/moorfs/pkg/redirect"
	"github.com/moorfs/moorfs/pkg/sshfs"
)

const defaultConfigPath = "~/.config/moorfs/config.yaml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "mount":
		runMount(os.Args[2:])
	case "unmount", "umount":
		runUnmount(os.Args[2:])
	case "jump":
		runJump(os.Args[2:])
	case "hosts":
		runHosts(os.Args[2:])
	case "mounts":
		runMounts(os.Args[2:])
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, "moorfs — sshfs mount engine for terminal file managers\n\n")
	fmt.Fprint(os.Stderr, "Usage:\n")
	fmt.Fprint(os.Stderr, "  moorfs <command> [flags]\n\n")
	fmt.Fprint(os.Stderr, "Commands:\n")
	fmt.Fprint(os.Stderr, "  mount    Mount a remote host under the mount root\n")
	fmt.Fprint(os.Stderr, "  unmount  Unmount a mount point (by path or alias)\n")
	fmt.Fprint(os.Stderr, "  jump     Point the file manager at a mount point\n")
	fmt.Fprint(os.Stderr, "  hosts    Manage the mountable host list\n")
	fmt.Fprint(os.Stderr, "  mounts   List active mounts\n\n")
	fmt.Fprint(os.Stderr, "Use \"moorfs <command> --help\" for more information about a command.\n")
}

// runMount implements "moorfs mount".
func runMount(args []string) {
	fs := flag.NewFlagSet("mount", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to config file")
	jump := fs.Bool("jump", false, "Point the file manager at the new mount")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, "Usage: moorfs mount [flags] <host[:port][:/path]>\n\n")
		fmt.Fprint(os.Stderr, "Mount a remote host over sshfs. Key authentication is tried first,\n")
		fmt.Fprint(os.Stderr, "then a bounded number of password prompts. The local mount point is\n")
		fmt.Fprint(os.Stderr, "printed on stdout.\n\n")
		fmt.Fprint(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprint(os.Stderr, "\nExamples:\n")
		fmt.Fprint(os.Stderr, "  moorfs mount web01\n")
		fmt.Fprint(os.Stderr, "  moorfs mount --jump admin@web01:2222:/var/log\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one host entry is required")
		fs.Usage()
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	mgr, cleanup := setupStack(cfg)
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	res, err := mgr.Mount(ctx, fs.Arg(0), *jump)
	if err != nil {
		cleanup()
		exitForError(err)
	}
	fmt.Println(res.LocalPath)
}

// runUnmount implements "moorfs unmount".
func runUnmount(args []string) {
	fs := flag.NewFlagSet("unmount", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to config file")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, "Usage: moorfs unmount [flags] <path|alias>\n\n")
		fmt.Fprint(os.Stderr, "Unmount a mount point. A bare alias is resolved under the mount root.\n\n")
		fmt.Fprint(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one mount point is required")
		fs.Usage()
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	mgr, cleanup := setupStack(cfg)
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := mgr.Unmount(ctx, resolveMountArg(cfg, fs.Arg(0))); err != nil {
		cleanup()
		exitForError(err)
	}
}

// runJump implements "moorfs jump".
func runJump(args []string) {
	fs := flag.NewFlagSet("jump", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to config file")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, "Usage: moorfs jump [flags] <path|alias>\n\n")
		fmt.Fprint(os.Stderr, "Point the file manager's active view at a mount point.\n\n")
		fmt.Fprint(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one mount point is required")
		fs.Usage()
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	mgr, cleanup := setupStack(cfg)
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := mgr.Jump(ctx, resolveMountArg(cfg, fs.Arg(0))); err != nil {
		cleanup()
		exitForError(err)
	}
}

// runHosts implements "moorfs hosts".
func runHosts(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: moorfs hosts <list|add|remove> [flags] [entry]")
		os.Exit(1)
	}

	switch args[0] {
	case "list":
		runHostsList(args[1:])
	case "add":
		runHostsEdit("add", args[1:])
	case "remove":
		runHostsEdit("remove", args[1:])
	case "--help", "-h", "help":
		fmt.Fprint(os.Stderr, "Usage: moorfs hosts <list|add|remove> [flags] [entry]\n\n")
		fmt.Fprint(os.Stderr, "Manage the mountable host list.\n\n")
		fmt.Fprint(os.Stderr, "Subcommands:\n")
		fmt.Fprint(os.Stderr, "  list     Print every known host, one per line\n")
		fmt.Fprint(os.Stderr, "  add      Add an entry to the custom host list\n")
		fmt.Fprint(os.Stderr, "  remove   Remove an entry from the custom host list\n")
	default:
		fmt.Fprintf(os.Stderr, "Unknown hosts subcommand: %s\nUsage: moorfs hosts <list|add|remove> [flags] [entry]\n", args[0])
		os.Exit(1)
	}
}

func runHostsList(args []string) {
	fs := flag.NewFlagSet("hosts list", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to config file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	mgr, cleanup := setupStack(cfg)
	defer cleanup()

	list, err := mgr.KnownHosts()
	if err != nil {
		cleanup()
		exitForError(err)
	}
	// One entry per line so file-manager pickers can consume the output.
	for _, entry := range list {
		fmt.Println(entry)
	}
}

func runHostsEdit(verb string, args []string) {
	fs := flag.NewFlagSet("hosts "+verb, flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to config file")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: moorfs hosts %s [flags] <host[:port][:/path]>\n\nFlags:\n", verb)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one host entry is required")
		fs.Usage()
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	mgr, cleanup := setupStack(cfg)
	defer cleanup()

	var err error
	if verb == "add" {
		err = mgr.AddHost(fs.Arg(0))
	} else {
		err = mgr.RemoveHost(fs.Arg(0))
	}
	if err != nil {
		cleanup()
		exitForError(err)
	}
}

// runMounts implements "moorfs mounts".
func runMounts(args []string) {
	fs := flag.NewFlagSet("mounts", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to config file")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, "Usage: moorfs mounts [flags]\n\nList active mounts under the mount root.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	mgr, cleanup := setupStack(cfg)
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	records, err := mgr.ActiveMounts(ctx)
	if err != nil {
		cleanup()
		exitForError(err)
	}

	fmt.Println("Active Mounts")
	fmt.Println("────────────────────────────────────────────────────────────")
	fmt.Printf("%-20s %-30s %s\n", "ALIAS", "PATH", "REMOTE")
	fmt.Println("────────────────────────────────────────────────────────────")
	for _, r := range records {
		remote := r.RemoteSpec
		if remote == "" {
			remote = "-"
		}
		fmt.Printf("%-20s %-30s %s\n", r.Alias, r.LocalPath, remote)
	}
	if len(records) == 0 {
		fmt.Println("  (no active mounts)")
	}
	fmt.Println("────────────────────────────────────────────────────────────")
}

// loadConfig loads and validates the configuration, expanding a leading ~.
func loadConfig(path string) *config.Config {
	expanded, err := config.ExpandHome(path)
	if err != nil {
		slog.Error("failed to resolve config path", "path", path, "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load(expanded)
	if err != nil {
		slog.Error("failed to load config", "path", path, "error", err)
		os.Exit(1)
	}
	return cfg
}

// setupStack wires the manager from config. Returns a cleanup function that
// should be deferred; it flushes metrics and closes the notifier.
func setupStack(cfg *config.Config) (*manager.Manager, func()) {
	runner := proc.ExecRunner{}
	prompter := prompt.NewTTY()

	notifier, err := notify.New(cfg.Notify.Sink, cfg.Notify.FilePath)
	if err != nil {
		slog.Error("failed to create notifier", "error", err)
		os.Exit(1)
	}

	var redirector redirect.Redirector = redirect.NewNop()
	if len(cfg.Redirect.JumpCommand) > 0 || len(cfg.Redirect.ViewsCommand) > 0 {
		redirector = redirect.NewExec(runner, cfg.Redirect.JumpCommand, cfg.Redirect.ViewsCommand)
	}

	mgr := manager.New(cfg, manager.Deps{
		Registry: hosts.NewRegistry(cfg.SSHConfig, cfg.HostList),
		Query:    mounttab.New(runner, runtime.GOOS, cfg.MountTableBinary),
		Mounter: sshfs.NewMounter(runner, prompter, sshfs.Options{
			Binary:           cfg.SSHFSBinary,
			MountOptions:     cfg.MountOptions,
			PasswordAttempts: cfg.PasswordAttempts,
		}),
		Runner:     runner,
		Prompter:   prompter,
		Notifier:   notifier,
		Redirector: redirector,
	})

	var done bool
	cleanup := func() {
		if done {
			return
		}
		done = true
		if cfg.Metrics.Textfile != "" {
			if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
				slog.Warn("could not write metrics textfile", "path", cfg.Metrics.Textfile, "error", err)
			}
		}
		if err := notifier.Close(); err != nil {
			slog.Warn("could not close notifier", "error", err)
		}
	}
	return mgr, cleanup
}

// resolveMountArg turns a bare mount alias into its path under the mount
// root. Anything containing a path separator is already a path.
func resolveMountArg(cfg *config.Config, arg string) string {
	if strings.ContainsRune(arg, os.PathSeparator) {
		return filepath.Clean(arg)
	}
	return filepath.Join(cfg.MountDir, arg)
}

// exitForError maps an operation error to the process exit. A cancelled
// prompt is a silent success so file-manager keybindings don't flash an
// error for a deliberate Escape.
func exitForError(err error) {
	if errors.Is(err, prompt.ErrCancelled) {
		os.Exit(0)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
