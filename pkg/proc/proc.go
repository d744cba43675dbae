// Package proc runs the external commands moorfs drives: sshfs, the
// mount-table binary, the unmount tools, and the host application's
// remote-control commands. Everything that leaves the process goes
// through a Runner so tests can script the outside world.
package proc

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"
)

// Runner executes external commands and returns their combined output.
type Runner interface {
	// Run executes the named command with args.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	// RunInput is Run with input written to the command's stdin.
	RunInput(ctx context.Context, input, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec, resolving names via PATH.
type ExecRunner struct{}

// Run executes the command and returns combined stdout and stderr.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	slog.Debug("exec", "command", name, "args", args)
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// RunInput executes the command with input piped to stdin. The input is
// never logged; it may carry credentials.
func (ExecRunner) RunInput(ctx context.Context, input, name string, args ...string) ([]byte, error) {
	slog.Debug("exec with stdin", "command", name, "args", args)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(input)
	return cmd.CombinedOutput()
}
