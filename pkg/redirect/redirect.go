// Package redirect steers the host application around mount state changes:
// jumping its active view into a fresh mount, and moving any view parked
// inside a mount point out of the way before unmounting.
package redirect

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/moorfs/moorfs/pkg/proc"
)

// Redirector signals the host application to move its views.
type Redirector interface {
	// JumpTo changes the active view to path.
	JumpTo(ctx context.Context, path string) error
	// ViewsUnder moves every view whose directory is under prefix to fallback.
	ViewsUnder(ctx context.Context, prefix, fallback string) error
}

// Exec drives the host application through configured command templates.
// Tokens may contain the placeholders {path}, {prefix} and {fallback};
// an empty template turns the corresponding signal into a no-op.
type Exec struct {
	runner       proc.Runner
	jumpCommand  []string
	viewsCommand []string
}

// NewExec creates a redirector from command templates.
func NewExec(runner proc.Runner, jumpCommand, viewsCommand []string) *Exec {
	return &Exec{runner: runner, jumpCommand: jumpCommand, viewsCommand: viewsCommand}
}

// JumpTo runs the jump command template with {path} substituted.
func (e *Exec) JumpTo(ctx context.Context, path string) error {
	return e.run(ctx, e.jumpCommand, map[string]string{"{path}": path})
}

// ViewsUnder runs the views command template with {prefix} and {fallback}
// substituted.
func (e *Exec) ViewsUnder(ctx context.Context, prefix, fallback string) error {
	return e.run(ctx, e.viewsCommand, map[string]string{
		"{prefix}":   prefix,
		"{fallback}": fallback,
	})
}

func (e *Exec) run(ctx context.Context, template []string, vars map[string]string) error {
	if len(template) == 0 {
		return nil
	}
	argv := substitute(template, vars)
	out, err := e.runner.Run(ctx, argv[0], argv[1:]...)
	if err != nil {
		return fmt.Errorf("redirect: %s: %w: %s", argv[0], err, bytes.TrimSpace(out))
	}
	return nil
}

func substitute(template []string, vars map[string]string) []string {
	out := make([]string, len(template))
	for i, tok := range template {
		for placeholder, value := range vars {
			tok = strings.ReplaceAll(tok, placeholder, value)
		}
		out[i] = tok
	}
	return out
}

// Nop ignores all signals, for hosts with no remote-control interface.
type Nop struct{}

// NewNop creates a no-op redirector.
func NewNop() *Nop {
	return &Nop{}
}

// JumpTo does nothing.
func (Nop) JumpTo(ctx context.Context, path string) error { return nil }

// ViewsUnder does nothing.
func (Nop) ViewsUnder(ctx context.Context, prefix, fallback string) error { return nil }

// Move is one recorded ViewsUnder signal.
type Move struct {
	Prefix   string
	Fallback string
}

// Recorder stores signals in memory (for testing).
type Recorder struct {
	mu    sync.Mutex
	jumps []string
	moves []Move
}

// NewRecorder creates a memory-backed redirector.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// JumpTo records the path.
func (r *Recorder) JumpTo(ctx context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jumps = append(r.jumps, path)
	return nil
}

// ViewsUnder records the move.
func (r *Recorder) ViewsUnder(ctx context.Context, prefix, fallback string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.moves = append(r.moves, Move{Prefix: prefix, Fallback: fallback})
	return nil
}

// Jumps returns every recorded jump target.
func (r *Recorder) Jumps() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.jumps))
	copy(out, r.jumps)
	return out
}

// Moves returns every recorded view move.
func (r *Recorder) Moves() []Move {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Move, len(r.moves))
	copy(out, r.moves)
	return out
}
