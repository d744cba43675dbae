// Package notify delivers fire-and-forget user-facing messages. moorfs is
// usually spawned by a file manager with no visible stdout, so outcomes are
// reported through a configurable sink instead.
package notify

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level classifies a notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notifier delivers messages to a sink.
type Notifier interface {
	Notify(level Level, message string)
	Close() error
}

// New constructs the sink named in the configuration. An empty name means
// stderr.
func New(sink, filePath string) (Notifier, error) {
	switch sink {
	case "", "stderr":
		return NewStderr(), nil
	case "file":
		return NewFile(filePath)
	case "nop":
		return NewNop(), nil
	default:
		return nil, fmt.Errorf("notify.New: unknown sink %q", sink)
	}
}

// Stderr writes plain "moorfs: level: message" lines.
type Stderr struct {
	w  io.Writer
	mu sync.Mutex
}

// NewStderr creates a stderr notifier.
func NewStderr() *Stderr {
	return &Stderr{w: os.Stderr}
}

// Notify writes one line.
func (n *Stderr) Notify(level Level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "moorfs: %s: %s\n", level, message)
}

// Close is a no-op for stderr.
func (n *Stderr) Close() error {
	return nil
}

// Notice is one recorded notification.
type Notice struct {
	Timestamp time.Time `json:"ts"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
}

// File appends JSON lines to a notification log.
type File struct {
	file    *os.File
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewFile creates a file notifier that appends JSONL records to path.
func NewFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("notify.NewFile: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("notify.NewFile: %w", err)
	}
	return &File{file: f, encoder: json.NewEncoder(f)}, nil
}

// Notify appends one record. Encoding failures are swallowed; notification
// is best-effort by contract.
func (n *File) Notify(level Level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	_ = n.encoder.Encode(Notice{Timestamp: time.Now().UTC(), Level: level, Message: message})
}

// Close closes the log file.
func (n *File) Close() error {
	return n.file.Close()
}

// Nop discards all messages.
type Nop struct{}

// NewNop creates a no-op notifier.
func NewNop() *Nop {
	return &Nop{}
}

// Notify discards the message.
func (n *Nop) Notify(level Level, message string) {}

// Close is a no-op.
func (n *Nop) Close() error {
	return nil
}

// Memory stores notices in memory (for testing).
type Memory struct {
	mu      sync.Mutex
	notices []Notice
}

// NewMemory creates a memory-backed notifier.
func NewMemory() *Memory {
	return &Memory{}
}

// Notify stores the notice.
func (n *Memory) Notify(level Level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, Notice{Timestamp: time.Now().UTC(), Level: level, Message: message})
}

// Close is a no-op.
func (n *Memory) Close() error {
	return nil
}

// Notices returns all stored notices.
func (n *Memory) Notices() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notice, len(n.notices))
	copy(out, n.notices)
	return out
}

// Len returns the number of stored notices.
func (n *Memory) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notices)
}
