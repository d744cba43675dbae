package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a moorfs configuration file. A missing file is not
// an error: every key has a default. Supports environment variable
// expansion in string values via ${VAR} syntax.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Defaults only.
	default:
		return nil, fmt.Errorf("config.Load: read %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MountDir == "" {
		c.MountDir = "~/.local/share/moorfs/mounts"
	}
	if c.PasswordAttempts == 0 {
		c.PasswordAttempts = 3
	}
	if c.DefaultMountPoint == "" {
		c.DefaultMountPoint = "home"
	}
	if c.DefaultUser == "" {
		c.DefaultUser = "auto"
	}
	// A nil slice means unset; an explicit empty list disables the defaults.
	if c.MountOptions == nil {
		c.MountOptions = []string{
			"-o", "reconnect",
			"-o", "ServerAliveInterval=15",
			"-o", "ConnectTimeout=10",
		}
	}
	if c.SSHConfig == "" {
		c.SSHConfig = "~/.ssh/config"
	}
	if c.HostList == "" {
		c.HostList = "~/.config/moorfs/hosts"
	}
	if c.SSHFSBinary == "" {
		c.SSHFSBinary = "sshfs"
	}
	if c.MountTableBinary == "" {
		c.MountTableBinary = "mount"
	}
	if c.Notify.Sink == "" {
		c.Notify.Sink = "stderr"
	}
	if c.Notify.Sink == "file" && c.Notify.FilePath == "" {
		c.Notify.FilePath = "~/.local/state/moorfs/notify.jsonl"
	}
}

// expandPaths rewrites leading "~/" in every path-valued key.
func (c *Config) expandPaths() error {
	for _, p := range []*string{
		&c.MountDir,
		&c.SSHConfig,
		&c.HostList,
		&c.Notify.FilePath,
		&c.Metrics.Textfile,
	} {
		expanded, err := ExpandHome(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// ExpandHome rewrites a leading "~" or "~/" to the current user's home
// directory. Other strings pass through unchanged.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config.ExpandHome: %q: %w", path, err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}
