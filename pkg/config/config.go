package config

import (
	"fmt"
)

// Config is the top-level moorfs configuration.
type Config struct {
	MountDir          string   `yaml:"mount_dir"`           // root directory for mount points
	PasswordAttempts  int      `yaml:"password_attempts"`   // password retries after key auth fails
	DefaultMountPoint string   `yaml:"default_mount_point"` // "home", "root", "ask"
	DefaultUser       string   `yaml:"default_user"`        // "auto", "prompt"
	MountOptions      []string `yaml:"mount_options"`       // raw tokens forwarded to sshfs
	SSHConfig         string   `yaml:"ssh_config"`          // ssh client config to harvest hosts from
	HostList          string   `yaml:"host_list"`           // custom host list, one entry per line
	SSHFSBinary       string   `yaml:"sshfs_binary"`
	MountTableBinary  string   `yaml:"mount_table_binary"`

	Notify   NotifyConfig   `yaml:"notify"`
	Redirect RedirectConfig `yaml:"redirect"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// NotifyConfig configures where user-facing notifications go.
type NotifyConfig struct {
	Sink     string `yaml:"sink"` // "stderr", "file", "nop"
	FilePath string `yaml:"file_path"`
}

// RedirectConfig holds the command templates used to steer the host
// application. Tokens may contain the placeholders {path}, {prefix}
// and {fallback}. Empty templates disable redirection.
type RedirectConfig struct {
	JumpCommand  []string `yaml:"jump_command"`
	ViewsCommand []string `yaml:"views_command"`
}

// MetricsConfig configures the Prometheus textfile flush.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // written on exit; empty disables
}

// Validate checks the configuration for logical errors.
func (c *Config) Validate() error {
	if c.MountDir == "" {
		return fmt.Errorf("config: mount_dir cannot be empty")
	}
	if c.PasswordAttempts < 1 {
		return fmt.Errorf("config: password_attempts must be >= 1, got %d", c.PasswordAttempts)
	}
	switch c.DefaultMountPoint {
	case "home", "root", "ask":
	default:
		return fmt.Errorf("config: unknown default_mount_point %q", c.DefaultMountPoint)
	}
	switch c.DefaultUser {
	case "auto", "prompt":
	default:
		return fmt.Errorf("config: unknown default_user %q", c.DefaultUser)
	}
	switch c.Notify.Sink {
	case "stderr", "file", "nop":
	default:
		return fmt.Errorf("config: unknown notify sink %q", c.Notify.Sink)
	}
	if c.Notify.Sink == "file" && c.Notify.FilePath == "" {
		return fmt.Errorf("config: notify sink %q requires file_path", c.Notify.Sink)
	}
	if c.SSHFSBinary == "" {
		return fmt.Errorf("config: sshfs_binary cannot be empty")
	}
	if c.MountTableBinary == "" {
		return fmt.Errorf("config: mount_table_binary cannot be empty")
	}
	return nil
}
