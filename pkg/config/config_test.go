package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	content := `
mount_dir: /tmp/mnt
password_attempts: 5
default_mount_point: root
default_user: prompt
mount_options:
  - -o
  - reconnect
ssh_config: /etc/ssh/ssh_config
host_list: /tmp/hosts
sshfs_binary: /usr/local/bin/sshfs
mount_table_binary: /bin/mount
notify:
  sink: nop
redirect:
  jump_command: ["lf", "-remote", "send cd {path}"]
  views_command: ["lf", "-remote", "send views {prefix} {fallback}"]
metrics:
  textfile: /tmp/moorfs.prom
`
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.MountDir != "/tmp/mnt" {
		t.Errorf("MountDir = %q, want /tmp/mnt", cfg.MountDir)
	}
	if cfg.PasswordAttempts != 5 {
		t.Errorf("PasswordAttempts = %d, want 5", cfg.PasswordAttempts)
	}
	if cfg.DefaultMountPoint != "root" {
		t.Errorf("DefaultMountPoint = %q, want root", cfg.DefaultMountPoint)
	}
	if cfg.DefaultUser != "prompt" {
		t.Errorf("DefaultUser = %q, want prompt", cfg.DefaultUser)
	}
	if len(cfg.MountOptions) != 2 || cfg.MountOptions[1] != "reconnect" {
		t.Errorf("MountOptions = %v, want [-o reconnect]", cfg.MountOptions)
	}
	if cfg.Notify.Sink != "nop" {
		t.Errorf("Notify.Sink = %q, want nop", cfg.Notify.Sink)
	}
	if len(cfg.Redirect.JumpCommand) != 3 {
		t.Errorf("Redirect.JumpCommand = %v, want 3 tokens", cfg.Redirect.JumpCommand)
	}
	if cfg.Metrics.Textfile != "/tmp/moorfs.prom" {
		t.Errorf("Metrics.Textfile = %q, want /tmp/moorfs.prom", cfg.Metrics.Textfile)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "no-such-config.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.MountDir != filepath.Join(home, ".local/share/moorfs/mounts") {
		t.Errorf("MountDir = %q, want it under %s", cfg.MountDir, home)
	}
	if cfg.PasswordAttempts != 3 {
		t.Errorf("PasswordAttempts = %d, want 3", cfg.PasswordAttempts)
	}
	if cfg.DefaultMountPoint != "home" {
		t.Errorf("DefaultMountPoint = %q, want home", cfg.DefaultMountPoint)
	}
	if cfg.DefaultUser != "auto" {
		t.Errorf("DefaultUser = %q, want auto", cfg.DefaultUser)
	}
	if cfg.SSHConfig != filepath.Join(home, ".ssh/config") {
		t.Errorf("SSHConfig = %q, want ~/.ssh/config expanded", cfg.SSHConfig)
	}
	if cfg.HostList != filepath.Join(home, ".config/moorfs/hosts") {
		t.Errorf("HostList = %q, want ~/.config/moorfs/hosts expanded", cfg.HostList)
	}
	if cfg.SSHFSBinary != "sshfs" {
		t.Errorf("SSHFSBinary = %q, want sshfs", cfg.SSHFSBinary)
	}
	if cfg.MountTableBinary != "mount" {
		t.Errorf("MountTableBinary = %q, want mount", cfg.MountTableBinary)
	}
	if cfg.Notify.Sink != "stderr" {
		t.Errorf("Notify.Sink = %q, want stderr", cfg.Notify.Sink)
	}
}

func TestLoad_DefaultMountOptions(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "none.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := []string{"-o", "reconnect", "-o", "ServerAliveInterval=15", "-o", "ConnectTimeout=10"}
	if len(cfg.MountOptions) != len(want) {
		t.Fatalf("MountOptions = %v, want %v", cfg.MountOptions, want)
	}
	for i := range want {
		if cfg.MountOptions[i] != want[i] {
			t.Errorf("MountOptions[%d] = %q, want %q", i, cfg.MountOptions[i], want[i])
		}
	}
}

func TestLoad_ExplicitEmptyMountOptions(t *testing.T) {
	content := `
mount_dir: /tmp/mnt
mount_options: []
`
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.MountOptions) != 0 {
		t.Errorf("MountOptions = %v, want empty (explicit [] disables defaults)", cfg.MountOptions)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("MOORFS_TEST_DIR", "/srv/mounts")
	content := `
mount_dir: ${MOORFS_TEST_DIR}
`
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MountDir != "/srv/mounts" {
		t.Errorf("MountDir = %q, want /srv/mounts", cfg.MountDir)
	}
}

func TestLoad_NotifyFileDefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	content := `
notify:
  sink: file
`
	cfgPath := filepath.Join(home, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !strings.HasPrefix(cfg.Notify.FilePath, home) {
		t.Errorf("Notify.FilePath = %q, want default under %s", cfg.Notify.FilePath, home)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("mount_dir: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(cfgPath); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative password attempts", func(c *Config) { c.PasswordAttempts = -1 }},
		{"unknown mount point mode", func(c *Config) { c.DefaultMountPoint = "somewhere" }},
		{"unknown user mode", func(c *Config) { c.DefaultUser = "guess" }},
		{"unknown notify sink", func(c *Config) { c.Notify.Sink = "syslog" }},
		{"file sink without path", func(c *Config) { c.Notify.Sink = "file"; c.Notify.FilePath = "" }},
		{"empty mount dir", func(c *Config) { c.MountDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.applyDefaults()
			cfg.MountDir = "/tmp/mnt"
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error for %s", tt.name)
			}
		})
	}
}

func TestValidate_BadPasswordAttemptsFromFile(t *testing.T) {
	content := `
password_attempts: -2
`
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(cfgPath)
	if err == nil {
		t.Fatal("expected error for negative password_attempts, got nil")
	}
	if !strings.Contains(err.Error(), "password_attempts") {
		t.Errorf("error should mention password_attempts, got: %v", err)
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		input string
		want  string
	}{
		{"~", home},
		{"~/mounts", filepath.Join(home, "mounts")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"", ""},
		{"~user/path", "~user/path"},
	}
	for _, tt := range tests {
		got, err := ExpandHome(tt.input)
		if err != nil {
			t.Errorf("ExpandHome(%q) error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
