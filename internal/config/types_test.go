package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jbweber/splice/internal/storage"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "splice.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func validConfig() Config {
	return Config{
		SourcePools: []string{"flash0"},
		Publish: PublishConfig{
			Mode: PublishPool,
			Pool: "splice-volumes",
			Path: "/var/lib/libvirt/images/splice",
		},
		LogLevel: "info",
		Output:   OutputTable,
	}
}

func TestLoadFromFile_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `libvirt:
  socket: /run/libvirt/libvirt-sock
  timeout: 10s
source_pools:
  - flash0
  - flash1
publish:
  mode: Pool
  pool: concat-out
  path: /srv/concat
max_groups: 16
log_level: DEBUG
output: json
`)

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Libvirt.Socket != "/run/libvirt/libvirt-sock" {
		t.Errorf("Expected socket '/run/libvirt/libvirt-sock', got %q", config.Libvirt.Socket)
	}
	if config.Libvirt.Timeout != 10*time.Second {
		t.Errorf("Expected timeout 10s, got %s", config.Libvirt.Timeout)
	}
	if len(config.SourcePools) != 2 || config.SourcePools[1] != "flash1" {
		t.Errorf("Expected source pools [flash0 flash1], got %v", config.SourcePools)
	}
	if config.Publish.Mode != PublishPool {
		t.Errorf("Expected publish mode 'pool', got %q", config.Publish.Mode)
	}
	if config.Publish.Pool != "concat-out" {
		t.Errorf("Expected publish pool 'concat-out', got %q", config.Publish.Pool)
	}
	if config.MaxGroups != 16 {
		t.Errorf("Expected max_groups 16, got %d", config.MaxGroups)
	}
	if config.SlogLevel() != slog.LevelDebug {
		t.Errorf("Expected debug level, got %s", config.SlogLevel())
	}
	if config.Output != OutputJSON {
		t.Errorf("Expected output 'json', got %q", config.Output)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "malformed yaml",
			content: "source_pools: [flash0\n",
			errMsg:  "failed to parse YAML",
		},
		{
			name:    "invalid publish mode",
			content: "publish:\n  mode: nfs\n",
			errMsg:  "mode must be memory or pool",
		},
		{
			name:    "invalid timeout",
			content: "libvirt:\n  timeout: soon\n",
			errMsg:  "failed to parse YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Expected error containing %q, got: %v", tt.errMsg, err)
			}
		})
	}

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file, got nil")
	}
}

func TestLoad_Defaults(t *testing.T) {
	config, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config.Publish.Mode != PublishMemory {
		t.Errorf("Expected default publish mode 'memory', got %q", config.Publish.Mode)
	}
	if config.Publish.Pool != storage.DefaultPublishPool {
		t.Errorf("Expected default pool %q, got %q", storage.DefaultPublishPool, config.Publish.Pool)
	}
	if config.Publish.Path != storage.DefaultPublishPath {
		t.Errorf("Expected default path %q, got %q", storage.DefaultPublishPath, config.Publish.Path)
	}
	if config.LogLevel != "info" {
		t.Errorf("Expected default log level 'info', got %q", config.LogLevel)
	}
	if config.Output != OutputTable {
		t.Errorf("Expected default output 'table', got %q", config.Output)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Default config should validate, got: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid config",
			modify: func(c *Config) {},
		},
		{
			name:   "memory mode ignores pool settings",
			modify: func(c *Config) { c.Publish = PublishConfig{Mode: PublishMemory} },
		},
		{
			name:   "no source pools",
			modify: func(c *Config) { c.SourcePools = nil },
		},
		{
			name:    "empty source pool",
			modify:  func(c *Config) { c.SourcePools = []string{""} },
			wantErr: true,
			errMsg:  "source_pools[0]",
		},
		{
			name:    "source pool with separator",
			modify:  func(c *Config) { c.SourcePools = []string{"flash/0"} },
			wantErr: true,
			errMsg:  "cannot contain",
		},
		{
			name:    "duplicate source pool",
			modify:  func(c *Config) { c.SourcePools = []string{"flash0", "flash0"} },
			wantErr: true,
			errMsg:  "duplicate pool",
		},
		{
			name:    "publish pool is a source pool",
			modify:  func(c *Config) { c.Publish.Pool = "flash0" },
			wantErr: true,
			errMsg:  "also a source pool",
		},
		{
			name:    "relative publish path",
			modify:  func(c *Config) { c.Publish.Path = "images/splice" },
			wantErr: true,
			errMsg:  "absolute path",
		},
		{
			name:    "relative socket",
			modify:  func(c *Config) { c.Libvirt.Socket = "libvirt-sock" },
			wantErr: true,
			errMsg:  "socket",
		},
		{
			name:    "negative timeout",
			modify:  func(c *Config) { c.Libvirt.Timeout = -time.Second },
			wantErr: true,
			errMsg:  "timeout",
		},
		{
			name:    "negative max groups",
			modify:  func(c *Config) { c.MaxGroups = -1 },
			wantErr: true,
			errMsg:  "max_groups",
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: true,
			errMsg:  "log_level",
		},
		{
			name:    "unknown output",
			modify:  func(c *Config) { c.Output = "xml" },
			wantErr: true,
			errMsg:  "output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.modify(&config)

			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Expected error containing %q, got: %v", tt.errMsg, err)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	config := Config{
		SourcePools: []string{"Flash0"},
		Publish:     PublishConfig{Mode: " POOL "},
		LogLevel:    " Warn ",
		Output:      "YAML",
	}
	config.Normalize()

	if config.Publish.Mode != PublishPool {
		t.Errorf("Mode: expected 'pool', got %q", config.Publish.Mode)
	}
	if config.LogLevel != "warn" {
		t.Errorf("LogLevel: expected 'warn', got %q", config.LogLevel)
	}
	if config.Output != OutputYAML {
		t.Errorf("Output: expected 'yaml', got %q", config.Output)
	}
	// Pool names should NOT be normalized
	if config.SourcePools[0] != "Flash0" {
		t.Errorf("SourcePools: expected 'Flash0', got %q", config.SourcePools[0])
	}
}

func TestNormalize_PreservesExplicitPublishSettings(t *testing.T) {
	config := Config{Publish: PublishConfig{Pool: "custom", Path: "/srv/custom"}}
	config.Normalize()

	if config.Publish.Pool != "custom" {
		t.Errorf("Pool: expected 'custom', got %q", config.Publish.Pool)
	}
	if config.Publish.Path != "/srv/custom" {
		t.Errorf("Path: expected '/srv/custom', got %q", config.Publish.Path)
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{level: "debug", want: slog.LevelDebug},
		{level: "info", want: slog.LevelInfo},
		{level: "warn", want: slog.LevelWarn},
		{level: "error", want: slog.LevelError},
		{level: "bogus", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			c := Config{LogLevel: tt.level}
			if got := c.SlogLevel(); got != tt.want {
				t.Errorf("SlogLevel() = %s, want %s", got, tt.want)
			}
		})
	}
}
