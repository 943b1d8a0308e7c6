package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/splice/internal/naming"
	"github.com/jbweber/splice/internal/storage"
)

// PublishMode selects where composite volumes are published.
type PublishMode string

const (
	// PublishMemory keeps publications in an in-memory table for the
	// lifetime of the process.
	PublishMemory PublishMode = "memory"

	// PublishPool writes a descriptor volume per composite into a libvirt pool.
	PublishPool PublishMode = "pool"
)

// Output formats understood by the CLI.
const (
	OutputTable = "table"
	OutputYAML  = "yaml"
	OutputJSON  = "json"
)

// Config is the splice tool configuration.
type Config struct {
	Libvirt     LibvirtConfig `yaml:"libvirt,omitempty"`
	SourcePools []string      `yaml:"source_pools"`         // Pools whose volumes are offered as devices
	Publish     PublishConfig `yaml:"publish,omitempty"`    // Where composites are published
	MaxGroups   int           `yaml:"max_groups,omitempty"` // Pending group limit, 0 means unlimited
	LogLevel    string        `yaml:"log_level,omitempty"`  // debug, info, warn, error (default: info)
	Output      string        `yaml:"output,omitempty"`     // table, yaml, json (default: table)
}

// LibvirtConfig defines how to reach the libvirt daemon.
type LibvirtConfig struct {
	Socket  string        `yaml:"socket,omitempty"`  // Unix socket path (default: qemu:///system socket)
	Timeout time.Duration `yaml:"timeout,omitempty"` // Connect timeout, e.g. "5s"
}

// PublishConfig defines where composite volumes are published.
type PublishConfig struct {
	Mode PublishMode `yaml:"mode,omitempty"` // memory or pool (default: memory)
	Pool string      `yaml:"pool,omitempty"` // Descriptor pool (default: "splice-volumes")
	Path string      `yaml:"path,omitempty"` // Directory backing the pool when it is created
}

// Default returns a normalized configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Validate checks the configuration for errors.
// Does not check that pools exist in libvirt - only config structure.
func (c *Config) Validate() error {
	poolsSeen := make(map[string]bool)
	for i, pool := range c.SourcePools {
		if err := validatePoolName(pool); err != nil {
			return fmt.Errorf("source_pools[%d]: %w", i, err)
		}
		if poolsSeen[pool] {
			return fmt.Errorf("source_pools[%d]: duplicate pool %q", i, pool)
		}
		poolsSeen[pool] = true
	}

	if err := c.Libvirt.Validate(); err != nil {
		return fmt.Errorf("libvirt: %w", err)
	}

	if err := c.Publish.Validate(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	if c.Publish.Mode == PublishPool && poolsSeen[c.Publish.Pool] {
		return fmt.Errorf("publish: pool %q is also a source pool", c.Publish.Pool)
	}

	if c.MaxGroups < 0 {
		return fmt.Errorf("max_groups must be >= 0, got %d", c.MaxGroups)
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	switch c.Output {
	case OutputTable, OutputYAML, OutputJSON:
	default:
		return fmt.Errorf("output must be one of table, yaml, json, got %q", c.Output)
	}

	return nil
}

// Validate checks libvirt connection settings.
func (l *LibvirtConfig) Validate() error {
	if l.Socket != "" && !filepath.IsAbs(l.Socket) {
		return fmt.Errorf("socket must be an absolute path, got %q", l.Socket)
	}
	if l.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %s", l.Timeout)
	}
	return nil
}

// Validate checks publication settings.
func (p *PublishConfig) Validate() error {
	switch p.Mode {
	case PublishMemory:
		return nil
	case PublishPool:
	default:
		return fmt.Errorf("mode must be memory or pool, got %q", p.Mode)
	}

	if err := validatePoolName(p.Pool); err != nil {
		return fmt.Errorf("pool: %w", err)
	}
	if !filepath.IsAbs(p.Path) {
		return fmt.Errorf("path must be an absolute path, got %q", p.Path)
	}
	return nil
}

// validatePoolName checks a libvirt pool name. Pool names end up in device
// identifiers, so they cannot contain the identifier separator.
func validatePoolName(name string) error {
	if name == "" {
		return fmt.Errorf("pool name is required")
	}
	if strings.Contains(name, naming.IDSeparator) {
		return fmt.Errorf("pool name cannot contain %q, got %q", naming.IDSeparator, name)
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("pool name cannot have surrounding whitespace, got %q", name)
	}
	return nil
}

// Normalize sanitizes user input to consistent formats and applies defaults.
// This is called automatically by LoadFromFile before validation.
func (c *Config) Normalize() {
	// Note: pool names are NOT normalized - they must match hypervisor config exactly

	c.Publish.Mode = PublishMode(strings.ToLower(strings.TrimSpace(string(c.Publish.Mode))))
	if c.Publish.Mode == "" {
		c.Publish.Mode = PublishMemory
	}
	if c.Publish.Pool == "" {
		c.Publish.Pool = storage.DefaultPublishPool
	}
	if c.Publish.Path == "" {
		c.Publish.Path = storage.DefaultPublishPath
	}

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	c.Output = strings.ToLower(strings.TrimSpace(c.Output))
	if c.Output == "" {
		c.Output = OutputTable
	}
}

// SlogLevel returns the configured log level. Unknown levels map to info.
func (c *Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown level %q", s)
	}
	return level, nil
}

// LoadFromFile loads the tool configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Normalize user input before validation
	config.Normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Load loads the configuration at path, or the defaults when path is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFromFile(path)
}
