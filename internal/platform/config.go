package platform

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk project configuration (litedoc.yaml).
type Config struct {
	// Connection is the connection target, as accepted by Init.
	Connection string `yaml:"connection"`
	Adapter    string `yaml:"adapter,omitempty"`
	LogLevel   string `yaml:"log_level,omitempty"`
	ReadOnly   bool   `yaml:"read_only,omitempty"`
}

// LoadConfig reads a YAML configuration file. A relative Filename in the
// connection target is resolved against the file's directory.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.Connection == "" && cfg.Adapter != AdapterMemory {
		return nil, fmt.Errorf("config %s: connection is required", path)
	}

	cfg.Connection = resolveConnection(cfg.Connection, filepath.Dir(path))
	return &cfg, nil
}

// resolveConnection anchors a relative database path at base.
func resolveConnection(target, base string) string {
	if target == "" {
		return target
	}
	if !strings.Contains(target, "=") {
		if target == ":memory:" || filepath.IsAbs(target) {
			return target
		}
		return filepath.Join(base, target)
	}

	parts := strings.Split(target, ";")
	for i, part := range parts {
		key, value, ok := strings.Cut(part, "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "filename") {
			continue
		}
		value = strings.TrimSpace(value)
		if value != ":memory:" && !filepath.IsAbs(value) {
			parts[i] = key + "=" + filepath.Join(base, value)
		}
	}
	return strings.Join(parts, ";")
}

// Options converts the configuration into Init options.
func (c *Config) Options() []Option {
	var opts []Option
	if c.Adapter != "" {
		opts = append(opts, WithAdapter(c.Adapter))
	}
	if c.ReadOnly {
		opts = append(opts, WithReadOnly(true))
	}
	return opts
}

// Level parses LogLevel. Unknown or empty values mean info.
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return level
}
