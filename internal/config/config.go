package config

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "repobrief.yaml"

// Config represents the repobrief.yaml configuration.
type Config struct {
	Root      string        `yaml:"root"`
	Ignore    []string      `yaml:"ignore"`
	Output    OutputConfig  `yaml:"output"`
	Exporters []string      `yaml:"exporters"`
	History   HistoryConfig `yaml:"history"`
	Log       LogConfig     `yaml:"log"`
}

// OutputConfig controls where and how output artifacts are generated.
type OutputConfig struct {
	Dir              string `yaml:"dir"`
	MaxContextTokens int    `yaml:"max_context_tokens"`
}

// HistoryConfig controls the run history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	File    string `yaml:"file"`
}

// LogConfig controls the stderr logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Root: ".",
		Ignore: []string{
			"**/*.min.js",
			"**/*.lock",
			"vendor/**",
		},
		Output: OutputConfig{
			Dir:              ".repobrief",
			MaxContextTokens: 4000,
		},
		Exporters: []string{"claude", "cursor", "codex", "markdown"},
		History: HistoryConfig{
			Enabled: true,
			File:    "history.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a configuration file from the given path.
// Missing fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = ".repobrief"
	}
	if cfg.Output.MaxContextTokens <= 0 {
		cfg.Output.MaxContextTokens = 4000
	}
	if cfg.History.File == "" {
		cfg.History.File = "history.db"
	}

	return cfg, nil
}

// IsExporterEnabled returns true if the named export target is enabled.
func (c *Config) IsExporterEnabled(name string) bool {
	return slices.Contains(c.Exporters, name)
}
