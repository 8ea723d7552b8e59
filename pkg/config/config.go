package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/e2llm/repomd-janitor/pkg/retention"
)

// Config supplies defaults for the command line flags. Flags given on the
// command line take precedence over file values.
type Config struct {
	Backend    string `yaml:"backend"`
	S3Endpoint string `yaml:"s3_endpoint"`
	Retain     int    `yaml:"retain"`
	Strategy   string `yaml:"strategy"`
	LogLevel   string `yaml:"log_level"`
}

func Default() Config {
	return Config{
		Backend:  "fs",
		Retain:   0,
		Strategy: "classic",
		LogLevel: "info",
	}
}

// Load reads a YAML config file, fills unset fields with defaults and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	if cfg.Strategy == "" {
		cfg.Strategy = "classic"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Backend {
	case "fs", "s3":
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Retain < retention.RetainAll {
		return fmt.Errorf("retain must be >= -1, got %d", c.Retain)
	}
	if _, err := retention.ParseStrategy(c.Strategy); err != nil {
		return err
	}
	switch c.LogLevel {
	case "error", "info", "debug":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}
