package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"architect/internal/scoring"
)

// FileName is the workspace configuration file.
const FileName = "architect.yml"

// Config models architect.yml.
type Config struct {
	Scoring   Scoring   `yaml:"scoring" json:"scoring"`
	Generator Generator `yaml:"generator" json:"generator"`
	Server    Server    `yaml:"server" json:"server"`
	Log       Log       `yaml:"log" json:"log"`
}

type Scoring struct {
	Weights   scoring.Weights `yaml:"weights" json:"weights"`
	Threshold float64         `yaml:"threshold" json:"threshold"`
}

type Generator struct {
	Provider     string        `yaml:"provider" json:"provider"`
	Model        string        `yaml:"model" json:"model"`
	BaseURL      string        `yaml:"base_url" json:"base_url"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts"`
	Backoff      time.Duration `yaml:"backoff" json:"backoff"`
	VariantCount int           `yaml:"variant_count" json:"variant_count"`
	APIKeyEnv    string        `yaml:"api_key_env" json:"api_key_env"`
}

type Server struct {
	Addr     string `yaml:"addr" json:"addr"`
	BasePath string `yaml:"base_path" json:"base_path"`
}

type Log struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Scoring: Scoring{
			Weights:   scoring.Canonical(),
			Threshold: scoring.Threshold,
		},
		Generator: Generator{
			Provider:     "gemini",
			Model:        "gemini-2.5-flash",
			BaseURL:      "https://generativelanguage.googleapis.com/v1beta",
			Timeout:      60 * time.Second,
			MaxAttempts:  3,
			Backoff:      time.Second,
			VariantCount: 8,
			APIKeyEnv:    "GEMINI_API_KEY",
		},
		Server: Server{
			Addr:     "127.0.0.1:8080",
			BasePath: "/v0",
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate ensures the config is usable.
func (c *Config) Validate() error {
	w := c.Scoring.Weights
	for name, v := range map[string]float64{
		"alignment":   w.Alignment,
		"feasibility": w.Feasibility,
		"impact":      w.Impact,
		"novelty":     w.Novelty,
	} {
		if v < 0 {
			return fmt.Errorf("config.scoring.weights.%s must not be negative", name)
		}
	}
	if math.Abs(w.Sum()-1) > 1e-9 {
		return fmt.Errorf("config.scoring.weights must sum to 1 (got %.6f)", w.Sum())
	}
	if c.Scoring.Threshold < 0 || c.Scoring.Threshold > 1 {
		return fmt.Errorf("config.scoring.threshold must be within [0,1]")
	}
	switch c.Generator.Provider {
	case "gemini":
	default:
		return fmt.Errorf("config.generator.provider %q is not supported", c.Generator.Provider)
	}
	if c.Generator.Model == "" {
		return fmt.Errorf("config.generator.model is required")
	}
	if c.Generator.MaxAttempts < 1 {
		return fmt.Errorf("config.generator.max_attempts must be at least 1")
	}
	if c.Generator.Timeout < 0 {
		return fmt.Errorf("config.generator.timeout must not be negative")
	}
	if c.Generator.Backoff < 0 {
		return fmt.Errorf("config.generator.backoff must not be negative")
	}
	if c.Generator.VariantCount < 0 {
		return fmt.Errorf("config.generator.variant_count must not be negative")
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("config.log.format must be text or json")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, FileName)
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with arc config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the defaults if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	cfg, err := Load(workspace)
	if err == nil {
		return cfg, nil
	}
	if _, statErr := os.Stat(Path(workspace)); os.IsNotExist(statErr) {
		return Default(), nil
	}
	return nil, err
}

// FromYAML parses and validates config from raw YAML bytes. Missing keys keep
// their default values.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal renders cfg as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// WriteDefault writes the default config into workspace unless one exists.
func WriteDefault(workspace string) (string, error) {
	path := Path(workspace)
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("config %s already exists", path)
	}
	data, err := Default().Marshal()
	if err != nil {
		return path, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return path, err
	}
	return path, os.WriteFile(path, data, 0o644)
}
