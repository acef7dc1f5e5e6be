// Package config loads nlcmd's configuration: hard-coded defaults overlaid
// by an optional YAML file. The result is treated as immutable after load.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML accepts "10s" style strings or a
// plain number of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("invalid duration value")
	}
	if parsed, err := time.ParseDuration(s); err == nil {
		*d = Duration(parsed)
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	return fmt.Errorf("invalid duration %q", s)
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full runtime configuration.
type Config struct {
	Model ModelConfig `yaml:"model"`
	Exec  ExecConfig  `yaml:"exec"`

	// PolicyPath points to an optional YAML file of extra blocked patterns.
	PolicyPath string `yaml:"policy_path"`
	// AuditLog is the JSONL audit log path. Empty disables auditing.
	AuditLog string `yaml:"audit_log"`
}

// ModelConfig controls the model intent strategy.
type ModelConfig struct {
	// Enabled gates the model strategy entirely. When false the pipeline
	// runs pattern-only.
	Enabled bool `yaml:"enabled"`
	// Backend selects the inference backend: "openai" or "bedrock".
	Backend string `yaml:"backend"`

	// OpenAI-compatible backend settings. The API key is never stored in
	// the file; it comes from the NLCMD_API_KEY environment variable.
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`

	// Bedrock backend settings.
	Region string `yaml:"region"`

	MaxTokens    int      `yaml:"max_tokens"`
	Timeout      Duration `yaml:"timeout"`
	Retries      int      `yaml:"retries"`
	RetryBackoff Duration `yaml:"retry_backoff"`
}

// ExecConfig controls command execution.
type ExecConfig struct {
	Timeout        Duration `yaml:"timeout"`
	MaxOutputBytes int      `yaml:"max_output_bytes"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Model: ModelConfig{
			Enabled:      false,
			Backend:      "openai",
			Endpoint:     "https://api.openai.com/v1/chat/completions",
			Model:        "gpt-4o-mini",
			MaxTokens:    200,
			Timeout:      Duration(10 * time.Second),
			Retries:      2,
			RetryBackoff: Duration(time.Second),
		},
		Exec: ExecConfig{
			Timeout:        Duration(30 * time.Second),
			MaxOutputBytes: 64 * 1024,
		},
		AuditLog: "",
	}
}

// DefaultPath returns the conventional config file location,
// ~/.nlcmd/config.yaml, or "" if the home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".nlcmd", "config.yaml")
}

// Load reads the config file at path and overlays it on the defaults.
// A missing file is not an error; the defaults apply. path == "" means
// DefaultPath().
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// APIKey returns the inference API key from the environment.
func APIKey() string {
	return os.Getenv("NLCMD_API_KEY")
}

func (c Config) validate() error {
	switch c.Model.Backend {
	case "openai", "bedrock":
	default:
		return fmt.Errorf("unknown model backend %q", c.Model.Backend)
	}
	if c.Model.Timeout < 0 || c.Model.RetryBackoff < 0 {
		return fmt.Errorf("model timeouts must not be negative")
	}
	if c.Model.Retries < 0 {
		return fmt.Errorf("model retries must not be negative")
	}
	if c.Exec.Timeout <= 0 {
		return fmt.Errorf("exec timeout must be positive")
	}
	if c.Exec.MaxOutputBytes <= 0 {
		return fmt.Errorf("exec max_output_bytes must be positive")
	}
	return nil
}
