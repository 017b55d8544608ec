package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

type GeneratorConfig struct {
	Provider    string `yaml:"provider"` // "gemini" or "openai"
	APIKey      string `yaml:"api_key"`
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url,omitempty"`
	Spacing     string `yaml:"spacing"`
	BaseDelay   string `yaml:"base_delay"`
	MaxRetries  int    `yaml:"max_retries"`
	CallTimeout string `yaml:"call_timeout"`
}

type AssetsConfig struct {
	Engine string `yaml:"engine"` // "sqlite" or "file"
	Dir    string `yaml:"dir,omitempty"`
}

type Config struct {
	Generator GeneratorConfig `yaml:"generator"`
	Assets    AssetsConfig    `yaml:"assets"`
	LogLevel  string          `yaml:"log_level"`
}

const (
	defaultSpacing     = 2 * time.Second
	defaultBaseDelay   = 5 * time.Second
	defaultMaxRetries  = 3
	defaultCallTimeout = 60 * time.Second
)

// AIEnabled returns true if a generator API key is available.
func (c *Config) AIEnabled() bool {
	return c.AIKey() != ""
}

// AIKey returns the resolved API key (config or env var).
func (c *Config) AIKey() string {
	if c.Generator.APIKey != "" {
		return c.Generator.APIKey
	}
	return os.Getenv("LARDER_AI_KEY")
}

func (c *Config) SpacingDuration() time.Duration {
	return parseDuration(c.Generator.Spacing, defaultSpacing)
}

func (c *Config) BaseDelayDuration() time.Duration {
	return parseDuration(c.Generator.BaseDelay, defaultBaseDelay)
}

func (c *Config) CallTimeoutDuration() time.Duration {
	return parseDuration(c.Generator.CallTimeout, defaultCallTimeout)
}

// GetMaxRetries returns the rate-limit retry ceiling, defaulting to 3.
func (c *Config) GetMaxRetries() int {
	if c.Generator.MaxRetries <= 0 {
		return defaultMaxRetries
	}
	return c.Generator.MaxRetries
}

// AssetDir returns where the file engine keeps generated images.
func (c *Config) AssetDir() string {
	if c.Assets.Dir != "" {
		return c.Assets.Dir
	}
	return filepath.Join(xdg.CacheHome, "larder", "assets")
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "larder", "config.yaml")
}

func DataPath() string {
	return filepath.Join(xdg.DataHome, "larder", "larder.db")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Write defaults to config path on first run; failure is non-fatal
			_ = writeDefaults(path)
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Decode over the defaults so omitted keys keep their default value
	cfg := *defaults
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	switch cfg.Generator.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("generator: unknown provider %q (valid: gemini, openai)", cfg.Generator.Provider)
	}
	switch cfg.Assets.Engine {
	case "sqlite", "file":
	default:
		return fmt.Errorf("assets: unknown engine %q (valid: sqlite, file)", cfg.Assets.Engine)
	}
	for name, v := range map[string]string{
		"spacing":      cfg.Generator.Spacing,
		"base_delay":   cfg.Generator.BaseDelay,
		"call_timeout": cfg.Generator.CallTimeout,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("generator: invalid %s %q: %w", name, v, err)
		}
	}
	if cfg.Generator.MaxRetries < 0 {
		return fmt.Errorf("generator: max_retries must not be negative, got %d", cfg.Generator.MaxRetries)
	}
	return nil
}
