package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// API configures the remote content source.
type API struct {
	Endpoint     string `yaml:"endpoint"`
	Key          string `yaml:"key"`
	Language     string `yaml:"language"`
	ArticleCount int    `yaml:"article_count"`
	SortBy       string `yaml:"sort_by"`
}

// Feed is an optional RSS/Atom source pulled alongside the API.
type Feed struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

type Config struct {
	API              API    `yaml:"api"`
	Feeds            []Feed `yaml:"feeds,omitempty"`
	RelayURL         string `yaml:"relay_url"`
	RetentionBatches int    `yaml:"retention_batches"`
	LogLevel         string `yaml:"log_level,omitempty"`
}

// APIKey returns the resolved API key (config or env var).
func (c *Config) APIKey() string {
	if c.API.Key != "" {
		return c.API.Key
	}
	return os.Getenv("NEWSVAULT_API_KEY")
}

// Retention returns the batch ceiling, defaulting to 10.
func (c *Config) Retention() int {
	if c.RetentionBatches <= 0 {
		return 10
	}
	return c.RetentionBatches
}

func (c *Config) EnabledFeeds() []Feed {
	var out []Feed
	for _, f := range c.Feeds {
		if f.Enabled {
			out = append(out, f)
		}
	}
	return out
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "newsvault", "config.yaml")
}

func StorePath() string {
	return filepath.Join(xdg.DataHome, "newsvault", "newsvault.db")
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
			// Write defaults to config path on first run
			if err := writeDefaults(path); err != nil {
				// Non-fatal: just use embedded defaults
				return defaults, nil
			}
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
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
	if cfg.API.Endpoint == "" {
		return fmt.Errorf("api: endpoint is required")
	}
	if err := checkURL("api endpoint", cfg.API.Endpoint); err != nil {
		return err
	}
	if cfg.RelayURL == "" {
		return fmt.Errorf("relay_url is required")
	}
	for _, f := range cfg.Feeds {
		if f.Name == "" {
			return fmt.Errorf("feed: name is required")
		}
		if err := checkURL(fmt.Sprintf("feed %q", f.Name), f.URL); err != nil {
			return err
		}
	}
	return nil
}

func checkURL(what, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid url: %w", what, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s: url scheme must be http or https, got %q", what, u.Scheme)
	}
	return nil
}
