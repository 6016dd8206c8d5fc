package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources []Source `yaml:"sources"`
	Oracle  Oracle   `yaml:"oracle"`
	Scan    Scan     `yaml:"scan"`
	Gateway Gateway  `yaml:"gateway"`
	Output  Output   `yaml:"output"`
	Logging Logging  `yaml:"logging"`
}

// Source describes one external feed. Static feeds are fetched as-is;
// search feeds interpolate the query into the URL template.
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	Kind string `yaml:"kind"` // "rss", "atom" or "search"
}

type Oracle struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	OllamaURL   string `yaml:"ollama_url"`
	OpenAIModel string `yaml:"openai_model"`
	APIKeyEnv   string `yaml:"api_key_env"`
	MaxTokens   int    `yaml:"max_tokens"`
}

type Scan struct {
	MaxQueries        int           `yaml:"max_queries"`
	MaxItemsPerSource int           `yaml:"max_items_per_source"`
	Workers           int           `yaml:"workers"`
	FetchTimeout      time.Duration `yaml:"fetch_timeout"`
	Deadline          time.Duration `yaml:"deadline"`
	TopEntities       int           `yaml:"top_entities"`
	EnrichThreshold   int           `yaml:"enrich_threshold"`
}

type Gateway struct {
	Port        int    `yaml:"port"`
	AuthKeyEnv  string `yaml:"auth_key_env"`
	OracleScore bool   `yaml:"oracle_score"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for ariascan.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "ariascan")
}

// DataDir returns the XDG data directory for ariascan.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "ariascan")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/ariascan/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'ariascan init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Oracle: Oracle{
			Provider:    "ollama",
			Model:       "qwen2.5:7b",
			OllamaURL:   "http://localhost:11434",
			OpenAIModel: "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			MaxTokens:   512,
		},
		Scan: Scan{
			MaxQueries:        20,
			MaxItemsPerSource: 8,
			Workers:           runtime.NumCPU() * 4,
			FetchTimeout:      10 * time.Second,
			Deadline:          60 * time.Second,
			TopEntities:       10,
			EnrichThreshold:   280,
		},
		Gateway: Gateway{
			Port:       8700,
			AuthKeyEnv: "ARIA_INGEST_KEY",
		},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Scan.Workers < 1 {
		cfg.Scan.Workers = 1
	}
	if cfg.Scan.MaxQueries < 1 {
		cfg.Scan.MaxQueries = 1
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// AuthKey resolves the gateway shared secret from the environment.
func (c *Config) AuthKey() string {
	return os.Getenv(c.Gateway.AuthKeyEnv)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
