package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Fetch   Fetch   `yaml:"fetch"`
	Output  Output  `yaml:"output"`
	Analyze Analyze `yaml:"analyze"`
	Server  Server  `yaml:"server"`
}

type Fetch struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	PageLimit   int    `yaml:"page_limit"`
	Concurrency int    `yaml:"concurrency"`
	// StartDate and EndDate bound the downloaded date_started range,
	// YYYYMMDD inclusive.
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
}

type Output struct {
	DataDir  string `yaml:"data_dir"`
	ChartDir string `yaml:"chart_dir"`
}

type Analyze struct {
	DefaultStartYear int `yaml:"default_start_year"`
}

type Server struct {
	Port int `yaml:"port"`
}

// ConfigDir returns the XDG config directory for foodevents.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "foodevents")
}

// DataDir returns the XDG data directory for foodevents.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "foodevents")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/foodevents/config.yaml > ./config.yaml
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
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'foodevents init' to create a default config",
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
		Fetch: Fetch{
			BaseURL:     "https://api.fda.gov/food/event.json",
			APIKeyEnv:   "FDA_API_KEY",
			PageLimit:   100,
			Concurrency: 3,
			StartDate:   "20000101",
			EndDate:     "20250930",
		},
		Analyze: Analyze{DefaultStartYear: 2000},
		Server:  Server{Port: 8000},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective raw-data directory.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return filepath.Join(DataDir(), "data")
}

// GetChartDir returns the effective directory for saved runs.
func (c *Config) GetChartDir() string {
	if c.Output.ChartDir != "" {
		return c.Output.ChartDir
	}
	return filepath.Join(DataDir(), "charts")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
