package config

import (
	"fmt"
	"os"
	"time"

	"github.com/vitos/crypto_price_tracker/internal/domain"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Polling PollingConfig `yaml:"polling"`
	Sources SourcesConfig `yaml:"sources"`
	Metrics MetricsConfig `yaml:"metrics"`
	Assets  AssetsConfig  `yaml:"assets"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type PollingConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type SourcesConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	BinanceURL    string        `yaml:"binance_url"`
	ProxyURL      string        `yaml:"proxy_url"`
	CoinGeckoURL  string        `yaml:"coingecko_url"`
	KrakenURL     string        `yaml:"kraken_url"`
	HighLowPolicy string        `yaml:"high_low_policy"` // prefer_upstream | synthesize
}

type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
}

type AssetsConfig struct {
	Default string   `yaml:"default"`
	Compare []string `yaml:"compare"`
}

// Default returns the configuration used when a field is left empty.
func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Server:  ServerConfig{Port: 8080},
		Storage: StorageConfig{Path: "tracker.db"},
		Polling: PollingConfig{Interval: 10 * time.Second},
		Sources: SourcesConfig{
			Timeout:       10 * time.Second,
			BinanceURL:    "https://api.binance.com",
			ProxyURL:      "https://api.allorigins.win",
			CoinGeckoURL:  "https://api.coingecko.com",
			KrakenURL:     "https://api.kraken.com",
			HighLowPolicy: "prefer_upstream",
		},
		Metrics: MetricsConfig{Namespace: "crypto_price_tracker"},
		Assets:  AssetsConfig{Default: domain.Bitcoin.ID},
	}
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Storage.Path == "" {
		c.Storage.Path = d.Storage.Path
	}
	if c.Polling.Interval == 0 {
		c.Polling.Interval = d.Polling.Interval
	}
	if c.Sources.Timeout == 0 {
		c.Sources.Timeout = d.Sources.Timeout
	}
	if c.Sources.HighLowPolicy == "" {
		c.Sources.HighLowPolicy = d.Sources.HighLowPolicy
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = d.Metrics.Namespace
	}
	if c.Assets.Default == "" {
		c.Assets.Default = d.Assets.Default
	}
}

func (c *Config) Validate() error {
	if c.Polling.Interval < time.Second {
		return fmt.Errorf("polling.interval must be at least 1s, got %s", c.Polling.Interval)
	}
	if c.Sources.Timeout <= 0 {
		return fmt.Errorf("sources.timeout must be positive")
	}
	switch c.Sources.HighLowPolicy {
	case "prefer_upstream", "synthesize":
	default:
		return fmt.Errorf("sources.high_low_policy: unknown policy %q", c.Sources.HighLowPolicy)
	}
	if _, ok := domain.LookupAsset(c.Assets.Default); !ok {
		return fmt.Errorf("assets.default: %w: %q", domain.ErrUnknownAsset, c.Assets.Default)
	}
	for _, id := range c.Assets.Compare {
		if _, ok := domain.LookupAsset(id); !ok {
			return fmt.Errorf("assets.compare: %w: %q", domain.ErrUnknownAsset, id)
		}
	}
	if n := len(c.Assets.Compare); n == 1 {
		return fmt.Errorf("assets.compare needs at least two assets")
	}
	return nil
}
