// Package config provides configuration loading and structs for the BONKai server and client.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Market  MarketConfig  `yaml:"market"`
	Client  ClientConfig  `yaml:"client"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the database, the search index, keyword
// tables, and the client state directory.
type StorageConfig struct {
	DatabasePath      string `yaml:"database_path"`
	BleveIndexPath    string `yaml:"bleve_index_path"`
	KeywordTablesPath string `yaml:"keyword_tables_path"`
	StateDir          string `yaml:"state_dir"`
}

// MarketConfig holds upstream market data settings.
type MarketConfig struct {
	PriceURL              string `yaml:"price_url"`
	TokenID               string `yaml:"token_id"`
	Currency              string `yaml:"currency"`
	FetchTimeoutSeconds   int    `yaml:"fetch_timeout_seconds"`
	CacheTTLSeconds       int    `yaml:"cache_ttl_seconds"`
	StreamIntervalSeconds int    `yaml:"stream_interval_seconds"`
}

// ClientConfig holds settings for the client data service.
type ClientConfig struct {
	BaseURL             string `yaml:"base_url"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
	Streaming           *bool  `yaml:"streaming"`
	KeystorePath        string `yaml:"keystore_path"`
}

// StreamingOrDefault returns whether the client attempts the SSE transport;
// defaults to true when unset.
func (c *ClientConfig) StreamingOrDefault() bool {
	if c.Streaming != nil {
		return *c.Streaming
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	cfg.Storage.StateDir = expandPath(cfg.Storage.StateDir, configDir)
	if cfg.Storage.KeywordTablesPath != "" {
		cfg.Storage.KeywordTablesPath = expandPath(cfg.Storage.KeywordTablesPath, configDir)
	}
	if cfg.Client.KeystorePath != "" {
		cfg.Client.KeystorePath = expandPath(cfg.Client.KeystorePath, configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
