package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: 0.0.0.0
  port: 9090
storage:
  database_path: ./data/bonkai.db
  state_dir: ./state
market:
  token_id: bonk
  cache_ttl_seconds: 60
client:
  base_url: http://localhost:9090
  streaming: false
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9090 {
		t.Errorf("server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath != filepath.Join(dir, "data/bonkai.db") {
		t.Errorf("database path not expanded relative to config dir: %s", cfg.Storage.DatabasePath)
	}
	if cfg.Market.CacheTTLSeconds != 60 {
		t.Errorf("cache ttl: %d", cfg.Market.CacheTTLSeconds)
	}
	if cfg.Client.StreamingOrDefault() {
		t.Error("streaming should be disabled")
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: false\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("server defaults: %+v", cfg.Server)
	}
	if cfg.Market.FetchTimeoutSeconds != 15 {
		t.Errorf("fetch timeout default: %d", cfg.Market.FetchTimeoutSeconds)
	}
	if cfg.Market.CacheTTLSeconds != 300 {
		t.Errorf("cache ttl default: %d", cfg.Market.CacheTTLSeconds)
	}
	if cfg.Client.PollIntervalSeconds != 30 {
		t.Errorf("poll interval default: %d", cfg.Client.PollIntervalSeconds)
	}
	if !cfg.Client.StreamingOrDefault() {
		t.Error("streaming should default to true")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := &Config{Debug: true}
	ApplyDefaults(cfg)
	cfg.Market.TokenID = "bonk"

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Market.TokenID != "bonk" {
		t.Errorf("token id: %s", got.Market.TokenID)
	}
}
