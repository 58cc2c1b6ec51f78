package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/bonkai/data/db/bonkai.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/bonkai/data/indices/bleve"
	}
	if cfg.Storage.StateDir == "" {
		cfg.Storage.StateDir = "/usr/local/var/bonkai/state"
	}
	if cfg.Market.PriceURL == "" {
		cfg.Market.PriceURL = "https://api.coingecko.com/api/v3/simple/price"
	}
	if cfg.Market.TokenID == "" {
		cfg.Market.TokenID = "bonk"
	}
	if cfg.Market.Currency == "" {
		cfg.Market.Currency = "usd"
	}
	if cfg.Market.FetchTimeoutSeconds == 0 {
		cfg.Market.FetchTimeoutSeconds = 15
	}
	if cfg.Market.CacheTTLSeconds == 0 {
		cfg.Market.CacheTTLSeconds = 300
	}
	if cfg.Market.StreamIntervalSeconds == 0 {
		cfg.Market.StreamIntervalSeconds = 15
	}
	if cfg.Client.BaseURL == "" {
		cfg.Client.BaseURL = "http://localhost:8080"
	}
	if cfg.Client.PollIntervalSeconds == 0 {
		cfg.Client.PollIntervalSeconds = 30
	}
}
