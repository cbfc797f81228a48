package config

import "time"

// Config holds runtime settings for the zkauth CLI.
//
// Hash and ZeroPolicy must match the server, otherwise the derived secret
// differs and every proof fails.
type Config struct {
	ServerEndpointAddr string
	RequestTimeout     time.Duration
	Hash               string
	ZeroPolicy         string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 10 * time.Second
	c.Hash = "sha256"
	c.ZeroPolicy = "remap"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// a config file (if present) and command-line flags (if present). Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}
