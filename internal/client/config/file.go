package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dmitrijs2005/zkauth/internal/flagx"
	"github.com/dmitrijs2005/zkauth/internal/timex"
)

// FileConfig is a DTO used exclusively for decoding config files.
type FileConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr" toml:"server_endpoint_addr"`
	RequestTimeout     timex.Duration `json:"request_timeout" toml:"request_timeout"`
	Hash               string         `json:"hash" toml:"hash"`
	ZeroPolicy         string         `json:"zero_policy" toml:"zero_policy"`
}

// parseFile overlays cfg with the file named by -c/-config. Missing keys keep
// their current value. Read or decode errors panic.
func parseFile(cfg *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := FileConfig{
		ServerEndpointAddr: cfg.ServerEndpointAddr,
		RequestTimeout:     timex.Duration{Duration: cfg.RequestTimeout},
		Hash:               cfg.Hash,
		ZeroPolicy:         cfg.ZeroPolicy,
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		_, err = toml.Decode(string(data), &fc)
	} else {
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		panic(err)
	}

	cfg.ServerEndpointAddr = fc.ServerEndpointAddr
	cfg.RequestTimeout = fc.RequestTimeout.Duration
	cfg.Hash = fc.Hash
	cfg.ZeroPolicy = fc.ZeroPolicy
}
