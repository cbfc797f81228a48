package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dmitrijs2005/zkauth/internal/flagx"
	"github.com/dmitrijs2005/zkauth/internal/timex"
)

// FileConfig mirrors Config for decoding config files. Durations use
// timex.Duration so both "90s" and integer nanoseconds (JSON only) work.
type FileConfig struct {
	EndpointAddrHTTP          string         `json:"endpoint_addr_http" toml:"endpoint_addr_http"`
	EndpointAddrGRPC          string         `json:"endpoint_addr_grpc" toml:"endpoint_addr_grpc"`
	SecretKey                 string         `json:"secret_key" toml:"secret_key"`
	SessionValidityDuration   timex.Duration `json:"session_validity_duration" toml:"session_validity_duration"`
	ChallengeValidityDuration timex.Duration `json:"challenge_validity_duration" toml:"challenge_validity_duration"`
	MaxFailedAttempts         int            `json:"max_failed_attempts" toml:"max_failed_attempts"`
	Group                     string         `json:"group" toml:"group"`
	Hash                      string         `json:"hash" toml:"hash"`
	ZeroPolicy                string         `json:"zero_policy" toml:"zero_policy"`
	AllowedOrigins            []string       `json:"allowed_origins" toml:"allowed_origins"`
	RateLimitRPS              float64        `json:"rate_limit_rps" toml:"rate_limit_rps"`
	RateLimitBurst            int            `json:"rate_limit_burst" toml:"rate_limit_burst"`
	SessionCookieName         string         `json:"session_cookie_name" toml:"session_cookie_name"`
	SessionCookieSecure       bool           `json:"session_cookie_secure" toml:"session_cookie_secure"`
	SweepInterval             timex.Duration `json:"sweep_interval" toml:"sweep_interval"`
	KeyRotationInterval       timex.Duration `json:"key_rotation_interval" toml:"key_rotation_interval"`
	RetainedKeys              int            `json:"retained_keys" toml:"retained_keys"`
	LogLevel                  string         `json:"log_level" toml:"log_level"`
}

func toFileConfig(c *Config) *FileConfig {
	return &FileConfig{
		EndpointAddrHTTP:          c.EndpointAddrHTTP,
		EndpointAddrGRPC:          c.EndpointAddrGRPC,
		SecretKey:                 c.SecretKey,
		SessionValidityDuration:   timex.Duration{Duration: c.SessionValidityDuration},
		ChallengeValidityDuration: timex.Duration{Duration: c.ChallengeValidityDuration},
		MaxFailedAttempts:         c.MaxFailedAttempts,
		Group:                     c.Group,
		Hash:                      c.Hash,
		ZeroPolicy:                c.ZeroPolicy,
		AllowedOrigins:            c.AllowedOrigins,
		RateLimitRPS:              c.RateLimitRPS,
		RateLimitBurst:            c.RateLimitBurst,
		SessionCookieName:         c.SessionCookieName,
		SessionCookieSecure:       c.SessionCookieSecure,
		SweepInterval:             timex.Duration{Duration: c.SweepInterval},
		KeyRotationInterval:       timex.Duration{Duration: c.KeyRotationInterval},
		RetainedKeys:              c.RetainedKeys,
		LogLevel:                  c.LogLevel,
	}
}

func (f *FileConfig) apply(c *Config) {
	c.EndpointAddrHTTP = f.EndpointAddrHTTP
	c.EndpointAddrGRPC = f.EndpointAddrGRPC
	c.SecretKey = f.SecretKey
	c.SessionValidityDuration = f.SessionValidityDuration.Duration
	c.ChallengeValidityDuration = f.ChallengeValidityDuration.Duration
	c.MaxFailedAttempts = f.MaxFailedAttempts
	c.Group = f.Group
	c.Hash = f.Hash
	c.ZeroPolicy = f.ZeroPolicy
	c.AllowedOrigins = f.AllowedOrigins
	c.RateLimitRPS = f.RateLimitRPS
	c.RateLimitBurst = f.RateLimitBurst
	c.SessionCookieName = f.SessionCookieName
	c.SessionCookieSecure = f.SessionCookieSecure
	c.SweepInterval = f.SweepInterval.Duration
	c.KeyRotationInterval = f.KeyRotationInterval.Duration
	c.RetainedKeys = f.RetainedKeys
	c.LogLevel = f.LogLevel
}

// parseFile overlays the file named by -c/-config onto config. Keys missing
// from the file keep their current value. The format follows the extension:
// .toml is TOML, anything else JSON.
//
// An unreadable or invalid file panics; the server cannot start on a config
// it did not understand.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()

	// nothing to load
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := toFileConfig(config)
	if err := decodeFile(path, data, fc); err != nil {
		panic(err)
	}
	fc.apply(config)
}

func decodeFile(path string, data []byte, fc *FileConfig) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), fc); err != nil {
			return fmt.Errorf("decoding toml config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, fc); err != nil {
			return fmt.Errorf("decoding json config %s: %w", path, err)
		}
	}
	return nil
}
