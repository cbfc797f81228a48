// Package config handles configuration for the server component,
// including defaults, a JSON or TOML file overlay, and command-line flags.
package config

import (
	"time"

	"github.com/dmitrijs2005/zkauth/internal/common"
)

// Config holds runtime settings for the zkauth server.
//
// Fields:
//   - EndpointAddrHTTP / EndpointAddrGRPC: bind addresses of the two transports.
//   - SecretKey: HMAC secret for session JWTs. Empty means a random key per process.
//   - SessionValidityDuration / ChallengeValidityDuration: lifetimes; a zero
//     challenge validity disables challenge expiry.
//   - MaxFailedAttempts: failed proofs allowed per challenge; 0 means unlimited.
//   - Group / Hash / ZeroPolicy: protocol parameters, see package zkp.
//   - AllowedOrigins: CORS origins for the HTTP API; "*" echoes any origin.
//   - RateLimitRPS / RateLimitBurst: per-client token bucket; RPS 0 disables it.
//   - SessionCookieName / SessionCookieSecure: HTTP session cookie.
//   - SweepInterval: how often expired challenges and sessions are dropped.
//   - KeyRotationInterval / RetainedKeys: signing key rotation; 0 disables it.
type Config struct {
	EndpointAddrHTTP          string
	EndpointAddrGRPC          string
	SecretKey                 string
	SessionValidityDuration   time.Duration
	ChallengeValidityDuration time.Duration
	MaxFailedAttempts         int
	Group                     string
	Hash                      string
	ZeroPolicy                string
	AllowedOrigins            []string
	RateLimitRPS              float64
	RateLimitBurst            int
	SessionCookieName         string
	SessionCookieSecure       bool
	SweepInterval             time.Duration
	KeyRotationInterval       time.Duration
	RetainedKeys              int
	LogLevel                  string
}

// LoadDefaults populates Config with development defaults. The demo group is
// tiny and must be replaced by a named RFC 5054 group for anything real.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":5000"
	c.EndpointAddrGRPC = ":50051"
	c.SecretKey = ""
	c.SessionValidityDuration = 30 * time.Minute
	c.ChallengeValidityDuration = 2 * time.Minute
	c.MaxFailedAttempts = 3
	c.Group = "demo"
	c.Hash = "sha256"
	c.ZeroPolicy = "remap"
	c.AllowedOrigins = []string{"*"}
	c.RateLimitRPS = 10
	c.RateLimitBurst = 20
	c.SessionCookieName = common.SessionCookieName
	c.SessionCookieSecure = false
	c.SweepInterval = 30 * time.Second
	c.KeyRotationInterval = 0
	c.RetainedKeys = 2
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional config file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}
