package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/zkauth/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-l string   HTTP bind address (e.g., ":5000")
//	-a string   gRPC bind address (e.g., ":50051")
//	-s string   JWT HMAC secret key
//	-t int      session validity, minutes
//	-w int      challenge validity, seconds (0 = never expires)
//	-f int      failed proofs per challenge (0 = unlimited)
//	-g string   group name (demo, rfc5054-2048, rfc5054-3072)
//	-x string   password hash (sha256, sha3-256, blake2b-256)
//	-z string   zero exponent policy (remap, rederive)
//	-o string   comma separated CORS origins
//	-q float    rate limit, requests per second per client (0 = off)
//	-b int      rate limit burst
//	-n string   session cookie name
//	-k bool     mark the session cookie Secure
//	-i int      sweep interval, seconds
//	-r int      signing key rotation interval, minutes (0 = off)
//	-v string   log level
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, so -c/-config and unknown flags do not break parsing.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-l", "-a", "-s", "-t", "-w", "-f", "-g", "-x", "-z", "-o", "-q", "-b", "-n", "-k", "-i", "-r", "-v",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "l", config.EndpointAddrHTTP, "HTTP address and port to listen on")
	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address and port to listen on")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	sessionValidity := fs.Int("t", int(config.SessionValidityDuration.Minutes()), "session validity (in minutes)")
	challengeValidity := fs.Int("w", int(config.ChallengeValidityDuration.Seconds()), "challenge validity (in seconds)")

	fs.IntVar(&config.MaxFailedAttempts, "f", config.MaxFailedAttempts, "failed proofs allowed per challenge")
	fs.StringVar(&config.Group, "g", config.Group, "group name")
	fs.StringVar(&config.Hash, "x", config.Hash, "password hash")
	fs.StringVar(&config.ZeroPolicy, "z", config.ZeroPolicy, "zero exponent policy")

	origins := fs.String("o", strings.Join(config.AllowedOrigins, ","), "allowed CORS origins")

	fs.Float64Var(&config.RateLimitRPS, "q", config.RateLimitRPS, "requests per second per client")
	fs.IntVar(&config.RateLimitBurst, "b", config.RateLimitBurst, "rate limit burst")
	fs.StringVar(&config.SessionCookieName, "n", config.SessionCookieName, "session cookie name")
	fs.BoolVar(&config.SessionCookieSecure, "k", config.SessionCookieSecure, "secure session cookie")

	sweepInterval := fs.Int("i", int(config.SweepInterval.Seconds()), "sweep interval (in seconds)")
	rotationInterval := fs.Int("r", int(config.KeyRotationInterval.Minutes()), "key rotation interval (in minutes)")

	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionValidityDuration = time.Duration(*sessionValidity) * time.Minute
	config.ChallengeValidityDuration = time.Duration(*challengeValidity) * time.Second
	config.SweepInterval = time.Duration(*sweepInterval) * time.Second
	config.KeyRotationInterval = time.Duration(*rotationInterval) * time.Minute
	config.AllowedOrigins = flagx.SplitList(*origins)
}
