// Package config loads runtime configuration for the zkauth CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or TOML file selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the zkauth gRPC endpoint
//	-t int      per-request timeout (seconds)
//	-x string   password hash (sha256, sha3-256, blake2b-256)
//	-z string   zero exponent policy (remap, rederive)
//
// # File schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "request_timeout": "10s",
//	  "hash": "sha256",
//	  "zero_policy": "remap"
//	}
package config
