// Package client talks to the zkauth server.
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface):
//     Register, BeginLogin, FinishLogin, Whoami and Logout.
//  2. A concrete gRPC implementation (see GRPCClient) that manages a
//     connection, injects the access token via an interceptor, applies a
//     per-request timeout and maps gRPC status codes to sentinel errors.
//
// # Error Handling
//
// Common conditions are exposed as sentinel errors that callers can match with
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrRejected,
// ErrMalformedResponse and common.ErrRateLimited.
//
// GRPCClient is safe for concurrent use. The access token is process-local
// and is never persisted.
package client
