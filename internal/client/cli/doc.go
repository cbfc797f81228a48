// Package cli provides the interactive zkauth command-line client.
//
// It wires configuration, the gRPC client and the honest prover into a small
// REPL. Passwords are read without echo and never leave the process except
// in the register request; login sends only the proof (a, y).
//
// Commands:
//   - register / login  (not logged in)
//   - whoami / logout   (logged in)
//   - help / exit
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
package cli
