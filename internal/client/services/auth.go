// Package services contains application services for the zkauth client.
// This file defines the authentication service: register, prove knowledge of
// the password, query and end the session.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/zkauth/internal/client/client"
	"github.com/dmitrijs2005/zkauth/internal/zkp"
)

// ErrPasswordMismatch means the password does not derive the public key the
// server holds. No proof is sent in that case, so the server's failure budget
// is not spent.
var ErrPasswordMismatch = errors.New("password does not match the registered credential")

// AuthService defines authentication operations for the CLI.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Register(ctx context.Context, username string, password []byte) (string, error)
	Login(ctx context.Context, username string, password []byte) (string, error)
	Whoami(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
	Close(ctx context.Context) error
}

type authService struct {
	client   client.Client
	hashName string
	zero     zkp.ZeroPolicy
	rand     io.Reader // nil means crypto/rand
}

// NewAuthService constructs an AuthService bound to the given API client.
// hashName and zero must match the server's derivation settings.
func NewAuthService(c client.Client, hashName string, zero zkp.ZeroPolicy) AuthService {
	return &authService{client: c, hashName: hashName, zero: zero}
}

func (a *authService) Register(ctx context.Context, username string, password []byte) (string, error) {
	return a.client.Register(ctx, username, password)
}

// Login runs the three message exchange: fetch a challenge, answer it with a
// fresh commitment, submit the proof. The secret exponent and the nonce are
// zeroed before returning.
func (a *authService) Login(ctx context.Context, username string, password []byte) (string, error) {
	ch, err := a.client.BeginLogin(ctx, username)
	if err != nil {
		return "", err
	}

	group, err := zkp.NewGroup(ch.P, ch.G)
	if err != nil {
		return "", fmt.Errorf("server group rejected: %w", err)
	}

	deriver, err := zkp.NewDeriver(group, a.hashName, a.zero)
	if err != nil {
		return "", err
	}

	x := deriver.Derive(password)
	defer x.SetInt64(0)

	prover := zkp.NewProver(group, a.rand)
	if prover.PublicKey(x).Cmp(ch.H) != 0 {
		return "", ErrPasswordMismatch
	}

	commitment, k, err := prover.Commit()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	y := prover.Respond(k, ch.E, x)
	k.SetInt64(0)

	return a.client.FinishLogin(ctx, username, commitment, y)
}

func (a *authService) Whoami(ctx context.Context) (string, error) {
	return a.client.Whoami(ctx)
}

func (a *authService) Logout(ctx context.Context) error {
	return a.client.Logout(ctx)
}

func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
