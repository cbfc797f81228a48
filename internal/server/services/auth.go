// Package services contains the server-side business logic. AuthService runs
// the zero-knowledge login protocol: registration of the public value h,
// issuing one-time challenges and checking proofs of knowledge of x.
package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/dmitrijs2005/zkauth/internal/common"
	"github.com/dmitrijs2005/zkauth/internal/logging"
	"github.com/dmitrijs2005/zkauth/internal/server/challenges"
	"github.com/dmitrijs2005/zkauth/internal/server/credentials"
	"github.com/dmitrijs2005/zkauth/internal/server/keylock"
	"github.com/dmitrijs2005/zkauth/internal/zkp"
)

// SessionManager is what AuthService needs from the session layer. The
// caller's token, if any, travels in ctx.
type SessionManager interface {
	Establish(ctx context.Context, username string) (string, error)
	Current(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// GroupInfo is returned by Register.
type GroupInfo struct {
	P *big.Int
	G *big.Int
}

// LoginChallenge is everything the prover needs to answer a challenge.
type LoginChallenge struct {
	P *big.Int
	G *big.Int
	H *big.Int
	E *big.Int
}

// LoginResult is what a successful FinishLogin hands back to the transport.
type LoginResult struct {
	Username string
	Token    string
}

// AuthService runs registration and the challenge-response login flow.
type AuthService struct {
	group       *zkp.Group
	deriver     *zkp.Deriver
	credentials credentials.Repository
	challenges  challenges.Repository
	sessions    SessionManager
	locks       keylock.KeyedMutex
	maxFailures int // 0 keeps a challenge live across any number of failures
	logger      logging.Logger
}

// NewAuthService wires the protocol engine. maxFailures is the number of
// failed proofs after which a challenge is dropped; 0 disables the limit.
func NewAuthService(
	group *zkp.Group,
	deriver *zkp.Deriver,
	creds credentials.Repository,
	chals challenges.Repository,
	sessions SessionManager,
	maxFailures int,
	logger logging.Logger,
) *AuthService {
	if maxFailures < 0 {
		maxFailures = 0
	}
	return &AuthService{
		group:       group,
		deriver:     deriver,
		credentials: creds,
		challenges:  chals,
		sessions:    sessions,
		maxFailures: maxFailures,
		logger:      logger.With("module", "auth_service"),
	}
}

// Register derives x from password and stores h = g^x mod p for username.
// Only the public group parameters are returned.
func (s *AuthService) Register(ctx context.Context, username, password string) (*GroupInfo, error) {
	if username == "" || password == "" {
		return nil, common.ErrEmptyInput
	}

	pw := []byte(password)
	x := s.deriver.Derive(pw)
	common.WipeByteArray(pw)
	h := s.group.PowG(x)
	x.SetInt64(0)

	unlock := s.locks.Lock(username)
	defer unlock()

	if err := s.credentials.Register(ctx, username, h); err != nil {
		if !errors.Is(err, common.ErrUsernameTaken) {
			s.logger.Error(ctx, "storing credential", "username", username, "error", err)
		}
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "username", username)
	return &GroupInfo{P: s.group.P(), G: s.group.G()}, nil
}

// BeginLogin issues a fresh challenge for username, replacing any earlier one.
func (s *AuthService) BeginLogin(ctx context.Context, username string) (*LoginChallenge, error) {
	unlock := s.locks.Lock(username)
	defer unlock()

	cred, err := s.credentials.Lookup(ctx, username)
	if err != nil {
		return nil, err
	}

	ch, err := s.challenges.Issue(ctx, username)
	if err != nil {
		s.logger.Error(ctx, "issuing challenge", "username", username, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	s.logger.Debug(ctx, "challenge issued", "username", username, "expires_at", ch.ExpiresAt)
	return &LoginChallenge{P: s.group.P(), G: s.group.G(), H: cred.H, E: ch.E}, nil
}

// FinishLogin checks g^y == a*h^e (mod p) against the live challenge. On
// success the challenge is consumed and a session is established. On failure
// the challenge stays live until the failure budget is spent.
//
// a and y are decimal strings as sent by the client.
func (s *AuthService) FinishLogin(ctx context.Context, username, a, y string) (*LoginResult, error) {
	unlock := s.locks.Lock(username)
	defer unlock()

	cred, err := s.credentials.Lookup(ctx, username)
	if err != nil {
		return nil, err
	}

	ch, err := s.challenges.Peek(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrChallengeExpired) {
			s.logger.Info(ctx, "challenge expired", "username", username)
		}
		return nil, err
	}

	aInt, yInt, err := s.parseProof(a, y)
	if err != nil {
		return nil, err
	}

	if !zkp.Verify(s.group, cred.H, ch.E, aInt, yInt) {
		return nil, s.recordFailure(ctx, username)
	}

	// The challenge survives a failed Establish so the client can retry it.
	token, err := s.sessions.Establish(ctx, username)
	if err != nil {
		s.logger.Error(ctx, "establishing session", "username", username, "error", err)
		return nil, err
	}

	if err := s.challenges.Consume(ctx, username); err != nil {
		s.logger.Error(ctx, "consuming challenge", "username", username, "error", err)
		return nil, err
	}

	s.logger.Info(ctx, "login succeeded", "username", username)
	return &LoginResult{Username: username, Token: token}, nil
}

func (s *AuthService) parseProof(a, y string) (*big.Int, *big.Int, error) {
	aInt, err := zkp.ParseInteger(a)
	if err != nil {
		return nil, nil, fmt.Errorf("a: %w", err)
	}
	yInt, err := zkp.ParseInteger(y)
	if err != nil {
		return nil, nil, fmt.Errorf("y: %w", err)
	}

	if !s.group.IsElement(aInt) {
		return nil, nil, fmt.Errorf("a: %w: out of range", common.ErrMalformedNumber)
	}
	if !s.group.IsExponent(yInt) {
		return nil, nil, fmt.Errorf("y: %w: out of range", common.ErrMalformedNumber)
	}
	return aInt, yInt, nil
}

func (s *AuthService) recordFailure(ctx context.Context, username string) error {
	n, err := s.challenges.RecordFailure(ctx, username)
	if err != nil {
		return err
	}

	if s.maxFailures > 0 && n >= s.maxFailures {
		if err := s.challenges.Consume(ctx, username); err != nil {
			return err
		}
		s.logger.Warn(ctx, "verification failed, challenge dropped", "username", username, "failures", n)
		return common.ErrVerificationFailed
	}

	s.logger.Warn(ctx, "verification failed", "username", username, "failures", n)
	return common.ErrVerificationFailed
}

// CheckAuthenticated returns the username of the caller's session.
func (s *AuthService) CheckAuthenticated(ctx context.Context) (string, error) {
	return s.sessions.Current(ctx)
}

// Logout ends the caller's session. It succeeds whether or not one exists.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.sessions.Clear(ctx); err != nil {
		s.logger.Warn(ctx, "clearing session", "error", err)
	}
	return nil
}

// Group returns the group the service works in.
func (s *AuthService) Group() *zkp.Group { return s.group }
