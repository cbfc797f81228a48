// Package common defines shared constants and sentinel errors used across
// client and server layers of zkauth. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

// Error categories. Every specific error below wraps exactly one of them, so
// transport adapters only need to map categories to status codes.
var (
	ErrorValidation    = errors.New("validation error")
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrorInternal      = errors.New("internal error")
)

var (
	// Input validation.
	ErrEmptyInput      = fmt.Errorf("%w: empty username or password", ErrorValidation)
	ErrMalformedNumber = fmt.Errorf("%w: malformed number", ErrorValidation)

	// Credential store.
	ErrUsernameTaken = fmt.Errorf("%w: user already exists", ErrorAlreadyExists)
	ErrUserNotFound  = fmt.Errorf("%w: user does not exist", ErrorNotFound)

	// Challenge store.
	ErrNoChallengePending = fmt.Errorf("%w: no challenge for user", ErrorNotFound)
	ErrChallengeExpired   = fmt.Errorf("%w: challenge expired", ErrorNotFound)

	// Protocol outcome and sessions.
	ErrVerificationFailed = fmt.Errorf("%w: verification failed", ErrorUnauthorized)
	ErrNotAuthenticated   = fmt.Errorf("%w: not authenticated", ErrorUnauthorized)
	ErrInvalidToken       = fmt.Errorf("%w: invalid token", ErrorUnauthorized)
	ErrTokenExpired       = fmt.Errorf("%w: token expired", ErrorUnauthorized)

	// Transport.
	ErrRateLimited = errors.New("rate limit exceeded")
)
