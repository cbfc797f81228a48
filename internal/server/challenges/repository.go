// Package challenges keeps the single live login challenge of each user.
package challenges

import (
	"context"
	"time"

	"github.com/dmitrijs2005/zkauth/internal/server/models"
)

type Repository interface {
	// Issue draws a fresh e for username, replacing any earlier challenge.
	Issue(ctx context.Context, username string) (*models.Challenge, error)
	// Peek returns the live challenge. An expired challenge is dropped and
	// reported as common.ErrChallengeExpired; a missing one as
	// common.ErrNoChallengePending.
	Peek(ctx context.Context, username string) (*models.Challenge, error)
	Consume(ctx context.Context, username string) error
	// RecordFailure bumps the failure counter of the live challenge and
	// returns the new count.
	RecordFailure(ctx context.Context, username string) (int, error)
	// Sweep drops every challenge expired at now and returns how many it removed.
	Sweep(now time.Time) int
}
