package models

import (
	"math/big"
	"time"
)

// Challenge is the one-time value e issued by BeginLogin. A zero ExpiresAt
// means the challenge never expires.
type Challenge struct {
	Username  string
	E         *big.Int
	IssuedAt  time.Time
	ExpiresAt time.Time
	Failures  int
}

// Expired reports whether the challenge is past its deadline at now.
func (c *Challenge) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}
