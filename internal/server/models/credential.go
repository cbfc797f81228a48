package models

import (
	"math/big"
	"time"
)

// Credential is the public half of a registered user: h = g^x mod p.
type Credential struct {
	Username  string
	H         *big.Int
	CreatedAt time.Time
}
