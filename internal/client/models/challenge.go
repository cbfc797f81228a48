// Package models defines client-side data models used by the zkauth CLI.
package models

import "math/big"

// Challenge is what the server hands out on BeginLogin: the group (P, G), the
// stored public credential H and the one-time challenge E.
type Challenge struct {
	P *big.Int
	G *big.Int
	H *big.Int
	E *big.Int
}
