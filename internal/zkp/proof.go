package zkp

import (
	"crypto/rand"
	"crypto/subtle"
	"io"
	"math/big"
)

// Verify checks the Schnorr identification equation
//
//	g^y mod p == a * h^e mod p
//
// for public key h, challenge e, commitment a and response y.
func Verify(gr *Group, h, e, a, y *big.Int) bool {
	left := gr.PowG(y)

	right := gr.Exp(h, e)
	right.Mul(right, a)
	right.Mod(right, gr.p)

	size := gr.ByteLen()
	return subtle.ConstantTimeCompare(left.FillBytes(make([]byte, size)), right.FillBytes(make([]byte, size))) == 1
}

// Prover is the honest client side of the protocol. It is used by the CLI
// client and by tests; the server never sees x or k.
type Prover struct {
	group *Group
	rand  io.Reader
}

// NewProver returns a Prover drawing randomness from r, or crypto/rand when r is nil.
func NewProver(group *Group, r io.Reader) *Prover {
	if r == nil {
		r = rand.Reader
	}
	return &Prover{group: group, rand: r}
}

// PublicKey returns h = g^x mod p.
func (p *Prover) PublicKey(x *big.Int) *big.Int {
	return p.group.PowG(x)
}

// Commit picks an ephemeral k in [1, p-2] and returns a = g^k mod p with k.
// k must be used for exactly one Respond call and then dropped.
func (p *Prover) Commit() (a, k *big.Int, err error) {
	k, err = p.group.RandomExponent(p.rand)
	if err != nil {
		return nil, nil, err
	}
	return p.group.PowG(k), k, nil
}

// Respond returns y = (k + e*x) mod (p-1).
func (p *Prover) Respond(k, e, x *big.Int) *big.Int {
	y := new(big.Int).Mul(e, x)
	y.Add(y, k)
	return y.Mod(y, p.group.order)
}
