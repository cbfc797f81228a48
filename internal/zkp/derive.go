package zkp

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"math/big"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Hash names accepted by NewDeriver.
const (
	HashSHA256     = "sha256"
	HashSHA3_256   = "sha3-256"
	HashBLAKE2b256 = "blake2b-256"
)

// ZeroPolicy says what to do when the digest reduces to 0 mod p-1.
type ZeroPolicy string

const (
	// ZeroRemap maps 0 to 1. This is what the browser client does, so it is
	// the default; it makes 1 twice as likely as any other exponent.
	ZeroRemap ZeroPolicy = "remap"
	// ZeroRederive hashes again with a domain-separated counter until the
	// result is non-zero.
	ZeroRederive ZeroPolicy = "rederive"
)

const rederiveDomain = "zkauth/secret/v1"

var (
	ErrUnknownHash       = errors.New("unknown hash")
	ErrUnknownZeroPolicy = errors.New("unknown zero policy")
)

// Deriver turns a password into the secret exponent x.
//
// There is no salt and no work factor: equal passwords give equal exponents
// across users, and the mapping is as cheap to brute-force as one hash.
type Deriver struct {
	group    *Group
	hashName string
	newHash  func() hash.Hash
	zero     ZeroPolicy
}

// NewDeriver builds a Deriver over group. Empty hashName and zero default to
// sha256 and ZeroRemap.
func NewDeriver(group *Group, hashName string, zero ZeroPolicy) (*Deriver, error) {
	if hashName == "" {
		hashName = HashSHA256
	}
	if zero == "" {
		zero = ZeroRemap
	}

	newHash, err := hashByName(hashName)
	if err != nil {
		return nil, err
	}
	if zero != ZeroRemap && zero != ZeroRederive {
		return nil, fmt.Errorf("%w: %q", ErrUnknownZeroPolicy, zero)
	}

	return &Deriver{group: group, hashName: hashName, newHash: newHash, zero: zero}, nil
}

func hashByName(name string) (func() hash.Hash, error) {
	switch name {
	case HashSHA256:
		return sha256.New, nil
	case HashSHA3_256:
		return sha3.New256, nil
	case HashBLAKE2b256:
		return func() hash.Hash {
			h, _ := blake2b.New256(nil) // only fails for oversized keys
			return h
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHash, name)
	}
}

// HashName returns the configured hash name.
func (d *Deriver) HashName() string { return d.hashName }

// Derive returns x in [1, p-2]. The same password always yields the same x.
func (d *Deriver) Derive(password []byte) *big.Int {
	x := d.reduce(d.digest(nil, password))
	if x.Sign() != 0 {
		return x
	}

	if d.zero == ZeroRemap {
		return x.SetInt64(1)
	}

	var counter [4]byte
	for i := uint32(1); ; i++ {
		binary.BigEndian.PutUint32(counter[:], i)
		x = d.reduce(d.digest([]byte(rederiveDomain), counter[:], password))
		if x.Sign() != 0 {
			return x
		}
	}
}

func (d *Deriver) digest(parts ...[]byte) []byte {
	h := d.newHash()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

func (d *Deriver) reduce(digest []byte) *big.Int {
	x := new(big.Int).SetBytes(digest)
	return x.Mod(x, d.group.order)
}
