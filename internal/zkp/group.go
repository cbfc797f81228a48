package zkp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
)

// Names of the built-in groups accepted by NamedGroup.
const (
	GroupDemo         = "demo"
	GroupRFC5054x2048 = "rfc5054-2048"
	GroupRFC5054x3072 = "rfc5054-3072"
)

var (
	ErrInvalidGroup = errors.New("invalid group parameters")
	ErrUnknownGroup = errors.New("unknown group")
)

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// Safe primes from RFC 5054, appendix A.
const (
	rfc5054Prime2048 = "" +
		"AC6BDB41324A9A9BF166DE5E1389582FAF72B6651987EE07FC3192943DB56050" +
		"A37329CBB4A099ED8193E0757767A13DD52312AB4B03310DCD7F48A9DA04FD50" +
		"E8083969EDB767B0CF6095179A163AB3661A05FBD5FAAAE82918A9962F0B93B8" +
		"55F97993EC975EEAA80D740ADBF4FF747359D041D5C33EA71D281E446B14773B" +
		"CA97B43A23FB801676BD207A436C6481F1D2B9078717461A5B9D32E688F87748" +
		"544523B524B0D57D5EA77A2775D2ECFA032CFBDBF52FB3786160279004E57AE6" +
		"AF874E7303CE53299CCC041C7BC308D82A5698F3A8D0C38271AE35F8E9DBFBB6" +
		"94B5C803D89F7AE435DE236D525F54759B65E372FCD68EF20FA7111F9E4AFF73"
	rfc5054Prime3072 = "" +
		"FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD129024E088A67CC74" +
		"020BBEA63B139B22514A08798E3404DDEF9519B3CD3A431B302B0A6DF25F1437" +
		"4FE1356D6D51C245E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B7ED" +
		"EE386BFB5A899FA5AE9F24117C4B1FE649286651ECE45B3DC2007CB8A163BF05" +
		"98DA48361C55D39A69163FA8FD24CF5F83655D23DCA3AD961C62F356208552BB" +
		"9ED529077096966D670C354E4ABC9804F1746C08CA18217C32905E462E36CE3B" +
		"E39E772C180E86039B2783A2EC07A28FB5C55DF06F4C52C9DE2BCBF695581718" +
		"3995497CEA956AE515D2261898FA051015728E5A8AAAC42DAD33170D04507A33" +
		"A85521ABDF1CBA64ECFB850458DBEF0A8AEA71575D060C7DB3970F85A6E1E4C7" +
		"ABF5AE8CDB0933D71E8C94E04A25619DCEE3D2261AD2EE6BF12FFA06D98A0864" +
		"D87602733EC86A64521F2B18177B200CBBE117577A615D6C770988C0BAD946E2" +
		"08E24FA074E5AB3143DB5BFCE0FD108E4B82D120A93AD2CAFFFFFFFFFFFFFFFF"
)

// Group holds the modulus p and generator g every exponentiation in the
// process is performed with. A Group never changes after construction and
// its accessors hand out copies, so one instance can be shared freely.
type Group struct {
	name  string
	p     *big.Int
	g     *big.Int
	order *big.Int // p-1
}

// NewGroup validates p and g and returns the group they define.
// p must be prime and g must satisfy 1 < g < p-1.
func NewGroup(p, g *big.Int) (*Group, error) {
	return newGroup("custom", p, g)
}

func newGroup(name string, p, g *big.Int) (*Group, error) {
	if p == nil || g == nil {
		return nil, fmt.Errorf("%w: missing p or g", ErrInvalidGroup)
	}
	if p.Cmp(big.NewInt(5)) < 0 || !p.ProbablyPrime(20) {
		return nil, fmt.Errorf("%w: p is not a usable prime", ErrInvalidGroup)
	}

	order := new(big.Int).Sub(p, one)
	if g.Cmp(one) <= 0 || g.Cmp(order) >= 0 {
		return nil, fmt.Errorf("%w: g must be in (1, p-1)", ErrInvalidGroup)
	}
	// an element of order 2 or less generates nothing useful
	if new(big.Int).Exp(g, two, p).Cmp(one) == 0 {
		return nil, fmt.Errorf("%w: g has order 2", ErrInvalidGroup)
	}

	return &Group{
		name:  name,
		p:     new(big.Int).Set(p),
		g:     new(big.Int).Set(g),
		order: order,
	}, nil
}

// NamedGroup returns one of the built-in groups. "demo" is the tiny p=467,
// g=2 group the browser demo uses; it is trivially breakable and only fit for
// local experiments.
func NamedGroup(name string) (*Group, error) {
	switch name {
	case GroupDemo, "":
		return newGroup(GroupDemo, big.NewInt(467), big.NewInt(2))
	case GroupRFC5054x2048:
		p, _ := new(big.Int).SetString(rfc5054Prime2048, 16)
		return newGroup(name, p, big.NewInt(2))
	case GroupRFC5054x3072:
		p, _ := new(big.Int).SetString(rfc5054Prime3072, 16)
		return newGroup(name, p, big.NewInt(5))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, name)
	}
}

// Name returns the group name, "custom" for groups built with NewGroup.
func (gr *Group) Name() string { return gr.name }

// P returns a copy of the modulus.
func (gr *Group) P() *big.Int { return new(big.Int).Set(gr.p) }

// G returns a copy of the generator.
func (gr *Group) G() *big.Int { return new(big.Int).Set(gr.g) }

// Order returns a copy of p-1, the modulus for exponent arithmetic.
func (gr *Group) Order() *big.Int { return new(big.Int).Set(gr.order) }

// ByteLen is the length of p in bytes.
func (gr *Group) ByteLen() int { return (gr.p.BitLen() + 7) / 8 }

// Exp returns base^exp mod p.
func (gr *Group) Exp(base, exp *big.Int) *big.Int {
	return new(big.Int).Exp(base, exp, gr.p)
}

// PowG returns g^exp mod p.
func (gr *Group) PowG(exp *big.Int) *big.Int {
	return gr.Exp(gr.g, exp)
}

// IsElement reports whether v lies in [1, p-1].
func (gr *Group) IsElement(v *big.Int) bool {
	return v != nil && v.Sign() > 0 && v.Cmp(gr.p) < 0
}

// IsExponent reports whether v lies in [0, p-2].
func (gr *Group) IsExponent(v *big.Int) bool {
	return v != nil && v.Sign() >= 0 && v.Cmp(gr.order) < 0
}

// RandomExponent draws a value uniformly from [1, p-2]. A nil reader means
// crypto/rand.
func (gr *Group) RandomExponent(r io.Reader) (*big.Int, error) {
	if r == nil {
		r = rand.Reader
	}
	// rand.Int yields [0, p-3], shift by one
	n, err := rand.Int(r, new(big.Int).Sub(gr.order, one))
	if err != nil {
		return nil, fmt.Errorf("random exponent: %w", err)
	}
	return n.Add(n, one), nil
}
