package auth

import (
	"errors"
	"sync"

	"github.com/dmitrijs2005/zkauth/internal/common"
)

const (
	generatedKeySize = 32
	keyIDSize        = 8
	// DefaultRetainedKeys is how many retired keys stay valid for verification.
	DefaultRetainedKeys = 2
)

var ErrEmptyKey = errors.New("empty signing key")

type signingKey struct {
	id     string
	secret []byte
}

// Keyring holds the current HS256 signing key and a bounded list of retired
// keys that are still accepted when verifying.
type Keyring struct {
	mu      sync.RWMutex
	current signingKey
	retired []signingKey // newest first
	retain  int
}

// NewKeyring starts a keyring from secret. An empty secret makes the keyring
// generate a random one, so tokens do not survive a restart.
func NewKeyring(secret []byte, retain int) (*Keyring, error) {
	if retain < 0 {
		retain = 0
	}

	k := &Keyring{retain: retain}
	if len(secret) == 0 {
		key, err := newSigningKey()
		if err != nil {
			return nil, err
		}
		k.current = key
		return k, nil
	}

	id, err := common.MakeRandHexString(keyIDSize)
	if err != nil {
		return nil, err
	}
	k.current = signingKey{id: id, secret: append([]byte(nil), secret...)}
	return k, nil
}

func newSigningKey() (signingKey, error) {
	secret := common.GenerateRandByteArray(generatedKeySize)
	if secret == nil {
		return signingKey{}, ErrEmptyKey
	}
	id, err := common.MakeRandHexString(keyIDSize)
	if err != nil {
		return signingKey{}, err
	}
	return signingKey{id: id, secret: secret}, nil
}

// Rotate makes a fresh random key current. Keys older than the retention
// window are wiped and forgotten.
func (k *Keyring) Rotate() error {
	key, err := newSigningKey()
	if err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	k.retired = append([]signingKey{k.current}, k.retired...)
	for len(k.retired) > k.retain {
		last := k.retired[len(k.retired)-1]
		common.WipeByteArray(last.secret)
		k.retired = k.retired[:len(k.retired)-1]
	}
	k.current = key
	return nil
}

// CurrentID returns the id of the signing key.
func (k *Keyring) CurrentID() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.current.id
}

// signing and lookup hand out copies; Rotate wipes retired secrets in place.
func (k *Keyring) signing() signingKey {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return signingKey{id: k.current.id, secret: append([]byte(nil), k.current.secret...)}
}

func (k *Keyring) lookup(id string) ([]byte, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.current.id == id {
		return append([]byte(nil), k.current.secret...), true
	}
	for _, key := range k.retired {
		if key.id == id {
			return append([]byte(nil), key.secret...), true
		}
	}
	return nil, false
}
