package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/zkauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the session id in jti and the username in sub.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken signs a session token for username with the current key.
func (k *Keyring) GenerateToken(sessionID, username string, issuedAt time.Time, validity time.Duration) (string, error) {
	key := k.signing()
	defer common.WipeByteArray(key.secret)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(validity)),
		},
	})
	token.Header["kid"] = key.id

	tokenString, err := token.SignedString(key.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature against the key named by the kid header
// and returns the claims. Expired tokens yield common.ErrTokenExpired, every
// other failure common.ErrInvalidToken.
func (k *Keyring) ParseToken(tokenString string, now time.Time) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		secret, ok := k.lookup(kid)
		if !ok {
			return nil, fmt.Errorf("unknown key id %q", kid)
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
