// Package credentials stores the public credential h of every registered
// user. Credentials are write-once: there is no update or delete.
package credentials

import (
	"context"
	"math/big"

	"github.com/dmitrijs2005/zkauth/internal/server/models"
)

type Repository interface {
	// Register stores h for username, or fails with common.ErrUsernameTaken.
	Register(ctx context.Context, username string, h *big.Int) error
	// Lookup returns the credential or common.ErrUserNotFound.
	Lookup(ctx context.Context, username string) (*models.Credential, error)
	Exists(ctx context.Context, username string) bool
	Count() int
}
