package client

import (
	"context"
	"math/big"

	"github.com/dmitrijs2005/zkauth/internal/client/models"
)

type Client interface {
	Close() error
	Register(ctx context.Context, username string, password []byte) (string, error)
	BeginLogin(ctx context.Context, username string) (*models.Challenge, error)
	FinishLogin(ctx context.Context, username string, a, y *big.Int) (string, error)
	Whoami(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
}
