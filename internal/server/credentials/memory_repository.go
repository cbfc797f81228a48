package credentials

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/dmitrijs2005/zkauth/internal/common"
	"github.com/dmitrijs2005/zkauth/internal/server/models"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]models.Credential
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		items: make(map[string]models.Credential),
		now:   time.Now,
	}
}

func (r *MemoryRepository) Register(ctx context.Context, username string, h *big.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[username]; ok {
		return common.ErrUsernameTaken
	}

	r.items[username] = models.Credential{
		Username:  username,
		H:         new(big.Int).Set(h),
		CreatedAt: r.now(),
	}
	return nil
}

func (r *MemoryRepository) Lookup(ctx context.Context, username string) (*models.Credential, error) {
	r.mu.RLock()
	c, ok := r.items[username]
	r.mu.RUnlock()

	if !ok {
		return nil, common.ErrUserNotFound
	}

	c.H = new(big.Int).Set(c.H)
	return &c, nil
}

func (r *MemoryRepository) Exists(ctx context.Context, username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.items[username]
	return ok
}

func (r *MemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
