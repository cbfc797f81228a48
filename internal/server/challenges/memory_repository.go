package challenges

import (
	"context"
	"io"
	"math/big"
	"sync"
	"time"

	"github.com/dmitrijs2005/zkauth/internal/common"
	"github.com/dmitrijs2005/zkauth/internal/server/models"
	"github.com/dmitrijs2005/zkauth/internal/zkp"
)

type MemoryRepository struct {
	mu    sync.Mutex
	items map[string]*models.Challenge
	group *zkp.Group
	ttl   time.Duration
	now   func() time.Time
	rand  io.Reader // nil means crypto/rand
}

// NewMemoryRepository returns a store issuing challenges from group that live
// for ttl. A zero ttl disables expiry.
func NewMemoryRepository(group *zkp.Group, ttl time.Duration) *MemoryRepository {
	return &MemoryRepository{
		items: make(map[string]*models.Challenge),
		group: group,
		ttl:   ttl,
		now:   time.Now,
	}
}

func (r *MemoryRepository) Issue(ctx context.Context, username string) (*models.Challenge, error) {
	e, err := r.group.RandomExponent(r.rand)
	if err != nil {
		return nil, err
	}

	now := r.now()
	c := &models.Challenge{Username: username, E: e, IssuedAt: now}
	if r.ttl > 0 {
		c.ExpiresAt = now.Add(r.ttl)
	}

	r.mu.Lock()
	r.items[username] = c
	r.mu.Unlock()

	return clone(c), nil
}

func (r *MemoryRepository) Peek(ctx context.Context, username string) (*models.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.items[username]
	if !ok {
		return nil, common.ErrNoChallengePending
	}
	if c.Expired(r.now()) {
		delete(r.items, username)
		return nil, common.ErrChallengeExpired
	}
	return clone(c), nil
}

func (r *MemoryRepository) Consume(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[username]; !ok {
		return common.ErrNoChallengePending
	}
	delete(r.items, username)
	return nil
}

func (r *MemoryRepository) RecordFailure(ctx context.Context, username string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.items[username]
	if !ok {
		return 0, common.ErrNoChallengePending
	}
	c.Failures++
	return c.Failures, nil
}

func (r *MemoryRepository) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for username, c := range r.items {
		if c.Expired(now) {
			delete(r.items, username)
			n++
		}
	}
	return n
}

// Len returns the number of stored challenges, expired ones included.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func clone(c *models.Challenge) *models.Challenge {
	cp := *c
	cp.E = new(big.Int).Set(c.E)
	return &cp
}
