// Package sessions tracks authenticated sessions. A session is a signed JWT
// held by the client plus a server-side record that logout can revoke.
package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/zkauth/internal/common"
	"github.com/dmitrijs2005/zkauth/internal/server/auth"
	"github.com/dmitrijs2005/zkauth/internal/server/models"
	"github.com/google/uuid"
)

type Manager struct {
	keys     *auth.Keyring
	validity time.Duration

	mu   sync.Mutex
	live map[string]models.Session // by session id
	now  func() time.Time
}

func NewManager(keys *auth.Keyring, validity time.Duration) *Manager {
	return &Manager{
		keys:     keys,
		validity: validity,
		live:     make(map[string]models.Session),
		now:      time.Now,
	}
}

// Establish opens a session for username and returns its token.
func (m *Manager) Establish(ctx context.Context, username string) (string, error) {
	now := m.now()
	s := models.Session{
		ID:        uuid.NewString(),
		Username:  username,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.validity),
	}

	token, err := m.keys.GenerateToken(s.ID, s.Username, s.IssuedAt, m.validity)
	if err != nil {
		return "", fmt.Errorf("%w: signing session token: %v", common.ErrorInternal, err)
	}

	m.mu.Lock()
	m.live[s.ID] = s
	m.mu.Unlock()

	return token, nil
}

// Current returns the username of the session whose token is in ctx. Every
// failure matches common.ErrNotAuthenticated.
func (m *Manager) Current(ctx context.Context) (string, error) {
	token, ok := TokenFromContext(ctx)
	if !ok {
		return "", common.ErrNotAuthenticated
	}

	now := m.now()
	claims, err := m.keys.ParseToken(token, now)
	if err != nil {
		return "", fmt.Errorf("%w (%w)", common.ErrNotAuthenticated, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.live[claims.ID]
	if !ok || s.Username != claims.Subject {
		return "", fmt.Errorf("%w: session revoked", common.ErrNotAuthenticated)
	}
	if !now.Before(s.ExpiresAt) {
		delete(m.live, s.ID)
		return "", fmt.Errorf("%w (%w)", common.ErrNotAuthenticated, common.ErrTokenExpired)
	}

	return s.Username, nil
}

// Clear revokes the session in ctx, if any. It never fails.
func (m *Manager) Clear(ctx context.Context) error {
	token, ok := TokenFromContext(ctx)
	if !ok {
		return nil
	}

	// expired tokens do not parse; their records go with the next Sweep
	claims, err := m.keys.ParseToken(token, m.now())
	if err != nil {
		return nil
	}

	m.mu.Lock()
	delete(m.live, claims.ID)
	m.mu.Unlock()

	return nil
}

// Sweep drops sessions expired at now and returns how many it removed.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, s := range m.live {
		if !now.Before(s.ExpiresAt) {
			delete(m.live, id)
			n++
		}
	}
	return n
}

// Len returns the number of live session records.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}
