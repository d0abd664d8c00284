package identity

import (
	"context"
	"sync"
	"time"
)

// MemoryAccounts is an AccountStore for a single process.
type MemoryAccounts struct {
	mu      sync.RWMutex
	byUID   map[string]Account
	byEmail map[string]string
}

func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{byUID: make(map[string]Account), byEmail: make(map[string]string)}
}

func (m *MemoryAccounts) Create(_ context.Context, a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[a.Email]; ok {
		return ErrEmailTaken
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	m.byUID[a.UID] = *a
	m.byEmail[a.Email] = a.UID
	return nil
}

func (m *MemoryAccounts) GetByEmail(_ context.Context, email string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	uid, ok := m.byEmail[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	a := m.byUID[uid]
	return &a, nil
}

func (m *MemoryAccounts) Delete(_ context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byUID[uid]
	if !ok {
		return ErrAccountNotFound
	}
	delete(m.byUID, uid)
	delete(m.byEmail, a.Email)
	return nil
}
