package impl

import (
	"context"
	"errors"
	"strings"
	"sync"

	"handoff/internal/domain"
	"handoff/internal/store"
)

// memoryDirectory mirrors the store contract: unique emails, hash omitted
// unless asked for, receivers in insertion order.
type memoryDirectory struct {
	mu       sync.Mutex
	accounts []*domain.Account
	findErr  error
}

func newMemoryDirectory() *memoryDirectory { return &memoryDirectory{} }

func (m *memoryDirectory) copyOut(a *domain.Account, includePassword bool) *domain.Account {
	cp := *a
	if !includePassword {
		cp.PasswordHash = ""
	}
	return &cp
}

func (m *memoryDirectory) FindActiveReceivers(ctx context.Context, roles []domain.Role) ([]domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []domain.Account
	for _, a := range m.accounts {
		if !a.Active || !a.AvailableForReceiving {
			continue
		}
		for _, r := range roles {
			if a.Role == r {
				out = append(out, *m.copyOut(a, false))
				break
			}
		}
	}
	return out, nil
}

func (m *memoryDirectory) FindByEmail(ctx context.Context, email string, includePassword bool) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, a := range m.accounts {
		if strings.EqualFold(a.Email, email) {
			return m.copyOut(a, includePassword), nil
		}
	}
	return nil, store.ErrRecordNotFound
}

func (m *memoryDirectory) FindByID(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	if a := m.byID(id); a != nil {
		return m.copyOut(a, false), nil
	}
	return nil, store.ErrRecordNotFound
}

func (m *memoryDirectory) Insert(ctx context.Context, acc *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if strings.EqualFold(a.Email, acc.Email) {
			return store.ErrDuplicateKey
		}
	}
	cp := *acc
	m.accounts = append(m.accounts, &cp)
	return nil
}

func (m *memoryDirectory) UpdatePasswordHash(ctx context.Context, id domain.AccountID, hash string) error {
	return m.mutate(id, func(a *domain.Account) { a.PasswordHash = hash })
}

func (m *memoryDirectory) SetAvailability(ctx context.Context, id domain.AccountID, available bool) error {
	return m.mutate(id, func(a *domain.Account) { a.AvailableForReceiving = available })
}

func (m *memoryDirectory) setActive(id domain.AccountID, active bool) {
	_ = m.mutate(id, func(a *domain.Account) { a.Active = active })
}

func (m *memoryDirectory) mutate(id domain.AccountID, fn func(*domain.Account)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.byID(id)
	if a == nil {
		return store.ErrRecordNotFound
	}
	fn(a)
	return nil
}

func (m *memoryDirectory) byID(id domain.AccountID) *domain.Account {
	for _, a := range m.accounts {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (m *memoryDirectory) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.accounts)
}

func (m *memoryDirectory) hashOf(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == email {
			return a.PasswordHash
		}
	}
	return ""
}

var errDirectoryDown = errors.New("directory down")
