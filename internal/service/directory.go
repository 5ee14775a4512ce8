package service

import (
	"context"
	"time"

	"handoff/internal/domain"
)

// AccountDirectory is the persistence surface the services read and write
// accounts through. Lookups that find nothing return store.ErrRecordNotFound;
// Insert returns store.ErrDuplicateKey when the email is taken.
type AccountDirectory interface {
	FindActiveReceivers(ctx context.Context, roles []domain.Role) ([]domain.Account, error)
	FindByEmail(ctx context.Context, email string, includePassword bool) (*domain.Account, error)
	FindByID(ctx context.Context, id domain.AccountID) (*domain.Account, error)
	Insert(ctx context.Context, a *domain.Account) error
	UpdatePasswordHash(ctx context.Context, id domain.AccountID, hash string) error
	SetAvailability(ctx context.Context, id domain.AccountID, available bool) error
}

// Denylist records token ids revoked before their expiry.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
