package store

import (
	"context"

	"handoff/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// publicColumns is the default projection; password_hash is only read on request.
var publicColumns = []string{
	"id", "name", "email", "role", "address", "phone", "age",
	"available_for_receiving", "active", "credit_balance", "created_at", "updated_at",
}

type AccountStore struct{ db *gorm.DB }

func (s *Store) Accounts() *AccountStore { return &AccountStore{db: s.DB} }

func (a *AccountStore) Insert(ctx context.Context, acc *domain.Account) error {
	if acc.ID == uuid.Nil {
		acc.ID = uuid.New()
	}
	return translate(a.db.WithContext(ctx).Create(acc).Error)
}

// FindActiveReceivers returns active accounts that are available and hold one
// of roles, oldest first.
func (a *AccountStore) FindActiveReceivers(ctx context.Context, roles []domain.Role) ([]domain.Account, error) {
	var out []domain.Account
	err := a.db.WithContext(ctx).
		Select(publicColumns).
		Where("role IN ?", roles).
		Where("available_for_receiving = ? AND active = ?", true, true).
		Order("created_at ASC").Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (a *AccountStore) FindByEmail(ctx context.Context, email string, includePassword bool) (*domain.Account, error) {
	q := a.db.WithContext(ctx)
	if !includePassword {
		q = q.Select(publicColumns)
	}
	var acc domain.Account
	if err := q.First(&acc, "email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &acc, nil
}

func (a *AccountStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var acc domain.Account
	if err := a.db.WithContext(ctx).Select(publicColumns).First(&acc, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &acc, nil
}

func (a *AccountStore) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return a.update(ctx, id, "password_hash", hash)
}

func (a *AccountStore) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	return a.update(ctx, id, "available_for_receiving", available)
}

func (a *AccountStore) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return a.update(ctx, id, "active", active)
}

func (a *AccountStore) update(ctx context.Context, id uuid.UUID, column string, value any) error {
	res := a.db.WithContext(ctx).Model(&domain.Account{}).
		Where("id = ?", id).
		Update(column, value)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
