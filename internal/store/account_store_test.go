package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"handoff/internal/domain"
	"handoff/internal/store"
	"handoff/pkg/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *store.Store {
	t.Helper()

	gdb, err := db.OpenGorm(db.Config{DSN: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	st := store.New(gdb)
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func newAccount(email string, role domain.Role, created time.Time) *domain.Account {
	return &domain.Account{
		Name:                  "Test",
		Email:                 email,
		PasswordHash:          "hash-" + email,
		Role:                  role,
		Address:               "Rua das Flores, 123, Centro",
		Phone:                 "11987654321",
		AvailableForReceiving: true,
		Active:                true,
		CreatedAt:             created,
		UpdatedAt:             created,
	}
}

func TestInsertAndFind(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	accounts := st.Accounts()

	acc := newAccount("ana@example.com", domain.RoleReceiver, time.Now().UTC())
	require.NoError(t, accounts.Insert(ctx, acc))
	require.NotEqual(t, uuid.Nil, acc.ID)

	byID, err := accounts.FindByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, acc.Email, byID.Email)
	assert.Empty(t, byID.PasswordHash, "default projection must omit the hash")

	byEmail, err := accounts.FindByEmail(ctx, "ana@example.com", false)
	require.NoError(t, err)
	assert.Empty(t, byEmail.PasswordHash)

	withHash, err := accounts.FindByEmail(ctx, "ana@example.com", true)
	require.NoError(t, err)
	assert.Equal(t, "hash-ana@example.com", withHash.PasswordHash)

	_, err = accounts.FindByEmail(ctx, "nobody@example.com", false)
	assert.ErrorIs(t, err, store.ErrRecordNotFound)

	_, err = accounts.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestInsertDuplicateEmail(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	require.NoError(t, st.Accounts().Insert(ctx, newAccount("dup@example.com", domain.RoleBuyer, time.Now().UTC())))

	err := st.Accounts().Insert(ctx, newAccount("DUP@example.com", domain.RoleBuyer, time.Now().UTC()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrDuplicateKey), "got %v", err)

	var count int64
	require.NoError(t, st.DB.Model(&domain.Account{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestNegativeCreditsRejected(t *testing.T) {
	st := setupStore(t)
	acc := newAccount("broke@example.com", domain.RoleBuyer, time.Now().UTC())
	acc.CreditBalance = -5
	require.Error(t, st.Accounts().Insert(context.Background(), acc))
}

func TestFindActiveReceivers(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	accounts := st.Accounts()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	receiver := newAccount("r@example.com", domain.RoleReceiver, base)
	both := newAccount("b@example.com", domain.RoleBoth, base.Add(time.Minute))
	buyer := newAccount("buyer@example.com", domain.RoleBuyer, base.Add(2*time.Minute))
	unavailable := newAccount("off@example.com", domain.RoleReceiver, base.Add(3*time.Minute))
	unavailable.AvailableForReceiving = false
	inactive := newAccount("gone@example.com", domain.RoleBoth, base.Add(4*time.Minute))
	inactive.Active = false

	for _, a := range []*domain.Account{receiver, both, buyer, unavailable, inactive} {
		require.NoError(t, accounts.Insert(ctx, a))
	}

	got, err := accounts.FindActiveReceivers(ctx, domain.ReceiverRoles())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, receiver.ID, got[0].ID)
	assert.Equal(t, both.ID, got[1].ID)
	for _, a := range got {
		assert.Empty(t, a.PasswordHash)
		assert.True(t, a.Active)
		assert.True(t, a.AvailableForReceiving)
	}
}

func TestUpdates(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	accounts := st.Accounts()

	acc := newAccount("u@example.com", domain.RoleReceiver, time.Now().UTC())
	require.NoError(t, accounts.Insert(ctx, acc))

	require.NoError(t, accounts.SetAvailability(ctx, acc.ID, false))
	require.NoError(t, accounts.UpdatePasswordHash(ctx, acc.ID, "new-hash"))
	require.NoError(t, accounts.SetActive(ctx, acc.ID, false))

	got, err := accounts.FindByEmail(ctx, acc.Email, true)
	require.NoError(t, err)
	assert.False(t, got.AvailableForReceiving)
	assert.False(t, got.Active)
	assert.Equal(t, "new-hash", got.PasswordHash)

	assert.ErrorIs(t, accounts.SetAvailability(ctx, uuid.New(), true), store.ErrRecordNotFound)
}

func TestWithTxRollsBack(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := st.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.Accounts().Insert(ctx, newAccount("tx@example.com", domain.RoleBuyer, time.Now().UTC())); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = st.Accounts().FindByEmail(ctx, "tx@example.com", false)
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}
