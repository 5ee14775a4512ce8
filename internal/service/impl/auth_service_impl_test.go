package impl

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"handoff/internal/domain"
	"handoff/internal/dto"
	"handoff/internal/jwtsigner"
	"handoff/internal/revocation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// countingPasswords wraps the real password service and counts calls.
type countingPasswords struct {
	*PasswordServiceImpl
	hashCalls   atomic.Int32
	verifyCalls atomic.Int32
}

func (c *countingPasswords) Hash(password string) (string, error) {
	c.hashCalls.Add(1)
	return c.PasswordServiceImpl.Hash(password)
}

func (c *countingPasswords) Verify(password, encoded string) (bool, bool) {
	c.verifyCalls.Add(1)
	return c.PasswordServiceImpl.Verify(password, encoded)
}

type authFixture struct {
	svc       *AuthServiceImpl
	dir       *memoryDirectory
	passwords *countingPasswords
	tokens    *TokenServiceImpl
	denylist  *revocation.Memory
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	keys, err := jwtsigner.New(jwtsigner.AlgHS256, testSecret, "kid-test")
	require.NoError(t, err)

	f := &authFixture{
		dir:       newMemoryDirectory(),
		passwords: &countingPasswords{PasswordServiceImpl: NewPasswordServiceBcrypt(bcrypt.MinCost)},
		tokens:    NewTokenService(TokenConfig{Issuer: "handoff-test", AccessTTL: time.Hour, Keys: keys}),
		denylist:  revocation.NewMemory(),
	}
	f.svc = NewAuthServiceImpl(f.dir, f.passwords, f.tokens, f.denylist)
	return f
}

func registerReq(email string) dto.RegisterRequest {
	return dto.RegisterRequest{
		Name:     "Ana Souza",
		Email:    email,
		Password: "secret1",
		Phone:    "11987654321",
		Role:     "both",
		Address:  "Rua das Flores, 123, Centro",
	}
}

func TestRegisterIssuesVerifiableToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	res, err := f.svc.Register(ctx, registerReq("  Ana@Example.com "), "203.0.113.9", "go-test")
	require.NoError(t, err)
	require.NotNil(t, res.Account)

	assert.Equal(t, "ana@example.com", res.Account.Email)
	assert.Empty(t, res.Account.PasswordHash, "response must not carry the hash")
	assert.True(t, res.Account.Active)
	assert.True(t, res.Account.AvailableForReceiving)
	assert.Zero(t, res.Account.CreditBalance)
	assert.EqualValues(t, 3600, res.ExpiresIn)
	assert.EqualValues(t, 1, f.passwords.hashCalls.Load())

	stored := f.dir.hashOf("ana@example.com")
	require.NotEmpty(t, stored)
	assert.NotEqual(t, "secret1", stored)

	claims, err := f.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Account.ID, claims.AccountID)
	assert.Equal(t, "ana@example.com", claims.Email)
}

func TestRegisterDuplicateEmailCaseInsensitive(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, registerReq("ana@example.com"), "", "")
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, registerReq("ANA@example.com"), "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 1, f.dir.count())
	assert.EqualValues(t, 1, f.passwords.hashCalls.Load(), "no hashing for rejected registrations")
}

func TestRegisterConcurrentSameEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	var ok, conflicts atomic.Int32
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Register(ctx, registerReq("race@example.com"), "", "")
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrConflict):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, ok.Load())
	assert.EqualValues(t, n-1, conflicts.Load())
	assert.Equal(t, 1, f.dir.count())
}

func TestRegisterInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *dto.RegisterRequest)
	}{
		{name: "phone letters", mutate: func(r *dto.RegisterRequest) { r.Phone = "abc" }},
		{name: "password over bcrypt limit", mutate: func(r *dto.RegisterRequest) { r.Password = strings.Repeat("p", 73) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newAuthFixture(t)
			req := registerReq("ana@example.com")
			tc.mutate(&req)

			_, err := f.svc.Register(context.Background(), req, "", "")
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.NotErrorIs(t, err, domain.ErrInternal)
			assert.Zero(t, f.dir.count())
			assert.Zero(t, f.passwords.hashCalls.Load())
		})
	}
}

func TestRegisterHonoursOptionalFields(t *testing.T) {
	f := newAuthFixture(t)
	req := registerReq("opt@example.com")
	off := false
	credits := int64(15)
	age := 34
	req.AvailableForReceiving = &off
	req.CreditBalance = &credits
	req.Age = &age

	res, err := f.svc.Register(context.Background(), req, "", "")
	require.NoError(t, err)
	assert.False(t, res.Account.AvailableForReceiving)
	assert.EqualValues(t, 15, res.Account.CreditBalance)
	require.NotNil(t, res.Account.Age)
	assert.Equal(t, 34, *res.Account.Age)
}

func TestRegisterDirectoryFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.dir.findErr = errDirectoryDown

	_, err := f.svc.Register(context.Background(), registerReq("x@example.com"), "", "")
	assert.ErrorIs(t, err, domain.ErrInternal)
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, registerReq("ana@example.com"), "", "")
	require.NoError(t, err)

	res, err := f.svc.Login(ctx, dto.LoginRequest{Email: "ANA@example.com", Password: "secret1"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, reg.Account.ID, res.Account.ID)
	assert.Empty(t, res.Account.PasswordHash)

	claims, err := f.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.Account.ID, claims.AccountID)
}

func TestLoginFailures(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, registerReq("ana@example.com"), "", "")
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "wrong-password"}, "", "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.svc.Login(ctx, dto.LoginRequest{Email: "nobody@example.com", Password: "secret1"}, "", "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	f.dir.setActive(reg.Account.ID, false)
	_, err = f.svc.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "secret1"}, "", "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.svc.Login(ctx, dto.LoginRequest{Email: "not-an-email", Password: "secret1"}, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoginUnknownEmailStillChecksPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.svc.Login(ctx, dto.LoginRequest{Email: "nobody@example.com", Password: "secret1"}, "", "")
		require.ErrorIs(t, err, domain.ErrUnauthorized)
		assert.Contains(t, err.Error(), msgBadCredentials)
	}
	assert.EqualValues(t, 2, f.passwords.verifyCalls.Load())
	assert.EqualValues(t, 1, f.passwords.hashCalls.Load(), "placeholder hash is computed once")
	assert.NotEmpty(t, f.svc.placeholderHash)
}

func TestLoginUpgradesOutdatedHash(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, registerReq("ana@example.com"), "", "")
	require.NoError(t, err)
	before := f.dir.hashOf("ana@example.com")

	f.svc.PasswordService = NewPasswordServiceBcrypt(bcrypt.MinCost + 1)
	_, err = f.svc.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "secret1"}, "", "")
	require.NoError(t, err)

	after := f.dir.hashOf("ana@example.com")
	assert.NotEqual(t, before, after)
	cost, err := bcrypt.Cost([]byte(after))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)
}

func TestResolveIdentity(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, registerReq("ana@example.com"), "", "")
	require.NoError(t, err)

	acc, err := f.svc.ResolveIdentity(ctx, reg.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", acc.Email)
	assert.Empty(t, acc.PasswordHash)

	f.dir.setActive(reg.Account.ID, false)
	_, err = f.svc.ResolveIdentity(ctx, reg.Account.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	f.dir.findErr = errDirectoryDown
	_, err = f.svc.ResolveIdentity(ctx, reg.Account.ID)
	assert.ErrorIs(t, err, domain.ErrInternal)
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, registerReq("ana@example.com"), "", "")
	require.NoError(t, err)
	claims, err := f.tokens.Verify(reg.Token)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, claims))
	revoked, err := f.denylist.IsRevoked(ctx, claims.TokenID)
	require.NoError(t, err)
	assert.True(t, revoked)

	assert.ErrorIs(t, f.svc.Logout(ctx, &domain.TokenClaims{}), domain.ErrUnauthorized)
}
