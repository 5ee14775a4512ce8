package impl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"handoff/internal/domain"
	"handoff/internal/dto"
	"handoff/internal/netutil"
	"handoff/internal/observability/metrics"
	"handoff/internal/observability/middleware"
	"handoff/internal/revocation"
	"handoff/internal/service"
	"handoff/internal/store"

	"github.com/google/uuid"
)

const (
	msgBadCredentials = "invalid email or password"
	// hashed once per service and checked against when the email is unknown
	placeholderPassword = "handoff-placeholder-password"
)

type AuthServiceImpl struct {
	Accounts        service.AccountDirectory
	PasswordService service.PasswordService
	TService        service.TokenService
	Denylist        service.Denylist

	now func() time.Time

	placeholderOnce sync.Once
	placeholderHash string
}

func NewAuthServiceImpl(accounts service.AccountDirectory, passwords service.PasswordService, tokens service.TokenService, denylist service.Denylist) *AuthServiceImpl {
	if denylist == nil {
		denylist = revocation.Noop{}
	}
	return &AuthServiceImpl{
		Accounts:        accounts,
		PasswordService: passwords,
		TService:        tokens,
		Denylist:        denylist,
		now:             time.Now,
	}
}

func (a *AuthServiceImpl) Register(ctx context.Context, r dto.RegisterRequest, ip, ua string) (*dto.AuthResponse, error) {
	result := "success"
	defer func() {
		metrics.RegistrationsTotal.WithLabelValues(result).Inc()
	}()

	r.Normalize()
	if err := dto.Validate(r); err != nil {
		result = "invalid"
		return nil, err
	}

	switch _, err := a.Accounts.FindByEmail(ctx, r.Email, false); {
	case err == nil:
		result = "conflict"
		return nil, fmt.Errorf("%w: email already registered", domain.ErrConflict)
	case !errors.Is(err, store.ErrRecordNotFound):
		result = "failure"
		return nil, fmt.Errorf("%w: lookup email: %v", domain.ErrInternal, err)
	}

	hash, err := a.PasswordService.Hash(r.Password)
	if errors.Is(err, domain.ErrInvalidInput) {
		result = "invalid"
		return nil, err
	}
	if err != nil {
		result = "failure"
		return nil, fmt.Errorf("%w: hash password: %v", domain.ErrInternal, err)
	}

	now := a.now().UTC()
	acc := &domain.Account{
		ID:                    uuid.New(),
		Name:                  r.Name,
		Email:                 r.Email,
		PasswordHash:          hash,
		Role:                  domain.Role(r.Role),
		Address:               r.Address,
		Phone:                 r.Phone,
		Age:                   r.Age,
		AvailableForReceiving: true,
		Active:                true,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if r.AvailableForReceiving != nil {
		acc.AvailableForReceiving = *r.AvailableForReceiving
	}
	if r.CreditBalance != nil {
		acc.CreditBalance = *r.CreditBalance
	}

	// The unique index settles concurrent registrations for the same email.
	if err := a.Accounts.Insert(ctx, acc); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			result = "conflict"
			return nil, fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
		result = "failure"
		return nil, fmt.Errorf("%w: insert account: %v", domain.ErrInternal, err)
	}

	tok, err := a.TService.Issue(ctx, acc.ID, acc.Email)
	if err != nil {
		result = "failure"
		return nil, err
	}

	slog.Info("account registered",
		"account_id", acc.ID,
		"role", acc.Role,
		"ip", ip,
		"user_agent", netutil.TruncateUserAgent(ua),
		"request_id", middleware.RequestIDFromContext(ctx),
		"trace_id", middleware.TraceIDFromContext(ctx),
	)

	return authResponse(acc, tok), nil
}

func (a *AuthServiceImpl) Login(ctx context.Context, r dto.LoginRequest, ip, ua string) (*dto.AuthResponse, error) {
	result := "success"
	defer func() {
		metrics.LoginsTotal.WithLabelValues(result).Inc()
	}()

	r.Normalize()
	if err := dto.Validate(r); err != nil {
		result = "invalid"
		return nil, err
	}

	acc, err := a.Accounts.FindByEmail(ctx, r.Email, true)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			result = "failure"
			a.verifyPlaceholder(r.Password)
			return nil, fmt.Errorf("%w: %s", domain.ErrUnauthorized, msgBadCredentials)
		}
		result = "error"
		return nil, fmt.Errorf("%w: lookup account: %v", domain.ErrInternal, err)
	}
	if !acc.Active {
		result = "disabled"
		return nil, fmt.Errorf("%w: account disabled", domain.ErrUnauthorized)
	}

	rehashNeeded, ok := a.PasswordService.Verify(r.Password, acc.PasswordHash)
	if !ok {
		result = "failure"
		slog.Warn("login rejected",
			"account_id", acc.ID,
			"ip", ip,
			"request_id", middleware.RequestIDFromContext(ctx),
			"trace_id", middleware.TraceIDFromContext(ctx),
		)
		return nil, fmt.Errorf("%w: %s", domain.ErrUnauthorized, msgBadCredentials)
	}
	if rehashNeeded {
		a.upgradeHash(ctx, acc.ID, r.Password)
	}

	tok, err := a.TService.Issue(ctx, acc.ID, acc.Email)
	if err != nil {
		result = "error"
		return nil, err
	}

	slog.Info("login succeeded",
		"account_id", acc.ID,
		"ip", ip,
		"user_agent", netutil.TruncateUserAgent(ua),
		"request_id", middleware.RequestIDFromContext(ctx),
		"trace_id", middleware.TraceIDFromContext(ctx),
	)
	return authResponse(acc, tok), nil
}

// upgradeHash re-hashes with the current policy. Failures leave the old hash
// in place, which still verifies.
func (a *AuthServiceImpl) upgradeHash(ctx context.Context, id domain.AccountID, password string) {
	hash, err := a.PasswordService.Hash(password)
	if err == nil {
		err = a.Accounts.UpdatePasswordHash(ctx, id, hash)
	}
	if err != nil {
		slog.Warn("password rehash failed", "account_id", id, "error", err)
		return
	}
	slog.Info("password rehashed", "account_id", id)
}

// ResolveIdentity re-reads the account behind a verified token. Tokens stay
// cryptographically valid after deactivation, so liveness is checked here on
// every protected call.
func (a *AuthServiceImpl) ResolveIdentity(ctx context.Context, accountID domain.AccountID) (*domain.Account, error) {
	acc, err := a.Accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: account not found", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%w: lookup account: %v", domain.ErrInternal, err)
	}
	if !acc.Active {
		return nil, fmt.Errorf("%w: account disabled", domain.ErrUnauthorized)
	}
	return acc.Sanitized(), nil
}

// Logout denylists the token until it would have expired.
func (a *AuthServiceImpl) Logout(ctx context.Context, claims *domain.TokenClaims) error {
	if claims == nil || claims.TokenID == "" {
		return fmt.Errorf("%w: token has no id", domain.ErrUnauthorized)
	}
	if err := a.Denylist.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("%w: revoke token: %v", domain.ErrInternal, err)
	}
	slog.Info("token revoked",
		"account_id", claims.AccountID,
		"token_id", claims.TokenID,
		"request_id", middleware.RequestIDFromContext(ctx),
	)
	return nil
}

func authResponse(acc *domain.Account, tok *dto.IssuedToken) *dto.AuthResponse {
	return &dto.AuthResponse{
		Account:   acc.Sanitized(),
		Token:     tok.Token,
		ExpiresIn: tok.ExpiresIn,
		ExpiresAt: tok.ExpiresAt,
	}
}

// verifyPlaceholder spends one password check so unknown emails answer in
// about the time a wrong password does.
func (a *AuthServiceImpl) verifyPlaceholder(password string) {
	a.placeholderOnce.Do(func() {
		h, err := a.PasswordService.Hash(placeholderPassword)
		if err != nil {
			slog.Error("hash placeholder password", "error", err)
			return
		}
		a.placeholderHash = h
	})
	a.PasswordService.Verify(password, a.placeholderHash)
}
