package impl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"handoff/internal/domain"
	"handoff/internal/dto"
	"handoff/internal/jwtsigner"
	"handoff/internal/observability/metrics"
	"handoff/internal/observability/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenConfig struct {
	Issuer    string
	AccessTTL time.Duration
	Keys      *jwtsigner.Keys
}

type AccessClaims struct {
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

type TokenServiceImpl struct {
	cfg TokenConfig
	now func() time.Time
}

func NewTokenService(cfg TokenConfig) *TokenServiceImpl {
	return &TokenServiceImpl{cfg: cfg, now: time.Now}
}

// WithClock replaces the time source used for issuing and verifying.
func (t *TokenServiceImpl) WithClock(now func() time.Time) *TokenServiceImpl {
	t.now = now
	return t
}

func (t *TokenServiceImpl) Issue(ctx context.Context, accountID domain.AccountID, email string) (*dto.IssuedToken, error) {
	result := "success"
	defer func() {
		metrics.TokensIssuedTotal.WithLabelValues(result).Inc()
	}()

	now := t.now().UTC().Truncate(time.Second)
	exp := now.Add(t.cfg.AccessTTL)
	jti := uuid.NewString()
	claims := AccessClaims{
		AccountID: accountID.String(),
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.cfg.Issuer,
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        jti,
		},
	}
	signed, err := t.cfg.Keys.Sign(claims)
	if err != nil {
		result = "failure"
		return nil, fmt.Errorf("%w: sign token: %v", domain.ErrInternal, err)
	}

	slog.Debug("issued token",
		"account_id", accountID,
		"token_id", jti,
		"request_id", middleware.RequestIDFromContext(ctx),
		"trace_id", middleware.TraceIDFromContext(ctx),
	)

	return &dto.IssuedToken{
		Token:     signed,
		TokenID:   jti,
		ExpiresIn: int64(t.cfg.AccessTTL.Seconds()),
		ExpiresAt: exp,
	}, nil
}

// Verify checks signature, issuer and expiry. It does not consult the
// account directory.
func (t *TokenServiceImpl) Verify(token string) (*domain.TokenClaims, error) {
	claims := &AccessClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{t.cfg.Keys.Method().Alg()}),
		jwt.WithIssuer(t.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(t.now),
	)
	if _, err := parser.ParseWithClaims(token, claims, t.cfg.Keys.Keyfunc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	id, err := uuid.Parse(claims.AccountID)
	if err != nil || claims.Subject != claims.AccountID {
		return nil, fmt.Errorf("%w: malformed subject", domain.ErrUnauthorized)
	}
	out := &domain.TokenClaims{
		AccountID: id,
		Email:     claims.Email,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	return out, nil
}

func (t *TokenServiceImpl) JWKS() map[string]any {
	keys := []map[string]any{}
	if jwk := t.cfg.Keys.PublicJWK(); jwk != nil {
		keys = append(keys, jwk)
	}
	return map[string]any{"keys": keys}
}
