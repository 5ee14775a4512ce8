package service

import (
	"context"

	"handoff/internal/domain"
	"handoff/internal/dto"
)

type TokenService interface {
	Issue(ctx context.Context, accountID domain.AccountID, email string) (*dto.IssuedToken, error)
	Verify(token string) (*domain.TokenClaims, error)
	JWKS() map[string]any
}
