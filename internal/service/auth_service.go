package service

import (
	"context"

	"handoff/internal/domain"
	"handoff/internal/dto"
)

type AuthService interface {
	Register(ctx context.Context, r dto.RegisterRequest, ip, ua string) (*dto.AuthResponse, error)
	Login(ctx context.Context, r dto.LoginRequest, ip, ua string) (*dto.AuthResponse, error)
	ResolveIdentity(ctx context.Context, accountID domain.AccountID) (*domain.Account, error)
	Logout(ctx context.Context, claims *domain.TokenClaims) error
}
