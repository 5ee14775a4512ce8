package dto

import (
	"time"

	"handoff/internal/domain"
)

type IssuedToken struct {
	Token     string    `json:"token"`
	TokenID   string    `json:"-"`
	ExpiresIn int64     `json:"expiresIn"` // seconds
	ExpiresAt time.Time `json:"expiresAt"`
}

type AuthResponse struct {
	Account   *domain.Account `json:"account"`
	Token     string          `json:"token"`
	ExpiresIn int64           `json:"expiresIn"`
	ExpiresAt time.Time       `json:"expiresAt"`
}
