package domain

import (
	"time"

	"github.com/google/uuid"
)

// TokenClaims is the verified content of a bearer token.
type TokenClaims struct {
	AccountID uuid.UUID
	Email     string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
