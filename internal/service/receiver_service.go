package service

import (
	"context"

	"handoff/internal/domain"
	"handoff/internal/dto"
)

type ReceiverService interface {
	Search(ctx context.Context, address string, radiusKm float64) ([]dto.ReceiverMatch, error)
	GetReceiver(ctx context.Context, id domain.AccountID) (*dto.ReceiverMatch, error)
	SetAvailability(ctx context.Context, id domain.AccountID, available bool) (*domain.Account, error)
}
