package impl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"handoff/internal/domain"
	"handoff/internal/dto"
	"handoff/internal/observability/metrics"
	"handoff/internal/observability/middleware"
	"handoff/internal/service"
	"handoff/internal/similarity"
	"handoff/internal/store"
)

// ReceiverServiceImpl ranks receivers by estimated distance from a delivery
// address. It never writes except for SetAvailability.
type ReceiverServiceImpl struct {
	Accounts  service.AccountDirectory
	Estimator similarity.Estimator
}

func NewReceiverServiceImpl(accounts service.AccountDirectory, est similarity.Estimator) *ReceiverServiceImpl {
	if est == nil {
		est = similarity.TextProxy{}
	}
	return &ReceiverServiceImpl{Accounts: accounts, Estimator: est}
}

func (s *ReceiverServiceImpl) Search(ctx context.Context, address string, radiusKm float64) ([]dto.ReceiverMatch, error) {
	result := "success"
	defer func() {
		metrics.ReceiverSearchesTotal.WithLabelValues(result).Inc()
	}()

	address = strings.TrimSpace(address)
	if address == "" {
		result = "invalid"
		return nil, fmt.Errorf("%w: address is required", domain.ErrInvalidInput)
	}
	if radiusKm < 0 {
		result = "invalid"
		return nil, fmt.Errorf("%w: radiusKm must not be negative", domain.ErrInvalidInput)
	}

	candidates, err := s.Accounts.FindActiveReceivers(ctx, domain.ReceiverRoles())
	if err != nil {
		result = "failure"
		return nil, fmt.Errorf("%w: list receivers: %v", domain.ErrInternal, err)
	}

	matches := make([]dto.ReceiverMatch, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		if !c.IsActiveReceiver() {
			continue
		}
		d := s.Estimator.EstimateKm(address, c.Address)
		if d > radiusKm {
			continue
		}
		matches = append(matches, dto.ReceiverMatch{Account: c.Sanitized(), DistanceKm: d})
	}

	// Ties keep directory order.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].DistanceKm < matches[j].DistanceKm
	})
	for i := range matches {
		matches[i].Rank = i + 1
	}

	metrics.ReceiverSearchMatches.Observe(float64(len(matches)))
	slog.Debug("receiver search",
		"candidates", len(candidates),
		"matches", len(matches),
		"radius_km", radiusKm,
		"request_id", middleware.RequestIDFromContext(ctx),
		"trace_id", middleware.TraceIDFromContext(ctx),
	)
	return matches, nil
}

// GetReceiver returns nil without error when the account is missing or
// inactive. Distance is 0 since there is no reference address.
func (s *ReceiverServiceImpl) GetReceiver(ctx context.Context, id domain.AccountID) (*dto.ReceiverMatch, error) {
	acc, err := s.Accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: lookup receiver: %v", domain.ErrInternal, err)
	}
	if !acc.Active {
		return nil, nil
	}
	return &dto.ReceiverMatch{Account: acc.Sanitized(), DistanceKm: 0}, nil
}

func (s *ReceiverServiceImpl) SetAvailability(ctx context.Context, id domain.AccountID, available bool) (*domain.Account, error) {
	if err := s.Accounts.SetAvailability(ctx, id, available); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: account", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: update availability: %v", domain.ErrInternal, err)
	}
	acc, err := s.Accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: account", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: reload account: %v", domain.ErrInternal, err)
	}
	slog.Info("availability updated", "account_id", id, "available", available,
		"request_id", middleware.RequestIDFromContext(ctx))
	return acc.Sanitized(), nil
}
