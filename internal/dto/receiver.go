package dto

import (
	"strings"

	"handoff/internal/domain"
)

// DefaultRadiusKm applies when a search omits its radius.
const DefaultRadiusKm = 1.0

type SearchRequest struct {
	Address  string   `json:"address" validate:"required,min=10,max=200"`
	RadiusKm *float64 `json:"radiusKm,omitempty" validate:"omitempty,gte=0,lte=10"`
}

func (r *SearchRequest) Normalize() {
	r.Address = strings.TrimSpace(r.Address)
}

// Radius returns the requested radius or DefaultRadiusKm.
func (r SearchRequest) Radius() float64 {
	if r.RadiusKm == nil {
		return DefaultRadiusKm
	}
	return *r.RadiusKm
}

type ReceiverMatch struct {
	Account    *domain.Account `json:"account"`
	DistanceKm float64         `json:"distanceKm"`
	Rank       int             `json:"rank,omitempty"`
}

type SearchParams struct {
	Address  string  `json:"address"`
	RadiusKm float64 `json:"radiusKm"`
}

type SearchResponse struct {
	Receivers    []ReceiverMatch `json:"receivers"`
	SearchParams SearchParams    `json:"searchParams"`
}

type AvailabilityRequest struct {
	Available *bool `json:"availableForReceiving" validate:"required"`
}
