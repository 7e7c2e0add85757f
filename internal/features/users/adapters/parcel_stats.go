package adapters

import (
	"context"
	"fmt"

	parceldomain "parcel-tracker/internal/features/parcels/domain"
	parcelports "parcel-tracker/internal/features/parcels/ports"
	"parcel-tracker/internal/features/users/domain"
)

// ParcelStats answers user-side questions from the parcel store.
type ParcelStats struct {
	repo parcelports.Repository
}

// NewParcelStats wraps the parcel repository.
func NewParcelStats(repo parcelports.Repository) *ParcelStats {
	return &ParcelStats{repo: repo}
}

func (s *ParcelStats) CustomerStats(ctx context.Context, customerID string) ([]domain.StatusCount, error) {
	return s.aggregate(ctx, parceldomain.Scope{CustomerID: customerID}, true)
}

func (s *ParcelStats) AgentStats(ctx context.Context, agentID string) ([]domain.StatusCount, error) {
	return s.aggregate(ctx, parceldomain.Scope{AgentID: agentID}, false)
}

func (s *ParcelStats) HasActiveParcels(ctx context.Context, customerID string) (bool, error) {
	n, err := s.repo.CountActive(ctx, parceldomain.Scope{CustomerID: customerID})
	if err != nil {
		return false, fmt.Errorf("count active parcels: %w", err)
	}
	return n > 0, nil
}

func (s *ParcelStats) aggregate(ctx context.Context, scope parceldomain.Scope, amounts bool) ([]domain.StatusCount, error) {
	rows, err := s.repo.AggregateByStatus(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("aggregate parcels: %w", err)
	}
	out := make([]domain.StatusCount, 0, len(rows))
	for _, r := range rows {
		c := domain.StatusCount{Status: string(r.Status), Count: r.Count}
		if amounts {
			c.TotalAmount = r.TotalAmount
		}
		out = append(out, c)
	}
	return out, nil
}
