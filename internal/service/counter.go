package service

import (
	"context"

	"github.com/msomdec/design-catalog/internal/domain"
)

// CounterService bumps view and download counters. Increments are single
// statements on the shared handle and never join a save transaction.
type CounterService struct {
	counters domain.CounterRepository
}

// NewCounterService creates a new CounterService.
func NewCounterService(counters domain.CounterRepository) *CounterService {
	return &CounterService{counters: counters}
}

// View records a view of an active design and returns the new total.
func (s *CounterService) View(ctx context.Context, kind domain.DesignKind, id int64) (int64, error) {
	return s.counters.IncrementViews(ctx, id, kind)
}

// Download records a download of an active design and returns the new total.
func (s *CounterService) Download(ctx context.Context, kind domain.DesignKind, id int64) (int64, error) {
	return s.counters.IncrementDownloads(ctx, id, kind)
}
