package infra

import (
	"context"
	"errors"

	"limits-gateway/middleware/limits/domain"
)

// FanoutStatsStore repassa cada evento para todos os stores (ex.: Redis + Prometheus).
// Stores nil são ignorados; os erros são agregados.
type FanoutStatsStore []domain.StatsStore

func (f FanoutStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	var errs []error
	for _, s := range f {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
