package infra

import (
	"context"
	"sync"

	"limits-gateway/middleware/limits/domain"
)

type Counters struct {
	Allowed int64
	Denied  int64
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e desenvolvimento.
//
// Não faz expiração e não é indicada para produção.
type MemoryStatsStore struct {
	mu       sync.Mutex
	total    Counters
	byGuard  map[string]Counters
	byStatus map[int]int64
	byRoute  map[string]Counters

	trackRoutes bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackRoutes(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackRoutes = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byGuard:  make(map[string]Counters),
		byStatus: make(map[int]int64),
		byRoute:  make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	route := ev.Method + " " + ev.Path

	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.byGuard[ev.Guard]
	r := s.byRoute[route]
	if ev.Allowed {
		s.total.Allowed++
		g.Allowed++
		r.Allowed++
	} else {
		s.total.Denied++
		g.Denied++
		r.Denied++
		s.byStatus[ev.Status]++
	}
	s.byGuard[ev.Guard] = g
	if s.trackRoutes {
		s.byRoute[route] = r
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) Guard(name string) Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byGuard[name]
}

// Rejections devolve quantas rejeições houve com o status informado.
func (s *MemoryStatsStore) Rejections(status int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byStatus[status]
}

func (s *MemoryStatsStore) ByRoute() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byRoute))
	for k, v := range s.byRoute {
		out[k] = v
	}
	return out
}
