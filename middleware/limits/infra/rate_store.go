package infra

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"limits-gateway/middleware/limits/domain"

	"golang.org/x/time/rate"
)

// RateStore guarda um token bucket (x/time/rate) por cliente.
//
// A leitura de um bucket existente só pega o lock de leitura; o lock exclusivo fica
// para criação, troca de taxa e limpeza. Buckets sem uso há mais de idleTTL são
// removidos por Cleanup (ou pelo janitor).
type RateStore struct {
	cfg atomic.Pointer[rateConfig]

	mu      sync.RWMutex
	buckets map[domain.Key]*bucket

	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type rateConfig struct {
	limit rate.Limit
	burst int
}

// bucket é o domain.Limiter entregue aos guards.
type bucket struct {
	*rate.Limiter
	seen atomic.Int64 // UnixNano do último Get
}

type RateStoreOption func(*RateStore)

// WithIdleTTL define depois de quanto tempo sem uso um bucket pode ser descartado.
func WithIdleTTL(d time.Duration) RateStoreOption {
	return func(s *RateStore) { s.idleTTL = d }
}

// WithCleanupEvery define o intervalo do janitor. <= 0 desliga o janitor.
func WithCleanupEvery(d time.Duration) RateStoreOption {
	return func(s *RateStore) { s.cleanupEvery = d }
}

func NewRateStore(rps float64, burst int, opts ...RateStoreOption) *RateStore {
	s := &RateStore{
		buckets:      make(map[domain.Key]*bucket),
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	s.cfg.Store(&rateConfig{limit: rate.Limit(rps), burst: burst})
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RateStore) RPS() float64 { return float64(s.cfg.Load().limit) }

func (s *RateStore) Burst() int { return s.cfg.Load().burst }

// SetRate troca taxa e burst dos buckets existentes e dos que vierem depois.
func (s *RateStore) SetRate(rps float64, burst int) {
	c := &rateConfig{limit: rate.Limit(rps), burst: burst}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg.Store(c)
	for _, b := range s.buckets {
		b.SetLimitAt(now, c.limit)
		b.SetBurstAt(now, c.burst)
	}
}

// Get implementa domain.LimiterStore.
func (s *RateStore) Get(key domain.Key) domain.Limiter {
	s.mu.RLock()
	b, ok := s.buckets[key]
	s.mu.RUnlock()

	if !ok {
		s.mu.Lock()
		if b, ok = s.buckets[key]; !ok {
			c := s.cfg.Load()
			b = &bucket{Limiter: rate.NewLimiter(c.limit, c.burst)}
			s.buckets[key] = b
		}
		s.mu.Unlock()
	}

	b.seen.Store(time.Now().UnixNano())
	return b
}

// Len devolve quantos clientes têm bucket no momento.
func (s *RateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buckets)
}

// Cleanup remove os buckets ociosos e devolve quantos saíram.
func (s *RateStore) Cleanup() int {
	cutoff := time.Now().Add(-s.idleTTL).UnixNano()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, b := range s.buckets {
		if b.seen.Load() < cutoff {
			delete(s.buckets, key)
			removed++
		}
	}
	return removed
}

// StartJanitor roda Cleanup a cada cleanupEvery até ctx ser cancelado.
func (s *RateStore) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}

	go func() {
		tick := time.NewTicker(s.cleanupEvery)
		defer tick.Stop()
		for {
			select {
			case <-tick.C:
				s.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}
