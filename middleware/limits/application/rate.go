package application

import (
	"time"

	"limits-gateway/middleware/limits/domain"
)

const defaultRetryAfter = 1 * time.Second

// RateService concentra a regra do guard de taxa de requisições por cliente.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
// RetryAfter é avaliado a cada decisão negada, como os demais limites.
type RateService struct {
	Store      domain.LimiterStore
	RetryAfter domain.DurationFunc
}

func (s RateService) Decide(key domain.Key) domain.RateDecision {
	dec := domain.RateDecision{Guard: domain.GuardRequestRate, Key: key}
	if s.Store == nil {
		return dec
	}

	lim := s.Store.Get(key)
	if lim == nil || lim.Allow() {
		return dec
	}

	dec.Status = domain.StatusTooManyRequests
	dec.RetryAfter = defaultRetryAfter
	if s.RetryAfter != nil {
		if d := s.RetryAfter(); d > 0 {
			dec.RetryAfter = d
		}
	}
	return dec
}
