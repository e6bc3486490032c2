package application

import (
	"math"
	"sync/atomic"

	"limits-gateway/middleware/limits/domain"
)

// AdmissionService concentra a regra de admissão por concorrência,
// sem saber nada sobre HTTP.
type AdmissionService struct {
	Counter domain.AdmissionCounter
	Limit   domain.IntFunc
}

// Admit incrementa o contador e compara o valor já incrementado com o limite atual.
// - Se `Limit` devolver <= 0, não há limite (mas o contador continua sendo mantido).
// - Se o valor passar do limite, o contador é decrementado antes de retornar ok=false.
// Retorna (release, current, ok). release decrementa o contador uma única vez,
// mesmo se chamado várias vezes; use com defer.
func (s AdmissionService) Admit() (func(), int64, bool) {
	if s.Counter == nil {
		return func() {}, 0, true
	}

	limit := int64(math.MaxInt64)
	if s.Limit != nil {
		if l := s.Limit(); l > 0 {
			limit = int64(l)
		}
	}

	current := s.Counter.Increment()
	if current > limit {
		s.Counter.Decrement()
		return func() {}, current, false
	}

	var released atomic.Bool
	return func() {
		if released.CompareAndSwap(false, true) {
			s.Counter.Decrement()
		}
	}, current, true
}
