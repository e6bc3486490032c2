package limits

import (
	"net/http"
	"time"

	"limits-gateway/middleware/limits/domain"
)

// BandwidthOptions configura MaxBandwidthWith. Limit devolve bytes/segundo; <= 0 é ilimitado.
type BandwidthOptions struct {
	Limit  domain.Int64Func
	Tracer domain.Tracer
}

type ConcurrencyOptions struct {
	// Limit devolve o máximo de requisições simultâneas; <= 0 é ilimitado.
	Limit        domain.IntFunc
	ReasonPhrase domain.ReasonPhraseFunc
	Tracer       domain.Tracer
	Stats        domain.StatsStore
	// Counter é opcional (padrão: infra.AtomicCounter).
	Counter domain.AdmissionCounter
}

// TimeoutOptions configura ConnectionTimeoutWith. Limit <= 0 desliga o timeout.
type TimeoutOptions struct {
	Limit  domain.DurationFunc
	Tracer domain.Tracer
	Stats  domain.StatsStore
}

type URLOptions struct {
	Limit        domain.IntFunc
	ReasonPhrase domain.ReasonPhraseFunc
	Tracer       domain.Tracer
	Stats        domain.StatsStore
}

type QueryStringOptions struct {
	Limit        domain.IntFunc
	ReasonPhrase domain.ReasonPhraseFunc
	Tracer       domain.Tracer
	Stats        domain.StatsStore
}

type ContentLengthOptions struct {
	Limit        domain.Int64Func
	ReasonPhrase domain.ReasonPhraseFunc
	Tracer       domain.Tracer
	Stats        domain.StatsStore
}

// Static devolve um provedor de limite que sempre responde v.
func Static[T int | int64 | time.Duration](v T) func() T {
	return func() T { return v }
}

// Chain compõe os estágios na ordem dada: o primeiro é o mais externo.
func Chain(stages ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		mustNext(next)
		for i := len(stages) - 1; i >= 0; i-- {
			if stages[i] == nil {
				continue
			}
			next = stages[i](next)
		}
		return next
	}
}

func mustLimit(set bool, guard string) {
	if !set {
		panic("limits: " + guard + ": Limit must not be nil")
	}
}

func mustNext(next http.Handler) {
	if next == nil {
		panic("limits: next handler must not be nil")
	}
}
