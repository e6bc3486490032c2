package limits

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"limits-gateway/middleware/limits/application"
	"limits-gateway/middleware/limits/domain"
)

type RateOptions struct {
	Store domain.LimiterStore
	// RetryAfter devolve o valor do header Retry-After (padrão 1s).
	RetryAfter          domain.DurationFunc
	KeyFn               KeyFunc
	KeyHeader           string
	TrustXForwardedFor  bool
	AddRateLimitHeaders bool
	ReasonPhrase        domain.ReasonPhraseFunc
	Tracer              domain.Tracer
	Stats               domain.StatsStore
}

type rateInfo interface {
	RPS() float64
	Burst() int
}

// RequestRate limita requisições por cliente com token bucket e responde 429 com
// Retry-After quando o bucket do cliente está vazio.
func RequestRate(opts RateOptions) func(http.Handler) http.Handler {
	if opts.Store == nil {
		panic("limits: RequestRate: Store must not be nil")
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	g := newGuard(domain.GuardRequestRate, opts.ReasonPhrase, opts.Tracer, opts.Stats)

	svc := application.RateService{
		Store:      opts.Store,
		RetryAfter: opts.RetryAfter,
	}

	return func(next http.Handler) http.Handler {
		mustNext(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)

			if opts.AddRateLimitHeaders {
				w.Header().Set("X-RateLimit-Key", string(key))
				if ri, ok := opts.Store.(rateInfo); ok {
					w.Header().Set("X-RateLimit-RPS", strconv.FormatFloat(ri.RPS(), 'f', -1, 64))
					w.Header().Set("X-RateLimit-Burst", strconv.Itoa(ri.Burst()))
				}
			}

			dec := svc.Decide(key)
			if !dec.Allowed() {
				g.info("Request rate of client %q exceeded. Request rejected.", key)
				w.Header().Set("Retry-After", retryAfterSeconds(dec.RetryAfter))
				g.reject(w, r, dec.Status)
				return
			}

			g.verbose("Request of client %q forwarded.", key)
			g.forward(r)
			next.ServeHTTP(w, r)
		})
	}
}

// Retry-After em segundos inteiros, sem nunca anunciar 0.
func retryAfterSeconds(d time.Duration) string {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		s = 1
	}
	return strconv.Itoa(s)
}
