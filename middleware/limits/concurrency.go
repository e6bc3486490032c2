package limits

import (
	"net/http"

	"limits-gateway/middleware/limits/application"
	"limits-gateway/middleware/limits/domain"
	"limits-gateway/middleware/limits/infra"
)

// ConcurrencyGuard limita quantas requisições passam ao mesmo tempo pelo handler.
//
// O contador é do guard: cada ConcurrencyGuard (e cada chamada de
// MaxConcurrentRequests*) tem o seu. A requisição que passa do limite recebe 503
// na hora, sem fila.
type ConcurrencyGuard struct {
	svc application.AdmissionService
	g   guard
}

func NewConcurrencyGuard(opts ConcurrencyOptions) *ConcurrencyGuard {
	mustLimit(opts.Limit != nil, "MaxConcurrentRequests")
	counter := opts.Counter
	if counter == nil {
		counter = infra.NewAtomicCounter()
	}
	return &ConcurrencyGuard{
		svc: application.AdmissionService{Counter: counter, Limit: opts.Limit},
		g:   newGuard(domain.GuardConcurrency, opts.ReasonPhrase, opts.Tracer, opts.Stats),
	}
}

// InFlight devolve quantas requisições foram admitidas e ainda não terminaram.
func (c *ConcurrencyGuard) InFlight() int64 { return c.svc.Counter.Current() }

// Counter expõe o contador (somente leitura faz sentido fora do guard; ex.: gauge).
func (c *ConcurrencyGuard) Counter() domain.AdmissionCounter { return c.svc.Counter }

func (c *ConcurrencyGuard) Middleware(next http.Handler) http.Handler {
	mustNext(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		release, current, ok := c.svc.Admit()
		if !ok {
			c.g.info("Concurrent request #%d exceeds the limit. Request rejected.", current)
			c.g.reject(w, r, http.StatusServiceUnavailable)
			return
		}
		// release roda mesmo se o handler entrar em pânico
		defer release()

		c.g.verbose("Concurrent request #%d forwarded.", current)
		c.g.forward(r)
		next.ServeHTTP(w, r)
	})
}

func MaxConcurrentRequests(max int) func(http.Handler) http.Handler {
	return MaxConcurrentRequestsWith(ConcurrencyOptions{Limit: Static(max)})
}

func MaxConcurrentRequestsFunc(limit func() int) func(http.Handler) http.Handler {
	return MaxConcurrentRequestsWith(ConcurrencyOptions{Limit: limit})
}

func MaxConcurrentRequestsWith(opts ConcurrencyOptions) func(http.Handler) http.Handler {
	return NewConcurrencyGuard(opts).Middleware
}
