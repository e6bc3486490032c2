package limits

import (
	"net/http"

	"limits-gateway/middleware/limits/domain"
	"limits-gateway/middleware/limits/infra"
)

// MaxBandwidth limita a vazão do corpo da requisição e da resposta a bps bytes/segundo
// (cada direção com sua própria janela). bps <= 0 é ilimitado. Nunca rejeita.
func MaxBandwidth(bps int64) func(http.Handler) http.Handler {
	return MaxBandwidthWith(BandwidthOptions{Limit: Static(bps)})
}

func MaxBandwidthFunc(limit func() int64) func(http.Handler) http.Handler {
	return MaxBandwidthWith(BandwidthOptions{Limit: limit})
}

func MaxBandwidthWith(opts BandwidthOptions) func(http.Handler) http.Handler {
	mustLimit(opts.Limit != nil, "MaxBandwidth")
	g := newGuard(domain.GuardBandwidth, nil, opts.Tracer, nil)

	return func(next http.Handler) http.Handler {
		mustNext(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bps := opts.Limit()
			if bps <= 0 {
				g.verbose("Unlimited bandwidth. Request forwarded.")
				next.ServeHTTP(w, r)
				return
			}

			g.verbose("Configure streams to be limited to %d bytes/s.", bps)
			orig := r.Body
			body := orig
			if body == nil {
				body = http.NoBody
			}
			withCtx := infra.WithThrottleContext(r.Context())
			r.Body = infra.NewThrottledStream(body, bps, withCtx)
			defer func() { r.Body = orig }()

			out := infra.NewThrottledStream(responseFlusher{w: w}, bps, withCtx)
			g.verbose("With configured limit forwarded.")
			next.ServeHTTP(&streamWriter{ResponseWriter: w, out: out}, r)
		})
	}
}
