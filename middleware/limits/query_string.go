package limits

import (
	"net/http"

	"limits-gateway/middleware/limits/application"
	"limits-gateway/middleware/limits/domain"
)

// MaxQueryStringLength rejeita com 414 requisições cuja query string decodificada
// tem mais de max caracteres. Requisições sem query string passam direto.
func MaxQueryStringLength(max int) func(http.Handler) http.Handler {
	return MaxQueryStringLengthWith(QueryStringOptions{Limit: Static(max)})
}

func MaxQueryStringLengthFunc(limit func() int) func(http.Handler) http.Handler {
	return MaxQueryStringLengthWith(QueryStringOptions{Limit: limit})
}

func MaxQueryStringLengthWith(opts QueryStringOptions) func(http.Handler) http.Handler {
	mustLimit(opts.Limit != nil, "MaxQueryStringLength")
	g := newGuard(domain.GuardQueryLength, opts.ReasonPhrase, opts.Tracer, opts.Stats)

	return func(next http.Handler) http.Handler {
		mustNext(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query := r.URL.RawQuery
			if query == "" {
				g.verbose("No querystring.")
				next.ServeHTTP(w, r)
				return
			}

			v := application.CheckLength(query, opts.Limit())
			g.verbose("Querystring of request with an unescaped length of %d", v.Length)
			if !v.Allowed() {
				g.info("Querystring (Length %d) too long (allowed %d). Request rejected.", v.Length, v.Limit)
				g.reject(w, r, v.Status)
				return
			}

			g.verbose("Querystring length check passed.")
			g.forward(r)
			next.ServeHTTP(w, r)
		})
	}
}
