package limits

import (
	"net/http"

	"limits-gateway/middleware/limits/application"
	"limits-gateway/middleware/limits/domain"
)

// MaxURLLength rejeita com 414 requisições cuja URI absoluta, depois de decodificada,
// tem mais de max caracteres.
func MaxURLLength(max int) func(http.Handler) http.Handler {
	return MaxURLLengthWith(URLOptions{Limit: Static(max)})
}

func MaxURLLengthFunc(limit func() int) func(http.Handler) http.Handler {
	return MaxURLLengthWith(URLOptions{Limit: limit})
}

func MaxURLLengthWith(opts URLOptions) func(http.Handler) http.Handler {
	mustLimit(opts.Limit != nil, "MaxURLLength")
	g := newGuard(domain.GuardURLLength, opts.ReasonPhrase, opts.Tracer, opts.Stats)

	return func(next http.Handler) http.Handler {
		mustNext(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uri := absoluteURI(r)
			g.verbose("Checking request url length.")

			v := application.CheckLength(uri, opts.Limit())
			if !v.Allowed() {
				g.info("Url %q (Length: %d) exceeds allowed length of %d. Request rejected.", application.UnescapeData(uri), v.Length, v.Limit)
				g.reject(w, r, v.Status)
				return
			}

			g.verbose("Check passed. Request forwarded.")
			g.forward(r)
			next.ServeHTTP(w, r)
		})
	}
}

// absoluteURI monta scheme://host/path?query como o cliente pediu (ainda escapado).
func absoluteURI(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.URL.Scheme == "https" {
		scheme = "https"
	}
	host := r.Host
	if host == "" {
		host = r.URL.Host
	}
	return scheme + "://" + host + r.URL.RequestURI()
}
