package limits

import (
	"net"
	"net/http"
	"strings"

	"limits-gateway/middleware/limits/domain"
)

// KeyFunc extrai a chave do cliente usada pelo guard de taxa.
type KeyFunc func(r *http.Request) domain.Key

// DefaultKeyFunc tenta, nessa ordem: o header keyHeader, o primeiro endereço do
// X-Forwarded-For (só com trustXFF) e o host de RemoteAddr. Sem nenhum deles, a chave
// é domain.UnknownClient.
func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	var sources []func(*http.Request) string
	if keyHeader != "" {
		sources = append(sources, func(r *http.Request) string { return r.Header.Get(keyHeader) })
	}
	if trustXFF {
		sources = append(sources, forwardedClient)
	}
	sources = append(sources, remoteHost)

	return func(r *http.Request) domain.Key {
		for _, src := range sources {
			if k := domain.ClientKey(src(r)); k != domain.UnknownClient {
				return k
			}
		}
		return domain.UnknownClient
	}
}

// forwardedClient devolve o cliente original do X-Forwarded-For. Uma primeira entrada
// que não é IP é ignorada.
func forwardedClient(r *http.Request) string {
	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	first = strings.TrimSpace(first)
	if net.ParseIP(first) == nil {
		return ""
	}
	return first
}

func remoteHost(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
