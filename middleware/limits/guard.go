package limits

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"limits-gateway/middleware/limits/domain"
)

// ReasonPhraseHeader carrega a reason phrase configurada. net/http sempre escreve a
// reason canônica na status line, então a frase vai também no corpo (text/plain).
const ReasonPhraseHeader = "X-Reason-Phrase"

// guard agrupa o que todo guard precisa para rejeitar, tracear e registrar decisões.
type guard struct {
	name   string
	reason domain.ReasonPhraseFunc
	tracer domain.Tracer
	stats  domain.StatsStore
}

func newGuard(name string, reason domain.ReasonPhraseFunc, tracer domain.Tracer, stats domain.StatsStore) guard {
	if reason == nil {
		reason = domain.EmptyReasonPhrase
	}
	if tracer == nil {
		tracer = domain.NopTracer
	}
	return guard{name: name, reason: reason, tracer: tracer, stats: stats}
}

func (g guard) verbose(format string, args ...any) {
	g.tracer(domain.TraceVerbose, fmt.Sprintf(format, args...))
}

func (g guard) info(format string, args ...any) {
	g.tracer(domain.TraceInfo, fmt.Sprintf(format, args...))
}

// reject escreve o status com a reason phrase configurada e registra a decisão.
func (g guard) reject(w http.ResponseWriter, r *http.Request, status int) {
	writeRejection(w, status, g.reason(status))
	g.record(r, false, status)
}

func (g guard) forward(r *http.Request) {
	g.record(r, true, 0)
}

func (g guard) record(r *http.Request, allowed bool, status int) {
	if g.stats == nil {
		return
	}
	// best-effort: erro de stats não derruba a request
	_ = g.stats.Record(r.Context(), domain.StatsEvent{
		Guard:   g.name,
		Allowed: allowed,
		Status:  status,
		Method:  r.Method,
		Path:    r.URL.Path,
		At:      time.Now(),
	})
}

func writeRejection(w http.ResponseWriter, status int, phrase string) {
	phrase = sanitizePhrase(phrase)
	if phrase == "" {
		w.WriteHeader(status)
		return
	}

	h := w.Header()
	h.Del("Content-Length")
	h.Set(ReasonPhraseHeader, phrase)
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, phrase)
}

// quebras de linha não podem ir para um header
func sanitizePhrase(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return ' '
		}
		return r
	}, s))
}
