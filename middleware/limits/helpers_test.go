package limits

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"limits-gateway/middleware/limits/domain"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

// traceLog coleta as mensagens de um domain.Tracer.
type traceLog struct {
	mu      sync.Mutex
	entries []traceEntry
}

type traceEntry struct {
	level domain.TraceLevel
	msg   string
}

func (l *traceLog) tracer() domain.Tracer {
	return func(level domain.TraceLevel, msg string) {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.entries = append(l.entries, traceEntry{level: level, msg: msg})
	}
}

func (l *traceLog) messages(level domain.TraceLevel) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, e := range l.entries {
		if e.level == level {
			out = append(out, e.msg)
		}
	}
	return out
}
