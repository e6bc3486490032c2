package limits

import (
	"errors"
	"io"
	"net/http"
)

// streamWriter desvia o corpo da resposta para um stream decorado (throttle/timeout).
// Headers e status continuam indo direto para o ResponseWriter original.
type streamWriter struct {
	http.ResponseWriter
	out interface {
		io.Writer
		Flush() error
	}
}

func (sw *streamWriter) Write(p []byte) (int, error) { return sw.out.Write(p) }

func (sw *streamWriter) Flush() { _ = sw.out.Flush() }

func (sw *streamWriter) FlushError() error { return sw.out.Flush() }

// Unwrap permite que http.ResponseController ache deadlines/hijack do writer original.
func (sw *streamWriter) Unwrap() http.ResponseWriter { return sw.ResponseWriter }

// responseFlusher adapta um ResponseWriter para o Flush() error que os streams repassam.
type responseFlusher struct{ w http.ResponseWriter }

func (f responseFlusher) Write(p []byte) (int, error) { return f.w.Write(p) }

func (f responseFlusher) Flush() error {
	err := http.NewResponseController(f.w).Flush()
	if errors.Is(err, http.ErrNotSupported) {
		return nil
	}
	return err
}
