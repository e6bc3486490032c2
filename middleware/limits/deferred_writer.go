package limits

import (
	"bytes"
	"maps"
	"net/http"

	"limits-gateway/middleware/limits/infra"
)

// deferredWriter segura status, headers e corpo da resposta até o corpo da requisição
// ser lido até o fim (dentro do limite) ou o handler retornar. Assim um estouro
// descoberto no meio da leitura ainda pode trocar a resposta por 413.
type deferredWriter struct {
	w   http.ResponseWriter
	lim *infra.ContentLengthLimitingStream

	header      http.Header
	status      int
	wroteHeader bool
	buf         bytes.Buffer
	committed   bool
}

func newDeferredWriter(w http.ResponseWriter, lim *infra.ContentLengthLimitingStream) *deferredWriter {
	return &deferredWriter{
		w:      w,
		lim:    lim,
		header: w.Header().Clone(),
	}
}

func (d *deferredWriter) Header() http.Header {
	if d.committed {
		return d.w.Header()
	}
	return d.header
}

func (d *deferredWriter) WriteHeader(status int) {
	if d.committed {
		d.w.WriteHeader(status)
		return
	}
	// 1xx não dá para adiar
	if d.wroteHeader || status < 200 {
		return
	}
	d.status = status
	d.wroteHeader = true
	d.tryCommit()
}

func (d *deferredWriter) Write(p []byte) (int, error) {
	if d.committed {
		return d.w.Write(p)
	}
	if !d.wroteHeader {
		d.WriteHeader(http.StatusOK)
		if d.committed {
			return d.w.Write(p)
		}
	}
	n, _ := d.buf.Write(p)
	d.tryCommit()
	return n, nil
}

func (d *deferredWriter) Flush() {
	d.tryCommit()
	if d.committed {
		_ = http.NewResponseController(d.w).Flush()
	}
}

func (d *deferredWriter) Unwrap() http.ResponseWriter { return d.w }

func (d *deferredWriter) tryCommit() {
	if !d.committed && d.lim.Drained() && !d.lim.Exceeded() {
		d.commit()
	}
}

// commit envia o que foi segurado e passa a repassar direto.
func (d *deferredWriter) commit() {
	if d.committed {
		return
	}
	d.committed = true

	dst := d.w.Header()
	for k := range dst {
		if _, ok := d.header[k]; !ok {
			delete(dst, k)
		}
	}
	maps.Copy(dst, d.header)

	if d.wroteHeader {
		d.w.WriteHeader(d.status)
	}
	if d.buf.Len() > 0 {
		_, _ = d.w.Write(d.buf.Bytes())
		d.buf.Reset()
	}
}
