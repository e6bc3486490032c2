package limits

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"limits-gateway/middleware/limits/application"
	"limits-gateway/middleware/limits/domain"
	"limits-gateway/middleware/limits/infra"
)

// MaxRequestContentLength limita o corpo das requisições (exceto GET e HEAD) a max bytes.
//
// Requisições não chunked precisam de Content-Length (411 se ausente, 400 se inválido,
// 413 se maior que max). Em todos os casos o corpo é lido através de um stream limitado:
// se o handler ler mais que max (chunked ou header mentiroso), a resposta dele é
// descartada e o cliente recebe 413.
//
// Para isso a resposta do handler fica retida em memória, sem limite de tamanho, até
// o corpo da requisição ser lido até o fim ou o handler retornar. Handlers que
// respondem muito antes de ler o corpo inteiro devem levar isso em conta.
func MaxRequestContentLength(max int64) func(http.Handler) http.Handler {
	return MaxRequestContentLengthWith(ContentLengthOptions{Limit: Static(max)})
}

func MaxRequestContentLengthFunc(limit func() int64) func(http.Handler) http.Handler {
	return MaxRequestContentLengthWith(ContentLengthOptions{Limit: limit})
}

func MaxRequestContentLengthWith(opts ContentLengthOptions) func(http.Handler) http.Handler {
	mustLimit(opts.Limit != nil, "MaxRequestContentLength")
	g := newGuard(domain.GuardContentLength, opts.ReasonPhrase, opts.Tracer, opts.Stats)

	return func(next http.Handler) http.Handler {
		mustNext(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if application.BodyExempt(r.Method) {
				g.verbose("GET or HEAD request without checking forwarded.")
				next.ServeHTTP(w, r)
				return
			}

			max := opts.Limit()
			g.verbose("Max valid content length is %d.", max)

			chunked := isChunked(r)
			if chunked {
				g.verbose("Chunked request. Content length header not checked.")
			} else {
				g.verbose("Not a chunked request. Checking content length header.")
			}
			header, present := contentLengthHeader(r)
			v := application.CheckDeclaredLength(chunked, header, present, max)
			switch v.Status {
			case 0:
				if !chunked {
					g.verbose("Content length header check passed.")
				}
			case domain.StatusLengthRequired:
				g.info("No content length header provided. Request rejected.")
				g.reject(w, r, v.Status)
				return
			case domain.StatusBadRequest:
				g.info("Invalid content length header value. Value: %s", header)
				g.reject(w, r, v.Status)
				return
			default:
				g.info("Content length of %d exceeds maximum of %d. Request rejected.", v.Length, max)
				g.reject(w, r, v.Status)
				return
			}

			orig := r.Body
			body := orig
			if body == nil {
				body = http.NoBody
			}
			lim := infra.NewContentLengthLimitingStream(body, max)
			r.Body = lim
			g.verbose("Request body stream configured with length limiting stream of %d.", max)

			dw := newDeferredWriter(w, lim)
			overrun := serveLimited(next, dw, r, orig)

			if overrun || lim.Exceeded() {
				g.info("Content length of %d exceeded. Request canceled and rejected.", max)
				if dw.committed {
					// a resposta já saiu; só resta derrubar a conexão
					panic(http.ErrAbortHandler)
				}
				g.reject(w, r, domain.StatusEntityTooLarge)
				return
			}

			dw.commit()
			g.verbose("Processing finished.")
			g.forward(r)
		})
	}
}

// serveLimited chama next e converte um pânico com ErrContentLengthExceeded em overrun.
// Qualquer outro pânico segue adiante.
func serveLimited(next http.Handler, w http.ResponseWriter, r *http.Request, orig io.ReadCloser) (overrun bool) {
	defer func() {
		r.Body = orig
		if p := recover(); p != nil {
			if err, ok := p.(error); ok && errors.Is(err, domain.ErrContentLengthExceeded) {
				overrun = true
				return
			}
			panic(p)
		}
	}()
	next.ServeHTTP(w, r)
	return false
}

func isChunked(r *http.Request) bool {
	for _, te := range r.TransferEncoding {
		if strings.EqualFold(strings.TrimSpace(te), "chunked") {
			return true
		}
	}
	for _, te := range strings.Split(r.Header.Get("Transfer-Encoding"), ",") {
		if strings.EqualFold(strings.TrimSpace(te), "chunked") {
			return true
		}
	}
	return false
}

// contentLengthHeader devolve o Content-Length declarado. Requisições montadas em
// código (sem header, mas com r.ContentLength > 0) usam r.ContentLength.
func contentLengthHeader(r *http.Request) (string, bool) {
	if vs, ok := r.Header["Content-Length"]; ok && len(vs) > 0 {
		return vs[0], true
	}
	if r.ContentLength > 0 {
		return strconv.FormatInt(r.ContentLength, 10), true
	}
	return "", false
}
