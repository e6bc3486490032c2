package limits

import (
	"io"
	"net/http"
	"time"

	"limits-gateway/middleware/limits/domain"
	"limits-gateway/middleware/limits/infra"
)

// tempo máximo esperando goroutines de I/O presas no transporte depois do timeout
const abortGrace = time.Second

// ConnectionTimeout derruba a conexão quando a troca fica mais de d sem I/O no corpo
// da requisição ou da resposta. Qualquer leitura ou escrita rearma o timer.
//
// Não há resposta HTTP no timeout: o handler é abortado com http.ErrAbortHandler e o
// servidor fecha a conexão. d <= 0 desliga o guard.
func ConnectionTimeout(d time.Duration) func(http.Handler) http.Handler {
	return ConnectionTimeoutWith(TimeoutOptions{Limit: Static(d)})
}

func ConnectionTimeoutFunc(limit func() time.Duration) func(http.Handler) http.Handler {
	return ConnectionTimeoutWith(TimeoutOptions{Limit: limit})
}

func ConnectionTimeoutWith(opts TimeoutOptions) func(http.Handler) http.Handler {
	mustLimit(opts.Limit != nil, "ConnectionTimeout")
	g := newGuard(domain.GuardTimeout, nil, opts.Tracer, opts.Stats)

	return func(next http.Handler) http.Handler {
		mustNext(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := opts.Limit()
			if d <= 0 {
				g.verbose("No connection timeout. Request forwarded.")
				next.ServeHTTP(w, r)
				return
			}

			g.verbose("Configure timeouts.")
			orig := r.Body
			body := orig
			if body == nil {
				body = http.NoBody
			}

			rc := http.NewResponseController(w)
			ts := infra.NewTimeoutStream(exchange{body: body, w: w}, d, g.tracer,
				infra.WithOnExpire(func() {
					// falha o I/O do transporte que estiver em andamento
					now := time.Now()
					_ = rc.SetReadDeadline(now)
					_ = rc.SetWriteDeadline(now)
				}))

			r.Body = timeoutBody{ts: ts, body: body}
			var expired bool
			func() {
				defer func() {
					// quem desarma primeiro decide: handler concluído ou troca abortada
					expired = !ts.Stop()
					r.Body = orig
				}()
				g.verbose("Request with configured timeout forwarded.")
				next.ServeHTTP(&streamWriter{ResponseWriter: w, out: ts}, r)
			}()

			if expired {
				if !ts.WaitIdle(abortGrace) {
					g.info("I/O still blocked after connection abort.")
				}
				g.record(r, false, 0)
				panic(http.ErrAbortHandler)
			}
		})
	}
}

// exchange junta os dois sentidos da troca num único stream, para que o timer de
// ociosidade seja compartilhado entre leitura do corpo e escrita da resposta.
type exchange struct {
	body io.ReadCloser
	w    http.ResponseWriter
}

func (e exchange) Read(p []byte) (int, error) { return e.body.Read(p) }

func (e exchange) Write(p []byte) (int, error) { return e.w.Write(p) }

func (e exchange) Flush() error { return responseFlusher{w: e.w}.Flush() }

func (e exchange) Close() error { return e.body.Close() }

// timeoutBody é a visão do corpo da requisição. Fechar o corpo não encerra a troca
// (o reverse proxy fecha o corpo assim que termina de enviá-lo).
type timeoutBody struct {
	ts   *infra.TimeoutStream
	body io.ReadCloser
}

func (b timeoutBody) Read(p []byte) (int, error) { return b.ts.Read(p) }

func (b timeoutBody) Close() error { return b.body.Close() }
