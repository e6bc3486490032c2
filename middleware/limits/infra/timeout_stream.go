package infra

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"limits-gateway/middleware/limits/domain"
)

// TimeoutStream fecha o stream interno quando fica mais de `timeout` sem atividade.
//
// Toda leitura ou escrita bem-sucedida rearma o timer. Quando o timer expira, o
// stream é fechado (Close do stream interno + callback de expiração) e qualquer
// operação em andamento falha na hora com domain.ErrStreamClosed, mesmo que a chamada
// ao stream interno continue bloqueada. Para isso, leituras e escritas rodam numa
// goroutine auxiliar com buffer próprio; quem chamou nunca compartilha `p` com ela.
//
// timeout <= 0 desliga o timer e o stream vira repasse puro.
type TimeoutStream struct {
	inner    any
	timeout  time.Duration
	tracer   domain.Tracer
	onExpire func()

	mu       sync.Mutex
	timer    *time.Timer
	deadline time.Time
	stopped  bool

	closed  atomic.Bool
	expired atomic.Bool
	done    chan struct{}
	err     error

	closeOnce sync.Once
	closeErr  error
	pending   sync.WaitGroup
}

type TimeoutOption func(*TimeoutStream)

// WithOnExpire registra uma função chamada (na goroutine do timer) quando o timeout
// expira, antes de fechar o stream interno. Útil para derrubar o transporte
// (ex.: deadlines de leitura/escrita da conexão).
func WithOnExpire(fn func()) TimeoutOption {
	return func(s *TimeoutStream) { s.onExpire = fn }
}

type ioResult struct {
	n   int
	err error
}

func NewTimeoutStream(inner any, timeout time.Duration, tracer domain.Tracer, opts ...TimeoutOption) *TimeoutStream {
	mustStream(inner)
	if tracer == nil {
		tracer = domain.NopTracer
	}

	s := &TimeoutStream{
		inner:   inner,
		timeout: timeout,
		tracer:  tracer,
		done:    make(chan struct{}),
	}
	s.err = fmt.Errorf("%w: idle timeout of %s reached", domain.ErrStreamClosed, timeout)
	for _, opt := range opts {
		opt(s)
	}

	if timeout > 0 {
		s.mu.Lock()
		s.deadline = time.Now().Add(timeout)
		s.timer = time.AfterFunc(timeout, s.expire)
		s.mu.Unlock()
	}
	return s
}

func (s *TimeoutStream) Timeout() time.Duration { return s.timeout }

// Expired informa se o stream foi fechado pelo timer.
func (s *TimeoutStream) Expired() bool { return s.expired.Load() }

func (s *TimeoutStream) Read(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, s.closedErr()
	}
	if s.timer == nil {
		return readFrom(s.inner, p)
	}
	r, ok := s.inner.(io.Reader)
	if !ok {
		return 0, domain.ErrUnsupported
	}

	buf := make([]byte, len(p))
	res, ok := s.run(func() (int, error) { return r.Read(buf) })
	if !ok {
		return 0, s.closedErr()
	}
	n := copy(p, buf[:res.n])
	if res.err == nil || n > 0 {
		s.rearm()
	}
	return n, res.err
}

func (s *TimeoutStream) Write(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, s.closedErr()
	}
	if s.timer == nil {
		return writeTo(s.inner, p)
	}
	w, ok := s.inner.(io.Writer)
	if !ok {
		return 0, domain.ErrUnsupported
	}

	buf := append([]byte(nil), p...)
	res, ok := s.run(func() (int, error) { return w.Write(buf) })
	if !ok {
		return 0, s.closedErr()
	}
	if res.err == nil {
		s.rearm()
	}
	return res.n, res.err
}

func (s *TimeoutStream) Seek(offset int64, whence int) (int64, error) {
	return seekIn(s.inner, offset, whence)
}

func (s *TimeoutStream) Flush() error {
	if s.closed.Load() {
		return s.closedErr()
	}
	return flushIn(s.inner)
}

// Close para o timer e fecha o stream interno. É idempotente e pode ser chamado
// em paralelo com uma leitura/escrita em andamento, que então falha.
func (s *TimeoutStream) Close() error {
	s.shutdown()
	return s.closeErr
}

// Stop desarma o timer sem fechar o stream interno. Usado quando o dono do stream
// terminou de usá-lo e o stream interno pertence a outra pessoa.
//
// Devolve false se o timeout já tinha expirado. Stop e a expiração decidem sob o mesmo
// lock: depois de um Stop que devolveu true, Expired nunca fica verdadeiro.
func (s *TimeoutStream) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expired.Load() {
		return false
	}
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
	}
	return true
}

// WaitIdle espera até d pelas goroutines de I/O abandonadas após o fechamento.
// Devolve false se alguma ainda está presa no stream interno.
func (s *TimeoutStream) WaitIdle(d time.Duration) bool {
	idle := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(idle)
	}()

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-idle:
		return true
	case <-t.C:
		return false
	}
}

func (s *TimeoutStream) run(op func() (int, error)) (ioResult, bool) {
	ch := make(chan ioResult, 1)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		n, err := op()
		ch <- ioResult{n: n, err: err}
	}()

	select {
	case res := <-ch:
		if s.closed.Load() {
			return ioResult{}, false
		}
		return res, true
	case <-s.done:
		return ioResult{}, false
	}
}

func (s *TimeoutStream) rearm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.closed.Load() {
		return
	}
	s.deadline = time.Now().Add(s.timeout)
	s.timer.Reset(s.timeout)
	s.tracer(domain.TraceVerbose, "Timeout timer reset.")
}

func (s *TimeoutStream) expire() {
	s.mu.Lock()
	if s.stopped || s.closed.Load() {
		s.mu.Unlock()
		return
	}
	// o timer pode ter disparado enquanto um rearm estava em curso
	if remaining := time.Until(s.deadline); remaining > 0 {
		s.timer.Reset(remaining)
		s.mu.Unlock()
		return
	}
	s.expired.Store(true)
	s.mu.Unlock()

	s.tracer(domain.TraceInfo, fmt.Sprintf("Timeout of %s reached.", s.timeout))
	if s.onExpire != nil {
		s.onExpire()
	}
	s.shutdown()
}

func (s *TimeoutStream) shutdown() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)

		s.mu.Lock()
		if s.timer != nil {
			s.timer.Stop()
		}
		s.mu.Unlock()

		s.closeErr = closeIn(s.inner)
	})
}

func (s *TimeoutStream) closedErr() error {
	if s.expired.Load() {
		return s.err
	}
	return domain.ErrStreamClosed
}
