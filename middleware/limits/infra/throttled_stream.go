package infra

import (
	"context"
	"math"
	"sync"
	"time"

	"limits-gateway/middleware/limits/domain"
)

// ThrottledStream limita a vazão (bytes/segundo) de um stream.
//
// A taxa atingida é medida desde o início da janela; quando passa do máximo, a
// operação dorme o tempo necessário para voltar ao máximo. Depois de dormir, se a
// janela já tem mais de 1s, ela é zerada (evita drift e deixa rajadas se recuperarem
// após períodos ociosos).
//
// Escritas são contadas antes de chegar ao stream interno. Leituras são contadas pelo
// número de bytes efetivamente lidos, antes de devolver os dados a quem chamou.
//
// O sono é interrompido por Close ou pelo cancelamento do contexto configurado.
type ThrottledStream struct {
	inner  any
	maxBps int64
	ctx    context.Context

	now   func() time.Time
	sleep func(time.Duration) error

	mu        sync.Mutex
	byteCount int64
	start     time.Time

	closeOnce sync.Once
	closed    chan struct{}
}

type ThrottleOption func(*ThrottledStream)

// WithThrottleContext faz o sono do throttle respeitar ctx (ex.: contexto da request).
func WithThrottleContext(ctx context.Context) ThrottleOption {
	return func(s *ThrottledStream) {
		if ctx != nil {
			s.ctx = ctx
		}
	}
}

// NewThrottledStream decora inner limitando a maxBytesPerSecond.
// maxBytesPerSecond <= 0 significa ilimitado (repasse direto, sem atraso).
func NewThrottledStream(inner any, maxBytesPerSecond int64, opts ...ThrottleOption) *ThrottledStream {
	mustStream(inner)
	if maxBytesPerSecond < 0 {
		maxBytesPerSecond = 0
	}

	s := &ThrottledStream{
		inner:  inner,
		maxBps: maxBytesPerSecond,
		ctx:    context.Background(),
		now:    time.Now,
		closed: make(chan struct{}),
	}
	s.sleep = s.wait
	for _, opt := range opts {
		opt(s)
	}
	s.start = s.now()
	return s
}

func (s *ThrottledStream) MaxBytesPerSecond() int64 { return s.maxBps }

// Read limita depois de ler, sobre os bytes realmente lidos (e não sobre len(p)).
func (s *ThrottledStream) Read(p []byte) (int, error) {
	n, err := readFrom(s.inner, p)
	if terr := s.throttle(n); terr != nil {
		return n, terr
	}
	return n, err
}

func (s *ThrottledStream) Write(p []byte) (int, error) {
	if err := s.throttle(len(p)); err != nil {
		return 0, err
	}
	return writeTo(s.inner, p)
}

func (s *ThrottledStream) Seek(offset int64, whence int) (int64, error) {
	return seekIn(s.inner, offset, whence)
}

func (s *ThrottledStream) Flush() error { return flushIn(s.inner) }

// Close acorda qualquer operação dormindo no throttle e fecha o stream interno.
func (s *ThrottledStream) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return closeIn(s.inner)
}

func (s *ThrottledStream) throttle(n int) error {
	if s.maxBps <= 0 || n <= 0 {
		return nil
	}

	s.mu.Lock()
	s.byteCount += int64(n)
	elapsed := s.now().Sub(s.start).Milliseconds()

	var toSleep int64
	if elapsed >= 0 {
		bps := int64(math.MaxInt64)
		if elapsed > 0 {
			bps = s.byteCount * 1000 / elapsed
		}
		if bps > s.maxBps {
			wakeElapsed := s.byteCount * 1000 / s.maxBps
			toSleep = wakeElapsed - elapsed
		}
	}
	s.mu.Unlock()

	// sonos de até 1ms não compensam
	if toSleep <= 1 {
		return nil
	}
	if err := s.sleep(time.Duration(toSleep) * time.Millisecond); err != nil {
		return err
	}

	s.mu.Lock()
	if s.now().Sub(s.start) > time.Second {
		s.byteCount = 0
		s.start = s.now()
	}
	s.mu.Unlock()
	return nil
}

func (s *ThrottledStream) wait(d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-s.closed:
		return domain.ErrStreamClosed
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}
