package infra

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"limits-gateway/middleware/limits/domain"
)

// ContentLengthExceededError é devolvido pelo ContentLengthLimitingStream quando o total
// lido passa do limite. errors.Is(err, domain.ErrContentLengthExceeded) é verdadeiro.
type ContentLengthExceededError struct {
	Limit int64
	Read  int64
}

func (e *ContentLengthExceededError) Error() string {
	return fmt.Sprintf("request size exceeds the allowed maximum size of %d bytes", e.Limit)
}

func (e *ContentLengthExceededError) Is(target error) bool {
	return target == domain.ErrContentLengthExceeded
}

// IsContentLengthExceeded reconhece o sinal de estouro, inclusive quando embrulhado.
func IsContentLengthExceeded(err error) bool {
	return errors.Is(err, domain.ErrContentLengthExceeded)
}

// ContentLengthLimitingStream conta os bytes lidos e falha assim que o total passa de max.
//
// A leitura que estoura devolve os bytes que obteve junto com o erro; as seguintes
// devolvem só o erro, sem tocar no stream interno. Nunca trunca em silêncio.
type ContentLengthLimitingStream struct {
	inner any
	max   int64

	read     atomic.Int64
	exceeded atomic.Bool
	drained  atomic.Bool
}

func NewContentLengthLimitingStream(inner any, max int64) *ContentLengthLimitingStream {
	mustStream(inner)
	return &ContentLengthLimitingStream{inner: inner, max: max}
}

func (s *ContentLengthLimitingStream) Limit() int64 { return s.max }

// BytesRead devolve o total lido até agora.
func (s *ContentLengthLimitingStream) BytesRead() int64 { return s.read.Load() }

// Exceeded informa se alguma leitura já passou do limite.
func (s *ContentLengthLimitingStream) Exceeded() bool { return s.exceeded.Load() }

// Drained informa se o stream interno chegou ao fim (io.EOF) dentro do limite.
func (s *ContentLengthLimitingStream) Drained() bool { return s.drained.Load() }

func (s *ContentLengthLimitingStream) Read(p []byte) (int, error) {
	if s.exceeded.Load() {
		return 0, s.exceededErr()
	}

	n, err := readFrom(s.inner, p)
	total := s.read.Add(int64(n))
	if total > s.max {
		s.exceeded.Store(true)
		return n, s.exceededErr()
	}
	if errors.Is(err, io.EOF) {
		s.drained.Store(true)
	}
	return n, err
}

func (s *ContentLengthLimitingStream) Write(p []byte) (int, error) {
	return writeTo(s.inner, p)
}

func (s *ContentLengthLimitingStream) Seek(offset int64, whence int) (int64, error) {
	return seekIn(s.inner, offset, whence)
}

func (s *ContentLengthLimitingStream) Flush() error { return flushIn(s.inner) }

func (s *ContentLengthLimitingStream) Close() error { return closeIn(s.inner) }

func (s *ContentLengthLimitingStream) exceededErr() error {
	return &ContentLengthExceededError{Limit: s.max, Read: s.read.Load()}
}
