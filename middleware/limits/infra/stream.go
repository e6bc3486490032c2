package infra

import (
	"io"

	"limits-gateway/middleware/limits/domain"
)

// Os decoradores de stream aceitam qualquer valor que implemente io.Reader e/ou
// io.Writer. Seek, Flush e Close são repassados quando o stream interno os oferece.

type flusher interface{ Flush() }

type errFlusher interface{ Flush() error }

func mustStream(inner any) {
	if inner == nil {
		panic("infra: inner stream must not be nil")
	}
	_, r := inner.(io.Reader)
	_, w := inner.(io.Writer)
	if !r && !w {
		panic("infra: inner stream must implement io.Reader or io.Writer")
	}
}

func readFrom(inner any, p []byte) (int, error) {
	r, ok := inner.(io.Reader)
	if !ok {
		return 0, domain.ErrUnsupported
	}
	return r.Read(p)
}

func writeTo(inner any, p []byte) (int, error) {
	w, ok := inner.(io.Writer)
	if !ok {
		return 0, domain.ErrUnsupported
	}
	return w.Write(p)
}

func seekIn(inner any, offset int64, whence int) (int64, error) {
	s, ok := inner.(io.Seeker)
	if !ok {
		return 0, domain.ErrUnsupported
	}
	return s.Seek(offset, whence)
}

func flushIn(inner any) error {
	switch f := inner.(type) {
	case errFlusher:
		return f.Flush()
	case flusher:
		f.Flush()
	}
	return nil
}

func closeIn(inner any) error {
	if c, ok := inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
