package infra

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"limits-gateway/middleware/limits/domain"
)

type fakeClock struct {
	t     time.Time
	slept []time.Duration
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(d time.Duration) error {
	c.slept = append(c.slept, d)
	c.t = c.t.Add(d)
	return nil
}

func newFakeThrottled(inner any, bps int64) (*ThrottledStream, *fakeClock) {
	c := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s := NewThrottledStream(inner, bps)
	s.now = c.now
	s.sleep = c.sleep
	s.start = c.t
	return s, c
}

func TestThrottledStream_SleepsUntilRateIsBackToMax(t *testing.T) {
	var buf bytes.Buffer
	s, clock := newFakeThrottled(&buf, 1000)

	chunk := make([]byte, 500)
	for i := 0; i < 3; i++ {
		n, err := s.Write(chunk)
		require.NoError(t, err)
		require.Equal(t, 500, n)
	}

	assert.Equal(t, []time.Duration{500 * time.Millisecond, 500 * time.Millisecond, 500 * time.Millisecond}, clock.slept)
	assert.Equal(t, 1500, buf.Len())
	// a terceira espera passou de 1s de janela: contador zerado
	assert.Equal(t, int64(0), s.byteCount)
	assert.Equal(t, clock.t, s.start)
}

func TestThrottledStream_NoSleepWhenBelowRate(t *testing.T) {
	var buf bytes.Buffer
	s, clock := newFakeThrottled(&buf, 1000)

	clock.t = clock.t.Add(time.Second)
	_, err := s.Write(make([]byte, 100))
	require.NoError(t, err)

	assert.Empty(t, clock.slept)
}

func TestThrottledStream_SkipsNegligibleSleep(t *testing.T) {
	var buf bytes.Buffer
	s, clock := newFakeThrottled(&buf, 1000)

	// 1 byte a 1000 B/s => 1ms, não vale a pena dormir
	_, err := s.Write([]byte{1})
	require.NoError(t, err)

	assert.Empty(t, clock.slept)
}

func TestThrottledStream_ReadCountsBytesActuallyRead(t *testing.T) {
	s, clock := newFakeThrottled(strings.NewReader("hello"), 5)

	p := make([]byte, 64)
	n, err := s.Read(p)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	assert.Equal(t, "hello", string(p[:n]))

	assert.Equal(t, []time.Duration{time.Second}, clock.slept)
}

func TestThrottledStream_UnlimitedIsPassThrough(t *testing.T) {
	for _, bps := range []int64{0, -10} {
		var buf bytes.Buffer
		s, clock := newFakeThrottled(&buf, bps)

		for i := 0; i < 10; i++ {
			_, err := s.Write(make([]byte, 4096))
			require.NoError(t, err)
		}

		assert.Empty(t, clock.slept)
		assert.Equal(t, 40960, buf.Len())
		assert.Equal(t, int64(0), s.MaxBytesPerSecond())
	}
}

func TestThrottledStream_TransferTakesAtLeastBytesOverRate(t *testing.T) {
	var buf bytes.Buffer
	s := NewThrottledStream(&buf, 200)

	start := time.Now()
	for i := 0; i < 4; i++ {
		_, err := s.Write(make([]byte, 25))
		require.NoError(t, err)
	}
	elapsed := time.Since(start)

	// 100 bytes a 200 B/s ~ 500ms
	assert.GreaterOrEqual(t, elapsed, 450*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestThrottledStream_CloseWakesSleepingWriter(t *testing.T) {
	var buf bytes.Buffer
	s := NewThrottledStream(&buf, 1)

	errCh := make(chan error, 1)
	go func() {
		_, err := s.Write(make([]byte, 100))
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, s.Close())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, domain.ErrStreamClosed)
	case <-time.After(time.Second):
		t.Fatal("write still sleeping after Close")
	}
	assert.Zero(t, buf.Len())
}

func TestThrottledStream_ContextCancelStopsSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewThrottledStream(io.Discard, 1, WithThrottleContext(ctx))

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := s.Write(make([]byte, 100))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestThrottledStream_PassesThroughOtherOperations(t *testing.T) {
	r := strings.NewReader("0123456789")
	s := NewThrottledStream(r, 0)

	pos, err := s.Seek(5, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(5), pos)

	rest, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, "56789", string(rest))

	_, err = s.Write([]byte("x"))
	assert.ErrorIs(t, err, domain.ErrUnsupported)
	assert.NoError(t, s.Flush())
	assert.NoError(t, s.Close())
}

func TestThrottledStream_PanicsOnNilInner(t *testing.T) {
	assert.Panics(t, func() { NewThrottledStream(nil, 10) })
	assert.Panics(t, func() { NewThrottledStream(42, 10) })
}
