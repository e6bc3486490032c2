package limits

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"limits-gateway/middleware/limits/infra"
)

// chunkedWriter escreve total bytes em pedaços de 100.
func chunkedWriter(total int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chunk := bytes.Repeat([]byte("x"), 100)
		for written := 0; written < total; written += len(chunk) {
			if _, err := w.Write(chunk); err != nil {
				return
			}
		}
	})
}

func timed(fn func()) time.Duration {
	start := time.Now()
	fn()
	return time.Since(start)
}

func TestMaxBandwidth_ThrottlesResponse(t *testing.T) {
	limited := MaxBandwidth(10_000)(chunkedWriter(5_000))
	unlimited := MaxBandwidth(0)(chunkedWriter(5_000))

	var rec *httptest.ResponseRecorder
	slow := timed(func() { rec = serve(limited, httptest.NewRequest(http.MethodGet, "/", nil)) })
	fast := timed(func() { serve(unlimited, httptest.NewRequest(http.MethodGet, "/", nil)) })

	assert.Equal(t, 5_000, rec.Body.Len())
	assert.GreaterOrEqual(t, slow, 400*time.Millisecond)
	assert.Less(t, fast, 200*time.Millisecond)
	assert.Greater(t, slow, fast)
}

func TestMaxBandwidth_ThrottlesRequestBody(t *testing.T) {
	var n int
	h := MaxBandwidthFunc(func() int64 { return 10_000 })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		n = len(b)
	}))

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 5_000)))
	elapsed := timed(func() { serve(h, r) })

	assert.Equal(t, 5_000, n)
	assert.GreaterOrEqual(t, elapsed, 400*time.Millisecond)
}

func TestMaxBandwidth_RestoresStreams(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("abc"))
	orig := r.Body

	var (
		seenBody   io.ReadCloser
		seenWriter http.ResponseWriter
	)
	h := MaxBandwidthWith(BandwidthOptions{Limit: Static(int64(1_000_000))})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenBody = r.Body
		seenWriter = w
		w.(http.Flusher).Flush()
	}))
	rec := serve(h, r)

	assert.IsType(t, &infra.ThrottledStream{}, seenBody)
	assert.IsType(t, &streamWriter{}, seenWriter)
	assert.Equal(t, orig, r.Body)
	assert.True(t, rec.Flushed)
}

func TestMaxBandwidth_UnlimitedIsPassThrough(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("abc"))
	orig := r.Body
	rec := httptest.NewRecorder()

	h := MaxBandwidth(-1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, orig, r.Body)
		assert.Equal(t, rec, w)
	}))
	h.ServeHTTP(rec, r)
}

func TestMaxBandwidth_StopsSleepingWhenRequestIsCanceled(t *testing.T) {
	h := MaxBandwidth(10)(chunkedWriter(10_000))

	srv := httptest.NewServer(h)
	defer srv.Close()

	client := &http.Client{Timeout: 300 * time.Millisecond}
	elapsed := timed(func() {
		resp, err := client.Get(srv.URL)
		if err == nil {
			_, err = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}
		assert.Error(t, err)
	})
	assert.Less(t, elapsed, 2*time.Second)
}
