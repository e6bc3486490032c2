package infra

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"limits-gateway/middleware/limits/domain"
)

func TestContentLengthLimitingStream_WithinLimit(t *testing.T) {
	s := NewContentLengthLimitingStream(strings.NewReader(strings.Repeat("a", 15)), 20)

	data, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Len(t, data, 15)
	assert.True(t, s.Drained())
	assert.False(t, s.Exceeded())
	assert.Equal(t, int64(15), s.BytesRead())
}

func TestContentLengthLimitingStream_ExactLimit(t *testing.T) {
	s := NewContentLengthLimitingStream(strings.NewReader(strings.Repeat("a", 20)), 20)

	data, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Len(t, data, 20)
	assert.False(t, s.Exceeded())
}

func TestContentLengthLimitingStream_ExceedingReadFailsAndStaysFailed(t *testing.T) {
	s := NewContentLengthLimitingStream(strings.NewReader(strings.Repeat("a", 21)), 20)

	_, err := io.ReadAll(s)
	require.Error(t, err)
	assert.True(t, IsContentLengthExceeded(err))
	assert.True(t, errors.Is(err, domain.ErrContentLengthExceeded))
	assert.True(t, s.Exceeded())
	assert.False(t, s.Drained())

	var cle *ContentLengthExceededError
	require.ErrorAs(t, err, &cle)
	assert.Equal(t, int64(20), cle.Limit)
	assert.Equal(t, "request size exceeds the allowed maximum size of 20 bytes", cle.Error())

	n, err := s.Read(make([]byte, 4))
	assert.Zero(t, n)
	assert.True(t, IsContentLengthExceeded(err))
}

func TestContentLengthLimitingStream_TriggeringReadReturnsData(t *testing.T) {
	s := NewContentLengthLimitingStream(strings.NewReader("0123456789"), 4)

	p := make([]byte, 10)
	n, err := s.Read(p)
	assert.Equal(t, 10, n)
	assert.True(t, IsContentLengthExceeded(err))
}

func TestContentLengthLimitingStream_PassThrough(t *testing.T) {
	s := NewContentLengthLimitingStream(strings.NewReader("abc"), 10)

	_, err := s.Write([]byte("x"))
	assert.ErrorIs(t, err, domain.ErrUnsupported)

	pos, err := s.Seek(1, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pos)
	assert.NoError(t, s.Close())
	assert.Equal(t, int64(10), s.Limit())
}
