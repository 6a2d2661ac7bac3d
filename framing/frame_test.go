package framing

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	cases := []map[string]any{
		{"type": "exec_request", "code": "print(1)"},
		{"type": "tool_request", "id": "abc", "name": "get_weather", "arguments": map[string]any{"city": "SF"}},
		{},
	}

	var buf bytes.Buffer
	for _, c := range cases {
		require.NoError(t, WriteFrame(&buf, c))
	}

	r := NewReader(&buf)
	for _, want := range cases {
		got, err := r.ReadFrame()
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestReadFrameZeroLengthIsNil(t *testing.T) {
	buf := bytes.NewBufferString("0\n")
	r := NewReader(buf)
	got, err := r.ReadFrame()
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestReadFrameEOF(t *testing.T) {
	r := NewReader(strings.NewReader(""))
	_, err := r.ReadFrame()
	require.ErrorIs(t, err, ErrEOF)
}

func TestReadFrameTruncatedHeader(t *testing.T) {
	r := NewReader(strings.NewReader("12"))
	_, err := r.ReadFrame()
	require.ErrorIs(t, err, ErrTruncated)
}

func TestReadFrameInvalidHeader(t *testing.T) {
	r := NewReader(strings.NewReader("12x\n{}"))
	_, err := r.ReadFrame()
	require.ErrorIs(t, err, ErrInvalidHeader)
}

func TestReadFrameHeaderTooLong(t *testing.T) {
	r := NewReader(strings.NewReader(strings.Repeat("1", 65) + "\n"))
	_, err := r.ReadFrame()
	require.ErrorIs(t, err, ErrInvalidHeader)
}

func TestReadFrameTooLarge(t *testing.T) {
	r := NewReaderSize(strings.NewReader("100\n"+strings.Repeat("a", 100)), 10)
	_, err := r.ReadFrame()
	require.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestReadFrameTruncatedPayload(t *testing.T) {
	r := NewReader(strings.NewReader("10\nabc"))
	_, err := r.ReadFrame()
	require.ErrorIs(t, err, ErrTruncated)
}

func TestReadFrameBadJSON(t *testing.T) {
	r := NewReader(strings.NewReader("5\nnotjs"))
	_, err := r.ReadFrame()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrBadJSON)
}
