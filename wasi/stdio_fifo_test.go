//go:build unix

package wasi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/modfin/tooliscode/framing"
)

// TestNewFIFOStdioRoundTrips exercises the WithFIFOStdio fallback
// end-to-end: frames written on the host's ends of the FIFO triple must be
// readable from the guest's ends, and vice versa, exactly like the default
// in-process pipe stdio.
func TestNewFIFOStdioRoundTrips(t *testing.T) {
	dir := t.TempDir()
	sio, err := newFIFOStdio(dir, 2*time.Second)
	require.NoError(t, err)
	defer sio.Close()

	guestReader := framing.NewReader(sio.guestStdin)
	hostReader := framing.NewReader(sio.hostStdout)

	require.NoError(t, framing.WriteFrame(sio.hostStdin, map[string]any{"type": "exec_request", "code": "1+1"}))
	got, err := guestReader.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, "exec_request", got["type"])
	require.Equal(t, "1+1", got["code"])

	require.NoError(t, framing.WriteFrame(sio.guestStdout, map[string]any{"type": "exec_result", "ok": true}))
	got, err = hostReader.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, "exec_result", got["type"])
	require.Equal(t, true, got["ok"])
}
