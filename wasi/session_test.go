package wasi

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/modfin/tooliscode/framing"
)

// newTestSession builds a Session wired to an in-memory stdio pair with no
// real guest behind it, so handleToolRequest's wiring (callback invocation,
// response framing) can be exercised without compiling or running WASI.
func newTestSession(t *testing.T, cb Callback) (*Session, *framing.Reader) {
	t.Helper()
	sio := newPipeStdio()
	sess := &Session{
		id:     "test",
		stdio:  sio,
		reader: framing.NewReader(sio.hostStdout),
		cb:     cb,
		done:   make(chan struct{}),
	}
	guestSideReader := framing.NewReader(sio.guestStdin)
	return sess, guestSideReader
}

func TestHandleToolRequestSuccess(t *testing.T) {
	var gotName string
	var gotArgs map[string]any
	cb := func(req ToolRequest) (map[string]any, error) {
		gotName = req.Name
		gotArgs = req.Arguments
		return map[string]any{"content": map[string]any{"temp": 22}}, nil
	}

	sess, guestReader := newTestSession(t, cb)

	done := make(chan map[string]any, 1)
	go func() {
		frame, _ := guestReader.ReadFrame()
		done <- frame
	}()

	err := sess.handleToolRequest(context.Background(), map[string]any{
		"type":      "tool_request",
		"id":        "req-1",
		"name":      "get_weather",
		"arguments": map[string]any{"city": "SF"},
	})
	require.NoError(t, err)
	require.Equal(t, "get_weather", gotName)
	require.Equal(t, map[string]any{"city": "SF"}, gotArgs)

	written := <-done
	require.Equal(t, "tool_result", written["type"])
	require.Equal(t, "req-1", written["id"])
	content, ok := written["content"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, float64(22), content["temp"])
}

func TestHandleToolRequestCallbackError(t *testing.T) {
	cb := func(req ToolRequest) (map[string]any, error) {
		return nil, errors.New("broken callback")
	}
	sess, guestReader := newTestSession(t, cb)

	done := make(chan map[string]any, 1)
	go func() {
		frame, _ := guestReader.ReadFrame()
		done <- frame
	}()

	err := sess.handleToolRequest(context.Background(), map[string]any{
		"type": "tool_request",
		"id":   "req-2",
		"name": "broken",
	})
	require.NoError(t, err)

	written := <-done
	require.Equal(t, "tool_result", written["type"])
	require.Equal(t, "req-2", written["id"])
	require.Contains(t, written, "error")
	errBody, ok := written["error"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "errorString", errBody["type"])
	require.Equal(t, "broken callback", errBody["message"])
}

type keyErrorStub struct{ key string }

func (e *keyErrorStub) Error() string         { return fmt.Sprintf("missing key %q", e.key) }
func (e *keyErrorStub) ToolErrorType() string { return "KeyError" }

func TestHandleToolRequestCallbackTypedError(t *testing.T) {
	cb := func(req ToolRequest) (map[string]any, error) {
		return nil, &keyErrorStub{key: "city"}
	}
	sess, guestReader := newTestSession(t, cb)

	done := make(chan map[string]any, 1)
	go func() {
		frame, _ := guestReader.ReadFrame()
		done <- frame
	}()

	err := sess.handleToolRequest(context.Background(), map[string]any{
		"type": "tool_request",
		"id":   "req-3",
		"name": "broken",
	})
	require.NoError(t, err)

	written := <-done
	errBody, ok := written["error"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "KeyError", errBody["type"])
}
