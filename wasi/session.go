package wasi

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tetratelabs/wazero"
	"go.opentelemetry.io/otel/attribute"

	"github.com/modfin/tooliscode/framing"
	"github.com/modfin/tooliscode/internal/guestsrc"
	"github.com/modfin/tooliscode/internal/tracing"
	"github.com/modfin/tooliscode/internal/wasierr"
)

type state int

const (
	stateStarting state = iota
	stateReady
	stateExecuting
	stateClosing
	stateClosed
)

// Session is one isolated, stateful CPython WASI guest instance (§3, §4.4).
type Session struct {
	id  string
	dir string
	svc *Service

	cb Callback

	mu    sync.Mutex // serializes ExecCell/Reset/Close
	state state

	stdio  *stdio
	reader *framing.Reader

	cancel context.CancelFunc
	done   chan struct{} // closed when the guest worker goroutine returns
	guestErr error       // set by the worker on unhandled exit, guarded by mu

	stderrBuf []byte
	stderrMu  sync.Mutex
}

// SessionOption configures a single session's construction, in addition to
// the process-wide Config (§9 design note style: explicit, composable
// options rather than global switches).
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	fifoStdio bool
}

// WithFIFOStdio makes a session attach its guest's stdio via named FIFOs
// under the session directory (internal/fifostdio) instead of the default
// in-process io.Pipe()s, for parity with WASI embedders that can only be
// handed a stdio file path rather than in-process pipe objects (§4.4 step
// 5, §6).
func WithFIFOStdio() SessionOption {
	return func(c *sessionConfig) { c.fifoStdio = true }
}

// newSession implements Session construction per §4.4 steps 1-6.
func newSession(ctx context.Context, svc *Service, sid string, cb Callback, generatedStub string, opts ...SessionOption) (*Session, error) {
	ctx, span := tracing.Start(ctx, "wasi.Session.new", attribute.String("session.id", sid))
	defer span.End()

	var sc sessionConfig
	for _, opt := range opts {
		opt(&sc)
	}

	dir := sessionDir(svc.root, sid)
	if err := ensureDir(dir); err != nil {
		return nil, fmt.Errorf("%w: create session dir %s: %v", wasierr.ConfigError, dir, err)
	}

	if err := guestsrc.Materialize(dir); err != nil {
		return nil, fmt.Errorf("%w: %v", wasierr.ConfigError, err)
	}
	if err := writeStub(dir, generatedStub); err != nil {
		return nil, fmt.Errorf("%w: %v", wasierr.ConfigError, err)
	}

	var sio *stdio
	var err error
	if sc.fifoStdio {
		sio, err = newFIFOStdio(dir, svc.cfg.FIFOWait)
	} else {
		sio = newPipeStdio()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", wasierr.ConfigError, err)
	}

	sess := &Session{
		id:     sid,
		dir:    dir,
		svc:    svc,
		cb:     cb,
		state:  stateStarting,
		stdio:  sio,
		reader: framing.NewReader(sio.hostStdout),
		done:   make(chan struct{}),
	}

	runCtx, cancel := context.WithCancel(context.Background())
	sess.cancel = cancel

	go sess.drainStderrLoop()

	modCfg := wazero.NewModuleConfig().
		WithName(sid).
		WithStdin(sio.guestStdin).
		WithStdout(sio.guestStdout).
		WithStderr(sio.guestStderr).
		WithArgs("python", "-u", guestEntrypoint(svc.cfg)).
		WithEnv("PYTHONHOME", svc.cfg.PythonWasmHomeGuest).
		WithEnv("PYTHONDONTWRITEBYTECODE", "1").
		WithFSConfig(
			wazero.NewFSConfig().
				WithDirMount(dir, sessionGuestPath(svc.cfg)).
				WithReadOnlyDirMount(svc.cfg.PythonWasmHome, svc.cfg.PythonWasmHomeGuest),
		).
		WithCloseOnContextDone(true)

	go sess.runGuest(runCtx, modCfg)

	sess.mu.Lock()
	sess.state = stateReady
	sess.mu.Unlock()

	tracing.Tracef(svc.cfg.Trace, "session %s ready at %s", sid, dir)
	return sess, nil
}

func (s *Session) runGuest(ctx context.Context, modCfg wazero.ModuleConfig) {
	defer close(s.done)
	_, err := s.svc.runtime.InstantiateModule(ctx, s.svc.compiled, modCfg)
	// Unblock any host read still pending on stdout/stderr now that the
	// guest will never write again.
	s.stdio.closeGuestWriters()
	if err != nil && ctx.Err() == nil {
		// A non-cancellation exit is an unhandled guest error (§4.4 step 6).
		s.mu.Lock()
		s.guestErr = err
		s.mu.Unlock()
	}
}

// ExecCell runs one cell in the guest and returns its result (§4.4
// exec_cell).
func (s *Session) ExecCell(ctx context.Context, code string, timeoutMS int) (ExecResult, error) {
	ctx, span := tracing.Start(ctx, "wasi.Session.ExecCell",
		attribute.String("session.id", s.id),
		attribute.Int("timeout_ms", timeoutMS),
		attribute.Int("code.len", len(code)),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateClosed || s.state == stateClosing {
		return ExecResult{}, fmt.Errorf("%w", wasierr.Closed)
	}
	if s.guestErr != nil || s.isGuestDeadLocked() {
		return ExecResult{}, fmt.Errorf("%w", wasierr.GuestTerminated)
	}
	s.state = stateExecuting
	defer func() { s.state = stateReady }()

	start := time.Now()
	var timedOut atomic.Bool
	var timer *time.Timer
	if timeoutMS > 0 {
		timer = time.AfterFunc(time.Duration(timeoutMS)*time.Millisecond, func() {
			timedOut.Store(true)
			s.cancel()
		})
		defer timer.Stop()
	}

	if err := framing.WriteFrame(s.stdio.hostStdin, map[string]any{"type": "exec_request", "code": code}); err != nil {
		return ExecResult{}, fmt.Errorf("%w: write exec_request: %v", wasierr.FramingError, err)
	}

	result, err := s.receiveUntilExecResult(ctx)
	wallMS := time.Since(start).Milliseconds()

	if err != nil {
		msg := "Trap"
		if timedOut.Load() {
			msg = fmt.Sprintf("Timeout after %d ms", timeoutMS)
		}
		res := ExecResult{OK: false, Error: msg, WallMS: wallMS}
		res.Stderr = s.drainStderr()
		return res, nil
	}

	result.WallMS = wallMS
	result.Stderr += s.drainStderr()
	return result, nil
}

// receiveUntilExecResult implements the exec_cell receive loop (§4.4):
// tool_request frames are answered synchronously via the callback; any
// other frame is treated as the terminal exec_result.
func (s *Session) receiveUntilExecResult(ctx context.Context) (ExecResult, error) {
	for {
		frame, err := s.reader.ReadFrame()
		if err != nil {
			return ExecResult{}, err
		}
		if frame == nil {
			continue
		}
		msgType, _ := frame["type"].(string)
		if msgType == "tool_request" {
			if err := s.handleToolRequest(ctx, frame); err != nil {
				return ExecResult{}, err
			}
			continue
		}
		return decodeExecResult(frame), nil
	}
}

func (s *Session) handleToolRequest(ctx context.Context, frame map[string]any) error {
	id, _ := frame["id"].(string)
	name, _ := frame["name"].(string)
	args, _ := frame["arguments"].(map[string]any)

	_, span := tracing.Start(ctx, "wasi.Session.toolRequest",
		attribute.String("session.id", s.id),
		attribute.String("tool.name", name),
		attribute.String("tool_request.id", id),
	)
	defer span.End()

	req := ToolRequest{ID: id, Name: name, Arguments: args}
	content, err := s.cb(req)

	var response map[string]any
	if err != nil {
		response = map[string]any{
			"type": "tool_result",
			"id":   id,
			"error": map[string]any{
				"type":    callbackErrorType(err),
				"message": err.Error(),
			},
		}
	} else {
		response = map[string]any{"type": "tool_result", "id": id}
		for k, v := range content {
			response[k] = v
		}
	}

	if err := framing.WriteFrame(s.stdio.hostStdin, response); err != nil {
		return fmt.Errorf("%w: write tool_result: %v", wasierr.FramingError, err)
	}
	return nil
}

func decodeExecResult(frame map[string]any) ExecResult {
	res := ExecResult{}
	if ok, isBool := frame["ok"].(bool); isBool {
		res.OK = ok
	}
	if s, ok := frame["stdout"].(string); ok {
		res.Stdout = s
	}
	if s, ok := frame["stderr"].(string); ok {
		res.Stderr = s
	}
	if errVal, ok := frame["error"]; ok && errVal != nil {
		raw, _ := json.Marshal(errVal)
		if m, ok := errVal.(map[string]any); ok {
			if msg, ok := m["msg"].(string); ok {
				res.Error = msg
			} else if msg, ok := m["message"].(string); ok {
				res.Error = msg
			} else {
				res.Error = string(raw)
			}
		} else {
			res.Error = fmt.Sprint(errVal)
		}
	}
	return res
}

// Reset clears the guest's globals (§4.4 reset).
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateClosed || s.state == stateClosing {
		return fmt.Errorf("%w", wasierr.Closed)
	}
	if s.isGuestDeadLocked() {
		return fmt.Errorf("%w", wasierr.GuestTerminated)
	}
	if err := framing.WriteFrame(s.stdio.hostStdin, map[string]any{"type": "reset"}); err != nil {
		return fmt.Errorf("%w: write reset: %v", wasierr.FramingError, err)
	}
	_, _ = s.reader.ReadFrame() // best-effort ack, read errors ignored
	return nil
}

// Close terminates the session (§4.4 close).
func (s *Session) Close() error {
	_, span := tracing.Start(context.Background(), "wasi.Session.Close", attribute.String("session.id", s.id))
	defer span.End()

	s.mu.Lock()
	if s.state == stateClosed {
		s.mu.Unlock()
		return nil
	}
	s.state = stateClosing
	alreadyDead := s.isGuestDeadLocked()
	s.mu.Unlock()

	if !alreadyDead {
		_ = framing.WriteFrame(s.stdio.hostStdin, map[string]any{"type": "exit"})
		_, _ = s.reader.ReadFrame() // best-effort ack
	}

	s.cancel()
	<-s.done

	err := s.stdio.Close()

	s.mu.Lock()
	s.state = stateClosed
	s.mu.Unlock()

	tracing.Tracef(s.svc.cfg.Trace, "session %s closed", s.id)
	return err
}

// isGuestDeadLocked reports whether the guest worker goroutine has already
// exited. Caller must hold s.mu.
func (s *Session) isGuestDeadLocked() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// drainStderrLoop continuously reads the guest's stderr pipe into an
// in-memory buffer. io.Pipe has no internal buffering — a write blocks
// until a reader is ready — so stderr must be drained concurrently with
// exec_cell rather than only at the end of a cell, or the guest would
// deadlock writing to a full, unread pipe.
func (s *Session) drainStderrLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := s.stdio.hostStderr.Read(buf)
		if n > 0 {
			s.stderrMu.Lock()
			s.stderrBuf = append(s.stderrBuf, buf[:n]...)
			s.stderrMu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// drainStderr returns and clears whatever stderr bytes have accumulated
// since the last call (§4.4: "any buffered bytes on the guest stderr
// stream are drained and appended to ExecResult.stderr").
func (s *Session) drainStderr() string {
	s.stderrMu.Lock()
	defer s.stderrMu.Unlock()
	out := string(s.stderrBuf)
	s.stderrBuf = nil
	return out
}
