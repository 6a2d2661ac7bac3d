package wasi

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/modfin/tooliscode/internal/tracing"
	"github.com/modfin/tooliscode/internal/wasierr"
)

// Service is the process-wide session registry (§4.5). It owns one shared
// wazero.Runtime and one compiled interpreter module, built once by
// NewService and reused across every session it creates — compiling python.wasm is
// expensive and the module is immutable, so this generalizes the original
// "load the interpreter module once [per session]" to "once per process",
// which wazero's CompiledModule supports directly (safe to instantiate
// concurrently many times).
type Service struct {
	root     string
	cfg      Config
	runtime  wazero.Runtime
	compiled wazero.CompiledModule

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewService builds a Service rooted at root, compiling the interpreter
// named by cfg.PythonWasm once.
func NewService(ctx context.Context, root string, cfg Config) (*Service, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("%w: create root %s: %v", wasierr.ConfigError, root, err)
	}

	wasmBytes, err := os.ReadFile(cfg.PythonWasm)
	if err != nil {
		return nil, fmt.Errorf("%w: read PYTHON_WASM %s: %v", wasierr.ConfigError, cfg.PythonWasm, err)
	}

	runtime := wazero.NewRuntime(ctx)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("%w: instantiate wasi_snapshot_preview1: %v", wasierr.ConfigError, err)
	}

	compiled, err := runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("%w: compile %s: %v", wasierr.ConfigError, cfg.PythonWasm, err)
	}

	return &Service{
		root:     root,
		cfg:      cfg,
		runtime:  runtime,
		compiled: compiled,
		sessions: make(map[string]*Session),
	}, nil
}

var defaultServiceOnce = sync.OnceValues(func() (*Service, error) {
	cfg, err := LoadConfig(".env")
	if err != nil {
		return nil, err
	}
	root, err := os.MkdirTemp("", "tooliscode-")
	if err != nil {
		return nil, fmt.Errorf("%w: create default root: %v", wasierr.ConfigError, err)
	}
	return NewService(context.Background(), root, cfg)
})

// Default lazily constructs and memoizes a process-wide Service from
// environment configuration (§9 design note: "expose the service as an
// explicit construct ... provide a module-level default only as a
// convenience").
func Default() (*Service, error) {
	return defaultServiceOnce()
}

// CreateSession generates a fresh session id, materializes its scratch
// directory, constructs a Session, and registers it (§4.5). opts configure
// the session's construction, e.g. WithFIFOStdio to attach its guest's
// stdio via named FIFOs instead of the default in-process pipes.
func (s *Service) CreateSession(ctx context.Context, cb Callback, stub string, opts ...SessionOption) (string, error) {
	if cb == nil {
		cb = NopCallback
	}
	sid, err := newSessionID()
	if err != nil {
		return "", fmt.Errorf("%w: generate session id: %v", wasierr.ConfigError, err)
	}

	s.mu.Lock()
	if _, exists := s.sessions[sid]; exists {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: session id collision %s", wasierr.ConfigError, sid)
	}
	s.mu.Unlock()

	sess, err := newSession(ctx, s, sid, cb, stub, opts...)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.sessions[sid] = sess
	s.mu.Unlock()

	tracing.Tracef(s.cfg.Trace, "session %s created", sid)
	return sid, nil
}

func (s *Service) lookup(sid string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", wasierr.UnknownSession, sid)
	}
	return sess, nil
}

// ExecCell forwards to the named session (§4.5).
func (s *Service) ExecCell(ctx context.Context, sid, code string, timeoutMS int) (ExecResult, error) {
	sess, err := s.lookup(sid)
	if err != nil {
		return ExecResult{}, err
	}
	return sess.ExecCell(ctx, code, timeoutMS)
}

// Reset forwards to the named session; a no-op if the session is absent.
func (s *Service) Reset(sid string) error {
	sess, err := s.lookup(sid)
	if err != nil {
		return nil
	}
	return sess.Reset()
}

// Close removes sid from the registry under the lock and closes it outside
// the lock (§4.5).
func (s *Service) Close(sid string) error {
	s.mu.Lock()
	sess, ok := s.sessions[sid]
	if ok {
		delete(s.sessions, sid)
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return sess.Close()
}

// CloseAll closes every registered session and drains the map.
func (s *Service) CloseAll() error {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for sid, sess := range s.sessions {
		sessions = append(sessions, sess)
		delete(s.sessions, sid)
	}
	s.mu.Unlock()

	var first error
	for _, sess := range sessions {
		if err := sess.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func newSessionID() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(buf), nil
}
