package wasi

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/modfin/tooliscode/internal/fifostdio"
)

// stdio bundles the three streams a session's guest module is configured
// with (§4.4 step 5). stdin/stdout are read/written by the session's own
// framing readers/writers; stderr is drained best-effort after a cell.
type stdio struct {
	guestStdin  io.Reader
	hostStdin   io.WriteCloser // host writes exec_request/tool_result/reset/exit here
	guestStdout io.Writer
	hostStdout  io.ReadCloser // host reads exec_result/tool_request from here
	guestStderr io.Writer
	hostStderr  io.ReadCloser

	// guestStdoutW/guestStderrW are the write ends the guest itself writes
	// to, closed from the host side once the guest goroutine has returned
	// so a blocked host read (mid exec_cell, after a timeout cancel) gets
	// an EOF instead of hanging forever — io.Pipe has no buffering and
	// never signals EOF on its own.
	guestStdoutW io.Closer
	guestStderrW io.Closer

	// fifos is non-nil when this stdio was built by newFIFOStdio (§4.4 step
	// 5 fallback); Close removes the backing FIFO nodes after all file
	// descriptors on them are closed.
	fifos *fifostdio.Triple

	closers []io.Closer
}

func (s *stdio) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	if s.fifos != nil {
		fifostdio.Remove(*s.fifos)
	}
	return first
}

// closeGuestWriters unblocks any host read pending on stdout/stderr after
// the guest goroutine has exited.
func (s *stdio) closeGuestWriters() {
	_ = s.guestStdoutW.Close()
	_ = s.guestStderrW.Close()
}

// newPipeStdio builds the default stdio: in-process io.Pipe() pairs
// standing in for wasmtime.Pipe, since wazero's ModuleConfig accepts
// arbitrary io.Reader/io.Writer directly for stdin/stdout/stderr.
func newPipeStdio() *stdio {
	stdinR, stdinW := io.Pipe()   // host writes stdinW, guest reads stdinR
	stdoutR, stdoutW := io.Pipe() // guest writes stdoutW, host reads stdoutR
	stderrR, stderrW := io.Pipe() // guest writes stderrW, host reads stderrR

	return &stdio{
		guestStdin:   stdinR,
		hostStdin:    stdinW,
		guestStdout:  stdoutW,
		hostStdout:   stdoutR,
		guestStderr:  stderrW,
		hostStderr:   stderrR,
		guestStdoutW: stdoutW,
		guestStderrW: stderrW,
		closers:      []io.Closer{stdinW, stdoutW, stderrW, stdinR, stdoutR, stderrR},
	}
}

// newFIFOStdio builds stdio from named FIFOs inside dir instead of
// in-process pipes, for parity with WASI embedders that can only be handed
// a stdio file path rather than in-process pipe objects (§4.4 step 5, §6).
// Per spec, each FIFO's placeholder read-write descriptor is opened first
// so neither of the two real non-blocking ends below has to wait for a
// peer, then the placeholder is released.
func newFIFOStdio(dir string, wait time.Duration) (*stdio, error) {
	triple, err := fifostdio.Create(dir)
	if err != nil {
		return nil, fmt.Errorf("wasi: create fifo stdio: %w", err)
	}

	placeholders := make([]*os.File, 0, 3)
	cleanup := func() {
		for _, f := range placeholders {
			_ = f.Close()
		}
		fifostdio.Remove(triple)
	}
	for _, path := range []string{triple.Stdin, triple.Stdout, triple.Stderr} {
		ph, err := fifostdio.OpenPlaceholder(path)
		if err != nil {
			cleanup()
			return nil, err
		}
		placeholders = append(placeholders, ph)
	}

	open := func(path string, flag int) (*os.File, error) {
		f, err := fifostdio.AwaitPeer(path, flag, wait)
		if err != nil {
			cleanup()
			return nil, err
		}
		return f, nil
	}

	// guest reads stdin, host writes it.
	guestStdin, err := open(triple.Stdin, os.O_RDONLY)
	if err != nil {
		return nil, err
	}
	hostStdin, err := open(triple.Stdin, os.O_WRONLY)
	if err != nil {
		return nil, err
	}
	// guest writes stdout, host reads it.
	guestStdout, err := open(triple.Stdout, os.O_WRONLY)
	if err != nil {
		return nil, err
	}
	hostStdout, err := open(triple.Stdout, os.O_RDONLY)
	if err != nil {
		return nil, err
	}
	// guest writes stderr, host reads it.
	guestStderr, err := open(triple.Stderr, os.O_WRONLY)
	if err != nil {
		return nil, err
	}
	hostStderr, err := open(triple.Stderr, os.O_RDONLY)
	if err != nil {
		return nil, err
	}

	for _, ph := range placeholders {
		_ = ph.Close()
	}

	return &stdio{
		guestStdin:   guestStdin,
		hostStdin:    hostStdin,
		guestStdout:  guestStdout,
		hostStdout:   hostStdout,
		guestStderr:  guestStderr,
		hostStderr:   hostStderr,
		guestStdoutW: guestStdout,
		guestStderrW: guestStderr,
		fifos:        &triple,
		closers:      []io.Closer{guestStdin, hostStdin, guestStdout, hostStdout, guestStderr, hostStderr},
	}, nil
}
