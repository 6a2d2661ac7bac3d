// Package fifostdio provides the named-FIFO fallback stdio path for
// embedders that cannot hand a WASI runtime in-process pipe objects and
// instead require file paths on disk (§4.4 step 5 / §6). wazero never
// requires this path — its ModuleConfig accepts io.Reader/io.Writer
// directly — so it exists for parity with that class of embedder and is
// exercised by its own test rather than the default session path.
package fifostdio

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Triple holds the three FIFO paths created inside a session directory.
type Triple struct {
	Stdin  string
	Stdout string
	Stderr string
}

// Create makes the three named FIFOs (mode 0600) under dir, prefixed
// "_stdin.fifo", "_stdout.fifo", "_stderr.fifo" per §6.
func Create(dir string) (Triple, error) {
	t := Triple{
		Stdin:  filepath.Join(dir, "_stdin.fifo"),
		Stdout: filepath.Join(dir, "_stdout.fifo"),
		Stderr: filepath.Join(dir, "_stderr.fifo"),
	}
	for _, path := range []string{t.Stdin, t.Stdout, t.Stderr} {
		if err := mkfifo(path, 0o600); err != nil {
			Remove(t)
			return Triple{}, fmt.Errorf("fifostdio: mkfifo %s: %w", path, err)
		}
	}
	return t, nil
}

// Remove deletes any FIFO nodes in t that exist, ignoring missing ones.
func Remove(t Triple) {
	for _, path := range []string{t.Stdin, t.Stdout, t.Stderr} {
		if path == "" {
			continue
		}
		_ = os.Remove(path)
	}
}

// OpenPlaceholder opens path read-write first, so the embedder's own
// blocking open (for reading or writing, whichever end it owns) doesn't
// deadlock waiting for a peer before the real non-blocking attachment
// below replaces it.
func OpenPlaceholder(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("fifostdio: open placeholder %s: %w", path, err)
	}
	return f, nil
}

// AwaitPeer opens path for the given flag (os.O_RDONLY or os.O_WRONLY),
// retrying any failed open every 20ms until wait has elapsed. The open is an
// ordinary blocking open: on a FIFO with no peer and no placeholder
// descriptor it blocks rather than failing, so wait bounds only the retries
// of opens that return an error.
func AwaitPeer(path string, flag int, wait time.Duration) (*os.File, error) {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		f, err := os.OpenFile(path, flag, 0o600)
		if err == nil {
			return f, nil
		}
		lastErr = err
		time.Sleep(20 * time.Millisecond)
	}
	return nil, fmt.Errorf("fifostdio: no peer attached to %s within %s: %w", path, wait, lastErr)
}
