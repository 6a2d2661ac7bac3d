//go:build unix

package fifostdio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateAndRemove(t *testing.T) {
	dir := t.TempDir()
	triple, err := Create(dir)
	require.NoError(t, err)

	for _, path := range []string{triple.Stdin, triple.Stdout, triple.Stderr} {
		info, err := os.Lstat(path)
		require.NoError(t, err)
		require.True(t, info.Mode()&os.ModeNamedPipe != 0)
	}

	Remove(triple)
	for _, path := range []string{triple.Stdin, triple.Stdout, triple.Stderr} {
		_, err := os.Lstat(path)
		require.True(t, os.IsNotExist(err))
	}
}

func TestPlaceholderUnblocksImmediateOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "_stdin.fifo")
	require.NoError(t, mkfifo(path, 0o600))
	defer os.Remove(path)

	placeholder, err := OpenPlaceholder(path)
	require.NoError(t, err)
	defer placeholder.Close()

	opened := make(chan error, 1)
	go func() {
		f, err := os.OpenFile(path, os.O_RDONLY, 0o600)
		if f != nil {
			f.Close()
		}
		opened <- err
	}()

	select {
	case err := <-opened:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("open blocked despite placeholder descriptor")
	}
}
