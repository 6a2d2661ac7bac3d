// Package guestsrc embeds the Python guest-side sources shipped alongside
// every session: the persistent-interpreter main loop and the framing /
// tool_call runtime it imports.
package guestsrc

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed guest.py
var guestPy []byte

//go:embed guest_helpers.py
var guestHelpersPy []byte

// Files returns the embedded guest sources keyed by the filename they must
// be written under in a session's guest-visible directory.
func Files() map[string][]byte {
	return map[string][]byte{
		"guest.py":         guestPy,
		"guest_helpers.py": guestHelpersPy,
	}
}

// Materialize writes the embedded guest sources into dir, skipping any file
// that already exists so a caller can drop a patched guest.py in without it
// being clobbered on the next session start.
func Materialize(dir string) error {
	for name, content := range Files() {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("guestsrc: stat %s: %w", path, err)
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return fmt.Errorf("guestsrc: write %s: %w", path, err)
		}
	}
	return nil
}
