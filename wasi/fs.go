package wasi

import (
	"os"
	"path"
	"path/filepath"
)

func sessionDir(root, sid string) string {
	return filepath.Join(root, sid)
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o700)
}

func writeStub(dir, source string) error {
	if source == "" {
		return nil
	}
	return os.WriteFile(filepath.Join(dir, "sdk.py"), []byte(source), 0o644)
}

// sessionGuestPath is the guest-visible alias for the session scratch
// directory (WASI_SESSION_GUEST, default "/").
func sessionGuestPath(cfg Config) string {
	if cfg.SessionGuestAlias == "" {
		return "/"
	}
	return cfg.SessionGuestAlias
}

// guestEntrypoint is the guest-visible path to guest.py, used as argv[1].
func guestEntrypoint(cfg Config) string {
	base := sessionGuestPath(cfg)
	if base == "/" {
		return "/guest.py"
	}
	return path.Join(base, "guest.py")
}
