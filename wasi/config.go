// Package wasi hosts the CPython WASI guest behind the framed stdio
// protocol: compiling the interpreter module once per process, wiring WASI
// preopens and stdio for each session, and driving the guest's exec/reset/
// exit lifecycle over it.
package wasi

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPythonWasmHomeGuest = "/python_home"
	defaultFIFOWaitSeconds     = 5
)

// Config is the host-side configuration read from the environment (§6).
// LoadConfig optionally pre-loads a .env file the same way the teacher's own
// test files call godotenv.Load() before reading os.Getenv.
type Config struct {
	PythonWasm          string // PYTHON_WASM: path to the interpreter module. Required.
	PythonWasmHome      string // PYTHON_WASM_HOME: host dir holding the interpreter's lib tree.
	PythonWasmHomeGuest string // PYTHON_WASM_HOME_GUEST: guest-side alias, default /python_home.
	SessionGuestAlias   string // WASI_SESSION_GUEST: guest-side alias for the session dir.
	FIFOWait            time.Duration
	Trace               bool
}

// LoadConfig reads Config from the environment, pre-loading envFile with
// godotenv if envFile is non-empty and exists.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return Config{}, fmt.Errorf("wasi: load env file %s: %w", envFile, err)
			}
		}
	}

	cfg := Config{
		PythonWasm:          os.Getenv("PYTHON_WASM"),
		PythonWasmHome:      os.Getenv("PYTHON_WASM_HOME"),
		PythonWasmHomeGuest: os.Getenv("PYTHON_WASM_HOME_GUEST"),
		SessionGuestAlias:   os.Getenv("WASI_SESSION_GUEST"),
		FIFOWait:            defaultFIFOWaitSeconds * time.Second,
		Trace:               isTruthy(os.Getenv("WASI_SERVER_TRACE")),
	}
	if cfg.PythonWasmHomeGuest == "" {
		cfg.PythonWasmHomeGuest = defaultPythonWasmHomeGuest
	}
	if cfg.SessionGuestAlias == "" {
		cfg.SessionGuestAlias = "/"
	}
	if raw := os.Getenv("WASI_FIFO_WAIT_SECONDS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.FIFOWait = time.Duration(n) * time.Second
		}
	}

	if cfg.PythonWasm == "" {
		return Config{}, fmt.Errorf("%w: PYTHON_WASM is required", errConfigMissing)
	}
	return cfg, nil
}

func isTruthy(s string) bool {
	switch s {
	case "1", "t", "T", "true", "True", "TRUE", "yes", "on":
		return true
	default:
		return false
	}
}
