package wasi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigRequiresPythonWasm(t *testing.T) {
	t.Setenv("PYTHON_WASM", "")
	_, err := LoadConfig("")
	require.Error(t, err)
	require.ErrorIs(t, err, errConfigMissing)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PYTHON_WASM", "/opt/python.wasm")
	t.Setenv("PYTHON_WASM_HOME_GUEST", "")
	t.Setenv("WASI_SESSION_GUEST", "")
	t.Setenv("WASI_FIFO_WAIT_SECONDS", "")
	t.Setenv("WASI_SERVER_TRACE", "")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, "/opt/python.wasm", cfg.PythonWasm)
	require.Equal(t, defaultPythonWasmHomeGuest, cfg.PythonWasmHomeGuest)
	require.Equal(t, "/", cfg.SessionGuestAlias)
	require.False(t, cfg.Trace)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PYTHON_WASM", "/opt/python.wasm")
	t.Setenv("PYTHON_WASM_HOME_GUEST", "/guest_home")
	t.Setenv("WASI_SESSION_GUEST", "/session")
	t.Setenv("WASI_FIFO_WAIT_SECONDS", "10")
	t.Setenv("WASI_SERVER_TRACE", "true")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, "/guest_home", cfg.PythonWasmHomeGuest)
	require.Equal(t, "/session", cfg.SessionGuestAlias)
	require.Equal(t, 10_000_000_000, int(cfg.FIFOWait))
	require.True(t, cfg.Trace)
}

func TestIsTruthy(t *testing.T) {
	require.True(t, isTruthy("1"))
	require.True(t, isTruthy("true"))
	require.False(t, isTruthy(""))
	require.False(t, isTruthy("0"))
	require.False(t, isTruthy("nope"))
}
