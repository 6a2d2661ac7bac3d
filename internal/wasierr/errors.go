// Package wasierr defines the error taxonomy shared by the session host and
// service registry: structural/lifecycle failures that propagate out of a
// caller's call, as distinct from per-cell failures reported inline in an
// ExecResult.
package wasierr

import "errors"

var (
	// FramingError covers the framing codec's failure modes (EOF, truncated
	// frame, bad header, oversize, bad JSON) surfaced as a session-level
	// failure to the caller.
	FramingError = errors.New("wasi: framing error")

	// Trap marks a WASM trap observed during exec_cell. Never raised as a
	// Go error out of ExecCell; it is reported inline via ExecResult.Error
	// ("Timeout after N ms" when the session's timeout flag was set,
	// otherwise "Trap").
	Trap = errors.New("wasi: trap")

	// GuestTerminated means the guest worker goroutine exited (crashed or
	// was torn down by a timeout) and the session can no longer serve
	// requests.
	GuestTerminated = errors.New("wasi: guest terminated")

	// ToolCallError marks a guest-originated failure in the tool_call
	// helper: an unexpected frame type, a mismatched id, or a runtime that
	// was shut down mid-await. It is only ever surfaced inside an
	// exec_result's error field, never raised out of a host call.
	ToolCallError = errors.New("wasi: tool call error")

	// CallbackError wraps a failure from the user-supplied tool callback.
	// It never tears down a session; it is always turned into a
	// well-formed tool_result with an error body.
	CallbackError = errors.New("wasi: tool callback error")

	// UnknownSession is returned by registry operations on a session id
	// that is not present.
	UnknownSession = errors.New("wasi: unknown session")

	// ConfigError marks a fatal session-construction failure: a missing
	// WASM binary, missing preopens, or an unusable environment.
	ConfigError = errors.New("wasi: config error")

	// Closed is returned by operations on a session that has already been
	// closed.
	Closed = errors.New("wasi: session closed")
)
