package wasi

import (
	"fmt"
	"strings"
)

// ExecResult is returned from ExecCell (§3 ExecResult, §4.4).
type ExecResult struct {
	OK     bool   `json:"ok"`
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	WallMS int64  `json:"wall_ms"`
	Error  string `json:"error,omitempty"`
}

// ToolRequest is the decoded form of a guest->host tool_request frame,
// handed to the user callback as (name, id, arguments).
type ToolRequest struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Callback is invoked synchronously on the caller's goroutine once per
// tool_request, in the order received (§4.4 exec_cell, §5). Its returned
// map is merged into {type:"tool_result", id} — typically under a
// "content" key — filling defaults for missing keys. A non-nil error
// produces {type:"tool_result", id, error:{type, message}} instead; the
// guest sees this as a normal tool_result and may raise on it.
type Callback func(req ToolRequest) (map[string]any, error)

// NopCallback is the Facade's default callback: every tool_request fails
// with a CallbackError, since there is nothing behind it to answer.
func NopCallback(req ToolRequest) (map[string]any, error) {
	return nil, errNopCallback
}

// TypedError is the interface a callback's error can implement to name the
// guest-visible error.type surfaced in a failed tool_result (spec.md §8
// scenario 6: "the callback raises ... error.type is the raised error's
// class name"). A callback whose error does not implement it still gets a
// distinguishing type, derived by reflection in callbackErrorType.
type TypedError interface {
	ToolErrorType() string
}

// callbackErrorType derives the guest-visible error.type for a callback
// failure: err's own ToolErrorType() if it implements TypedError,
// otherwise its reflected type name with any pointer marker and package
// qualifier stripped, mirroring the class-name convention
// _examples/original_source/src/tooliscode/host.py uses
// (type(exc).__name__) for the same field.
func callbackErrorType(err error) string {
	if te, ok := err.(TypedError); ok {
		if t := te.ToolErrorType(); t != "" {
			return t
		}
	}
	name := fmt.Sprintf("%T", err)
	name = strings.TrimPrefix(name, "*")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
