// Package sandbox is the external-caller-facing facade combining the stub
// generator, session host and service registry into the surface an LLM
// tool-calling loop actually drives: one "python" code-execution tool
// backed by a persistent session (§4.6).
package sandbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modfin/tooliscode/internal/wasierr"
	"github.com/modfin/tooliscode/stub"
	"github.com/modfin/tooliscode/tools"
	"github.com/modfin/tooliscode/wasi"
)

const pythonToolName = "python"

const instructionsTemplate = `You have access to a "python" tool: a persistent, stateful Python interpreter.

Filesystem access is limited to the current directory. Prefer writing large
outputs to files and reading them back in parts rather than printing them in
full.

An "sdk" module is importable from the current directory; it exposes one
callable per declared tool, named after that tool, each of which blocks
until the call completes and returns its result. Its generated source:

%s`

// Facade is constructed from a user's tool list and an optional callback,
// and exposes the model-facing tool list, instructions, and the single
// "python" tool's call handler.
type Facade struct {
	svc *wasi.Service
	cb  wasi.Callback

	passthrough []tools.Descriptor
	stubSource  string
	sid         string
}

// Option configures New.
type Option func(*options)

type options struct {
	svc        *wasi.Service
	cb         wasi.Callback
	cacheLRU   int
	sessionOpt []wasi.SessionOption
}

// WithService overrides the process-wide default *wasi.Service (§9 design
// note: the facade takes an explicit service, defaulting only as a
// convenience).
func WithService(svc *wasi.Service) Option {
	return func(o *options) { o.svc = svc }
}

// WithCallback sets the tool_request callback invoked for every upcall
// from guest code. The default is wasi.NopCallback, which fails every
// call.
func WithCallback(cb wasi.Callback) Option {
	return func(o *options) { o.cb = cb }
}

// WithFIFOStdio makes the backing session attach its guest's stdio via
// named FIFOs instead of in-process pipes (wasi.WithFIFOStdio), for parity
// with WASI embedders that can only be handed a stdio file path.
func WithFIFOStdio() Option {
	return func(o *options) { o.sessionOpt = append(o.sessionOpt, wasi.WithFIFOStdio()) }
}

// New validates descs, renders the stub module, creates a backing session,
// and returns a ready Facade.
func New(ctx context.Context, descs []tools.Descriptor, opts ...Option) (*Facade, error) {
	o := &options{cb: wasi.NopCallback, cacheLRU: 64}
	for _, opt := range opts {
		opt(o)
	}

	if err := tools.ValidateAll(descs); err != nil {
		return nil, err
	}

	svc := o.svc
	if svc == nil {
		var err error
		svc, err = wasi.Default()
		if err != nil {
			return nil, err
		}
	}

	cache, err := stub.NewCache(o.cacheLRU)
	if err != nil {
		return nil, fmt.Errorf("%w: build stub cache: %v", wasierr.ConfigError, err)
	}
	source := cache.Render(descs)

	var passthrough []tools.Descriptor
	for _, d := range descs {
		if !d.IsFunction() {
			passthrough = append(passthrough, d)
		}
	}

	sid, err := svc.CreateSession(ctx, o.cb, source, o.sessionOpt...)
	if err != nil {
		return nil, err
	}

	return &Facade{
		svc:         svc,
		cb:          o.cb,
		passthrough: passthrough,
		stubSource:  source,
		sid:         sid,
	}, nil
}

// Tools returns the model-visible tool list: the built-in "python" tool
// first, followed by any non-function descriptors passed through
// untouched. Function descriptors are hidden behind the python tool.
func (f *Facade) Tools() []tools.Descriptor {
	out := make([]tools.Descriptor, 0, 1+len(f.passthrough))
	out = append(out, tools.Descriptor{
		Type:        "function",
		Name:        pythonToolName,
		Description: "Execute Python code in a persistent, stateful interpreter.",
		Parameters: &tools.Schema{
			Type:     "object",
			Required: []string{"code"},
			Properties: map[string]*tools.Schema{
				"code": {Type: "string", Description: "The Python source to execute."},
			},
		},
	})
	out = append(out, f.passthrough...)
	return out
}

// Instructions returns guidance text describing the python tool's scope,
// embedding the generated stub source (§4.6).
func (f *Facade) Instructions() string {
	return fmt.Sprintf(instructionsTemplate, f.stubSource)
}

// SessionID returns the backing session's opaque id.
func (f *Facade) SessionID() string {
	return f.sid
}

// SDKCode returns the generated stub module source written into the
// session as sdk.py.
func (f *Facade) SDKCode() string {
	return f.stubSource
}

// FunctionCall is the model-issued call record ToolCall consumes (§4.6).
type FunctionCall struct {
	Type      string `json:"type"`
	Name      string `json:"name"`
	CallID    string `json:"call_id"`
	Arguments string `json:"arguments"`
}

// FunctionCallOutput is the record returned from ToolCall.
type FunctionCallOutput struct {
	Type   string `json:"type"`
	CallID string `json:"call_id"`
	Output string `json:"output"`
}

// ToolCall executes a "python" function call against the backing session
// (§4.6).
func (f *Facade) ToolCall(ctx context.Context, call FunctionCall) (FunctionCallOutput, error) {
	if call.Type != "function_call" || call.Name != pythonToolName {
		return FunctionCallOutput{}, fmt.Errorf("%w: unsupported call %+v", wasierr.ConfigError, call)
	}

	var args struct {
		Code string `json:"code"`
	}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return FunctionCallOutput{}, fmt.Errorf("%w: decode arguments: %v", wasierr.ConfigError, err)
		}
	}

	result, err := f.svc.ExecCell(ctx, f.sid, args.Code, 8000)
	if err != nil {
		return FunctionCallOutput{}, err
	}

	output := result.Stdout
	if !result.OK {
		output = result.Error
	}
	return FunctionCallOutput{
		Type:   "function_call_output",
		CallID: call.CallID,
		Output: output,
	}, nil
}

// Close tears down the backing session.
func (f *Facade) Close() error {
	return f.svc.Close(f.sid)
}
