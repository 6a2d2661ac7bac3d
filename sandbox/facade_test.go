package sandbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/modfin/tooliscode/tools"
)

func TestToolsPrependsBuiltinPython(t *testing.T) {
	f := &Facade{
		passthrough: []tools.Descriptor{{Type: "retrieval", Name: "search"}},
		stubSource:  "def ping(): ...\n",
	}
	list := f.Tools()
	require.Len(t, list, 2)
	require.Equal(t, pythonToolName, list[0].Name)
	require.Equal(t, "function", list[0].Type)
	require.Equal(t, "search", list[1].Name)
}

func TestInstructionsEmbedsStubSource(t *testing.T) {
	f := &Facade{stubSource: "def get_weather(): ...\n"}
	out := f.Instructions()
	require.Contains(t, out, "def get_weather(): ...")
	require.Contains(t, out, `"python" tool`)
}

func TestToolCallRejectsWrongName(t *testing.T) {
	f := &Facade{}
	_, err := f.ToolCall(context.Background(), FunctionCall{
		Type: "function_call",
		Name: "not_python",
	})
	require.Error(t, err)
}

func TestToolCallRejectsWrongType(t *testing.T) {
	f := &Facade{}
	_, err := f.ToolCall(context.Background(), FunctionCall{
		Type: "message",
		Name: pythonToolName,
	})
	require.Error(t, err)
}
