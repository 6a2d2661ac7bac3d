package stub

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/modfin/tooliscode/tools"
)

func TestRenderEmptyInput(t *testing.T) {
	require.Equal(t, "", Render(nil))
	require.Equal(t, "", Render([]tools.Descriptor{}))
}

func TestRenderNonFunctionDescriptorsIgnored(t *testing.T) {
	descs := []tools.Descriptor{{Type: "auto", Name: "auto"}}
	require.Equal(t, "", Render(descs))
}

func TestRenderBasicTool(t *testing.T) {
	descs := []tools.Descriptor{
		{
			Type:        "function",
			Name:        "get_weather",
			Description: "Look up the current weather for a city.",
			Parameters: &tools.Schema{
				Type:     "object",
				Required: []string{"city"},
				Properties: map[string]*tools.Schema{
					"city": {Type: "string", Description: "City name."},
					"units": {
						Type:    []string{"string", "null"},
						Enum:    []any{"metric", "imperial"},
						Default: "metric",
					},
				},
			},
		},
	}

	out := Render(descs)
	require.Contains(t, out, "from guest_helpers import tool_call")
	require.Contains(t, out, `def get_weather(city: str, units: Optional[Literal["metric", "imperial"]] = "metric") -> Any:`)
	require.Contains(t, out, `"city": city,`)
	require.Contains(t, out, `"units": units,`)
	require.Contains(t, out, `return tool_call("get_weather", args)`)
}

func TestRenderReservedWordAndNonIdentifierNames(t *testing.T) {
	descs := []tools.Descriptor{
		{
			Type: "function",
			Name: "do-thing",
			Parameters: &tools.Schema{
				Type:     "object",
				Required: []string{"class", "2fast"},
				Properties: map[string]*tools.Schema{
					"class": {Type: "string"},
					"2fast": {Type: "boolean"},
				},
			},
		},
	}

	out := Render(descs)
	require.Contains(t, out, "def do_thing(")
	// "class" is a Python keyword -> identifier gets a trailing underscore,
	// but the wire name is preserved in the assembled args mapping.
	require.Contains(t, out, "class_:")
	require.Contains(t, out, `"class": class_,`)
	// a leading-digit name gets a tool_ prefix.
	require.Contains(t, out, "tool_2fast")
	require.Contains(t, out, `"2fast": tool_2fast,`)
}

func TestRenderOptionalNullableIntDefaultsToNone(t *testing.T) {
	descs := []tools.Descriptor{
		{
			Type: "function",
			Name: "count",
			Parameters: &tools.Schema{
				Type:     "object",
				Required: []string{"limit"},
				Properties: map[string]*tools.Schema{
					"limit": {Type: []string{"integer", "null"}},
				},
			},
		},
	}
	out := Render(descs)
	require.Contains(t, out, "def count(limit: Optional[int] = None) -> Any:")
}

func TestRenderRequiredParamWithExplicitDefault(t *testing.T) {
	descs := []tools.Descriptor{
		{
			Type: "function",
			Name: "f",
			Parameters: &tools.Schema{
				Type:     "object",
				Required: []string{"x"},
				Properties: map[string]*tools.Schema{
					"x": {Type: "string", Default: "abc"},
				},
			},
		},
	}
	out := Render(descs)
	require.Contains(t, out, `def f(x: str = "abc") -> Any:`)
}

func TestRenderRequiredBeforeOptional(t *testing.T) {
	descs := []tools.Descriptor{
		{
			Type: "function",
			Name: "mix",
			Parameters: &tools.Schema{
				Type:     "object",
				Required: []string{"b"},
				Properties: map[string]*tools.Schema{
					"a": {Type: "string"},
					"b": {Type: "string"},
				},
			},
		},
	}
	out := Render(descs)
	sig := out[strings.Index(out, "def mix(") : strings.Index(out, ") -> Any:")+1]
	require.True(t, strings.Index(sig, "b:") < strings.Index(sig, "a:"))
}

func TestCacheMemoizes(t *testing.T) {
	c, err := NewCache(4)
	require.NoError(t, err)

	descs := []tools.Descriptor{{Type: "function", Name: "ping"}}
	first := c.Render(descs)
	second := c.Render(descs)
	require.Equal(t, first, second)
	require.Contains(t, first, "def ping()")
}
