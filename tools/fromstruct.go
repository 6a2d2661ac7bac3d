package tools

import (
	"encoding/json"
	"fmt"

	gojsonschema "github.com/google/jsonschema-go/jsonschema"
)

// FromStruct derives a function tool's parameter schema from a Go struct
// via reflection, using google/jsonschema-go's reflector.
//
//	weatherArgs, _ := tools.FromStruct[struct {
//	        City string `json:"city"`
//	}]("get_weather", "Look up the current weather for a city.")
func FromStruct[T any](name, description string) (Descriptor, error) {
	var zero T
	reflected, err := gojsonschema.For[T](nil)
	if err != nil {
		return Descriptor{}, fmt.Errorf("tools: derive schema for %q from %T: %w", name, zero, err)
	}

	raw, err := json.Marshal(reflected)
	if err != nil {
		return Descriptor{}, fmt.Errorf("tools: encode derived schema for %q: %w", name, err)
	}
	var s Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return Descriptor{}, fmt.Errorf("tools: decode derived schema for %q: %w", name, err)
	}

	return Descriptor{
		Type:        "function",
		Name:        name,
		Description: description,
		Parameters:  &s,
	}, nil
}
