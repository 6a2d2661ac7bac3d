package tools

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/modfin/tooliscode/internal/wasierr"
)

// Validate checks that d's Parameters schema is structurally valid JSON
// Schema, compiling it against the draft meta-schema. It does not reject
// "weird but legal" schemas (unknown property types, missing descriptions,
// etc.) — the stub generator handles those by falling back to Any per
// spec; this only catches documents that aren't JSON Schema at all.
func Validate(d Descriptor) error {
	if !d.IsFunction() || d.Parameters == nil {
		return nil
	}
	raw, err := json.Marshal(d.Parameters)
	if err != nil {
		return fmt.Errorf("%w: tool %q: encode parameters: %v", wasierr.ConfigError, d.Name, err)
	}
	c := jsonschema.NewCompiler()
	resource := fmt.Sprintf("tool://%s/parameters.json", d.Name)
	if err := c.AddResource(resource, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("%w: tool %q: %v", wasierr.ConfigError, d.Name, err)
	}
	if _, err := c.Compile(resource); err != nil {
		return fmt.Errorf("%w: tool %q: invalid parameter schema: %v", wasierr.ConfigError, d.Name, err)
	}
	return nil
}

// ValidateAll validates every function descriptor in tools, returning the
// first error encountered.
func ValidateAll(descs []Descriptor) error {
	for _, d := range descs {
		if err := Validate(d); err != nil {
			return err
		}
	}
	return nil
}
