// Package tools defines the tool descriptor data model the stub generator
// and the facade consume: a JSON-Schema-flavored function signature that
// gets compiled into guest-importable source.
package tools

// Descriptor is the input to the stub generator: one user-declared function
// tool. Only descriptors with Type == "function" are compiled into the
// generated stub module; any other Type is passed through to the model
// untouched by the facade.
type Descriptor struct {
	Type        string  `json:"type"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// IsFunction reports whether d should be compiled into the guest stub
// module rather than passed through to the model as-is.
func (d Descriptor) IsFunction() bool {
	return d.Type == "function"
}

// Schema is a JSON-Schema-flavored property or parameter-object schema.
// Type may be a single string ("string", "integer", "number", "boolean",
// "array", "object") or a list including "null" to mark the value nullable.
type Schema struct {
	Type        any                `json:"type,omitempty"`
	Description string             `json:"description,omitempty"`
	Default     any                `json:"default,omitempty"`
	Enum        []any              `json:"enum,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// TypeNames normalizes Type into the list of JSON-Schema type names it
// names, handling both the single-string and the ["T","null"] forms.
func (s *Schema) TypeNames() []string {
	if s == nil || s.Type == nil {
		return nil
	}
	switch t := s.Type.(type) {
	case string:
		return []string{t}
	case []string:
		return t
	case []any:
		names := make([]string, 0, len(t))
		for _, v := range t {
			if str, ok := v.(string); ok {
				names = append(names, str)
			}
		}
		return names
	default:
		return nil
	}
}

// Nullable reports whether the schema's type list includes "null".
func (s *Schema) Nullable() bool {
	for _, t := range s.TypeNames() {
		if t == "null" {
			return true
		}
	}
	return false
}

// NonNullType returns the schema's single non-"null" type name, or "" if
// none is present (e.g. an enum-only or typeless schema).
func (s *Schema) NonNullType() string {
	for _, t := range s.TypeNames() {
		if t != "null" {
			return t
		}
	}
	return ""
}
