// Package stub renders a list of tool descriptors into a Python source
// module the WASI guest can import: one callable per descriptor, each of
// which packages its arguments under their original wire names and
// delegates to the guest's tool_call helper.
//
// Render is a pure function — it never errors and never shares state
// across calls, per spec (a malformed schema degrades to an Any-typed
// parameter rather than failing the render).
package stub

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/modfin/tooliscode/tools"
)

var nonWordRun = regexp.MustCompile(`\W+`)

// param is one normalized, ordered function parameter.
type param struct {
	identifier   string // valid Python identifier used in the signature/body
	wireName     string // original JSON-Schema property name
	annotation   string
	defaultExpr  string // "" means no default (required, no explicit default)
	description  string
	required     bool
}

// Render translates descs into the generated stub module source. Only
// descriptors with Type == "function" are considered; empty input (or an
// input with no function descriptors) renders to the empty string.
func Render(descs []tools.Descriptor) string {
	var fns []tools.Descriptor
	for _, d := range descs {
		if d.IsFunction() {
			fns = append(fns, d)
		}
	}
	if len(fns) == 0 {
		return ""
	}

	var body strings.Builder
	for i, d := range fns {
		if i > 0 {
			body.WriteString("\n\n")
		}
		renderFunction(&body, d)
	}

	var out strings.Builder
	out.WriteString(preamble)
	out.WriteString(body.String())
	out.WriteString("\n")
	return out.String()
}

const preamble = `"""Generated tool stubs. Do not edit by hand."""

from __future__ import annotations

import os
import sys
from typing import Any, Dict, List, Literal, Optional

sys.path.append(os.path.dirname(__file__))

from guest_helpers import tool_call

`

func renderFunction(w *strings.Builder, d tools.Descriptor) {
	fnName := toIdentifier(d.Name)
	params := parseParameters(d.Parameters)

	fmt.Fprintf(w, "def %s(%s) -> Any:\n", fnName, signature(params))
	writeDocstring(w, d.Description, params)
	writeBody(w, d.Name, params)
}

func signature(params []param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		if p.defaultExpr == "" {
			parts = append(parts, fmt.Sprintf("%s: %s", p.identifier, p.annotation))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s = %s", p.identifier, p.annotation, p.defaultExpr))
		}
	}
	return strings.Join(parts, ", ")
}

func writeDocstring(w *strings.Builder, description string, params []param) {
	var lines []string
	if description != "" {
		lines = append(lines, description)
	}
	var argLines []string
	for _, p := range params {
		desc := p.description
		if desc == "" {
			desc = "No description provided."
		}
		if p.identifier != p.wireName {
			desc = fmt.Sprintf("%s (wire name: %s)", desc, p.wireName)
		}
		argLines = append(argLines, fmt.Sprintf("%s: %s", p.identifier, desc))
	}
	if len(argLines) > 0 {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, "Args:")
		for _, a := range argLines {
			lines = append(lines, "    "+a)
		}
	}
	if len(lines) == 0 {
		return
	}
	if len(lines) == 1 {
		fmt.Fprintf(w, "    \"\"\"%s\"\"\"\n", escapeDocstring(lines[0]))
		return
	}
	w.WriteString("    \"\"\"\n")
	for _, l := range lines {
		w.WriteString("    " + escapeDocstring(l) + "\n")
	}
	w.WriteString("    \"\"\"\n")
}

func escapeDocstring(s string) string {
	return strings.ReplaceAll(s, `"""`, `\"\"\"`)
}

func writeBody(w *strings.Builder, wireToolName string, params []param) {
	if len(params) == 0 {
		w.WriteString("    args: Dict[str, Any] = {}\n")
	} else {
		w.WriteString("    args: Dict[str, Any] = {\n")
		for _, p := range params {
			fmt.Fprintf(w, "        %s: %s,\n", pyRepr(p.wireName), p.identifier)
		}
		w.WriteString("    }\n")
	}
	fmt.Fprintf(w, "    return tool_call(%s, args)\n", pyRepr(wireToolName))
}

// parseParameters orders parameters required-first (in the schema's
// Required order), then the remaining optional parameters in lexical order
// of their wire names, deduplicated. The declaration order of the optional
// parameters is not kept: Properties is a map and does not record it.
func parseParameters(schema *tools.Schema) []param {
	if schema == nil {
		return nil
	}
	required := map[string]bool{}
	for _, r := range schema.Required {
		required[r] = true
	}

	// properties is a map; declaration order isn't observable through Go's
	// map, so we fall back to a stable lexical order for the optional tail
	// while keeping required parameters in the schema's Required order —
	// this is the only information the Go type actually preserves.
	var names []string
	seen := map[string]bool{}
	for _, r := range schema.Required {
		if !seen[r] {
			names = append(names, r)
			seen[r] = true
		}
	}
	var optionalNames []string
	for name := range schema.Properties {
		if !seen[name] {
			optionalNames = append(optionalNames, name)
		}
	}
	sort.Strings(optionalNames)
	names = append(names, optionalNames...)

	seenIdent := map[string]bool{}
	params := make([]param, 0, len(names))
	for _, name := range names {
		prop := schema.Properties[name]
		if prop == nil {
			prop = &tools.Schema{}
		}
		p := buildParam(name, prop, required[name])
		if seenIdent[p.identifier] {
			continue
		}
		seenIdent[p.identifier] = true
		params = append(params, p)
	}

	return params
}

func buildParam(wireName string, schema *tools.Schema, required bool) param {
	identifier := toIdentifier(wireName)
	annotation := annotationFromSchema(schema)
	nullable := schema.Nullable()
	optional := !required || nullable

	if optional && !strings.HasPrefix(annotation, "Optional[") {
		annotation = "Optional[" + annotation + "]"
	}

	var defaultExpr string
	switch {
	case schema.Default != nil:
		defaultExpr = pyRepr(schema.Default)
	case required && !nullable:
		defaultExpr = ""
	default:
		defaultExpr = "None"
	}

	return param{
		identifier:  identifier,
		wireName:    wireName,
		annotation:  annotation,
		defaultExpr: defaultExpr,
		description: schema.Description,
		required:    required && !nullable,
	}
}

func annotationFromSchema(schema *tools.Schema) string {
	if schema == nil {
		return "Any"
	}
	if len(schema.Enum) > 0 {
		vals := make([]string, len(schema.Enum))
		for i, v := range schema.Enum {
			vals[i] = pyRepr(v)
		}
		return "Literal[" + strings.Join(vals, ", ") + "]"
	}

	t := schema.NonNullType()
	switch t {
	case "string":
		return "str"
	case "integer":
		return "int"
	case "number":
		return "float"
	case "boolean":
		return "bool"
	case "array":
		inner := annotationFromSchema(schema.Items)
		return "List[" + inner + "]"
	case "object":
		return "Dict[str, Any]"
	default:
		return "Any"
	}
}

// toIdentifier derives a valid, conflict-free Python identifier from an
// arbitrary wire name: non-word runs become "_", the result is lowercased,
// a leading digit gets a "tool_" prefix, and a Python keyword gets a
// trailing "_".
func toIdentifier(name string) string {
	id := nonWordRun.ReplaceAllString(name, "_")
	id = strings.Trim(id, "_")
	id = strings.ToLower(id)
	if id == "" {
		id = "tool"
	}
	if id[0] >= '0' && id[0] <= '9' {
		id = "tool_" + id
	}
	if pythonKeywords[id] {
		id += "_"
	}
	return id
}

var pythonKeywords = func() map[string]bool {
	m := make(map[string]bool, len(pythonKeywordList))
	for _, k := range pythonKeywordList {
		m[k] = true
	}
	return m
}()

var pythonKeywordList = []string{
	"False", "None", "True", "and", "as", "assert", "async", "await",
	"break", "class", "continue", "def", "del", "elif", "else", "except",
	"finally", "for", "from", "global", "if", "import", "in", "is",
	"lambda", "nonlocal", "not", "or", "pass", "raise", "return", "try",
	"while", "with", "yield",
}

// pyRepr renders a Go value as a Python literal, covering the JSON scalar
// and container types a tool-parameter default can carry.
func pyRepr(v any) string {
	switch val := v.(type) {
	case nil:
		return "None"
	case bool:
		if val {
			return "True"
		}
		return "False"
	case string:
		return strconv.Quote(val)
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	case int:
		return strconv.Itoa(val)
	case []any:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = pyRepr(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s: %s", strconv.Quote(k), pyRepr(val[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return strconv.Quote(fmt.Sprint(val))
	}
}
