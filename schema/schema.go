// Package schema provides JSON Schema building, reflection and validation for tool arguments.
//
// # Quick Start
//
//	// Reflect a schema from a Go struct
//	type readInput struct {
//	    Path  string `json:"path" jsonschema:"description=File to read"`
//	    Limit int    `json:"limit,omitempty" jsonschema:"minimum=1"`
//	}
//	raw := schema.Reflect[readInput]()
//
//	// Or build one by hand
//	raw = schema.Object(map[string]*schema.Property{
//	    "path":  schema.String("File to read"),
//	    "limit": schema.Integer("Max lines").Min(1),
//	}, "path")
//
//	compiled, err := schema.Compile(raw)
//	err = compiled.Validate(args)
//
// The toolchain registry compiles every registered tool's schema and validates arguments
// before the tool runs.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is a raw schema map paired with its compiled validator.
type Schema struct {
	raw      map[string]any
	compiled *jsonschema.Schema
}

// Raw returns the underlying map representation sent to models.
func (s *Schema) Raw() map[string]any {
	if s == nil {
		return nil
	}
	return s.raw
}

// Validate validates args against the schema. A nil Schema accepts everything.
//
// Args are normalized through JSON first, so Go numeric types and JSON-decoded float64 values
// validate identically.
func (s *Schema) Validate(args map[string]any) error {
	if s == nil || s.compiled == nil {
		return nil
	}
	if args == nil {
		args = map[string]any{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return &ValidationError{Err: err}
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return &ValidationError{Err: err}
	}
	if err := s.compiled.Validate(doc); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// ValidationError wraps a JSON Schema validation error with a cleaner message.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schema validation failed: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Compile compiles a raw schema map. A nil map compiles to a nil Schema.
func Compile(raw map[string]any) (*Schema, error) {
	if raw == nil {
		return nil, nil
	}

	schemaJSON, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	schemaData, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", schemaData); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	compiled, err := c.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Schema{raw: raw, compiled: compiled}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(raw map[string]any) *Schema {
	s, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// Reflect generates an inline object schema for T from its `json` and `jsonschema` struct tags.
// Fields without `omitempty` are required; unknown properties are rejected.
func Reflect[T any]() map[string]any {
	var zero T
	// Unnamed types (struct{}, inline structs) have no definition to expand.
	named := reflect.TypeFor[T]().Name() != ""
	r := &invopop.Reflector{
		DoNotReference: true,
		ExpandedStruct: named,
	}
	s := r.Reflect(&zero)
	if s == nil {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}

	data, err := json.Marshal(s)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return map[string]any{"type": "object"}
	}
	delete(raw, "$schema")
	delete(raw, "$id")
	if _, ok := raw["properties"]; !ok {
		raw["properties"] = map[string]any{}
	}
	return raw
}
