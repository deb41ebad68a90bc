// Package schema compiles and validates JSON Schema documents. It is the
// thin wrapper the structured-output handler and the default toolkit
// implementation use to validate payloads before they are accepted.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is a compiled JSON Schema ready for repeated validation.
type Schema struct {
	compiled *jsonschema.Schema
}

// Compile parses and compiles a JSON Schema document. The returned Schema is
// safe for concurrent use by multiple goroutines.
func Compile(schemaJSON []byte) (*Schema, error) {
	var doc any
	if err := json.Unmarshal(schemaJSON, &doc); err != nil {
		return nil, fmt.Errorf("schema: invalid schema document: %w", err)
	}
	c := jsonschema.NewCompiler()
	const resourceName = "schema.json"
	if err := c.AddResource(resourceName, doc); err != nil {
		return nil, fmt.Errorf("schema: add resource: %w", err)
	}
	compiled, err := c.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("schema: compile: %w", err)
	}
	return &Schema{compiled: compiled}, nil
}

// CompileMap compiles a JSON Schema already decoded into a Go value (e.g. a
// map[string]any built programmatically rather than parsed from bytes).
func CompileMap(schemaDoc map[string]any) (*Schema, error) {
	b, err := json.Marshal(schemaDoc)
	if err != nil {
		return nil, fmt.Errorf("schema: marshal schema document: %w", err)
	}
	return Compile(b)
}

// Validate checks value (typically a map[string]any decoded from JSON)
// against the compiled schema and returns a descriptive error on mismatch.
func (s *Schema) Validate(value any) error {
	if s == nil || s.compiled == nil {
		return nil
	}
	if err := s.compiled.Validate(value); err != nil {
		return fmt.Errorf("schema: validation failed: %w", err)
	}
	return nil
}
