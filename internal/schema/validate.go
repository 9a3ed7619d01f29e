package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const resourceName = "extract-schema.json"

// Compile compiles the schema into a validator, which also proves the
// generated document is well-formed JSON Schema.
func (s *Schema) Compile() (*jsonschema.Schema, error) {
	if s == nil {
		return nil, eris.New("schema: compile nil schema")
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, eris.Wrap(err, "schema: marshal")
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resourceName, bytes.NewReader(raw)); err != nil {
		return nil, eris.Wrap(err, "schema: load resource")
	}
	compiled, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, eris.Wrap(err, "schema: compile")
	}
	return compiled, nil
}

// CheckData validates an extraction result against the schema. An array
// result is checked element by element, since the service may return one
// record per match. Empty data passes.
func (s *Schema) CheckData(data json.RawMessage) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	compiled, err := s.Compile()
	if err != nil {
		return err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return eris.Wrap(err, "schema: decode data")
	}

	if items, ok := doc.([]any); ok {
		for i, item := range items {
			if err := compiled.Validate(item); err != nil {
				return eris.Wrap(err, fmt.Sprintf("schema: record %d does not match", i))
			}
		}
		return nil
	}
	if err := compiled.Validate(doc); err != nil {
		return eris.Wrap(err, "schema: data does not match")
	}
	return nil
}
