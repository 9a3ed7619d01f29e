// Package schema turns schema-builder rows into the JSON Schema object sent
// with an extraction request.
package schema

import (
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/extract-chat/internal/model"
)

// DefaultTitle is the title of every generated schema.
const DefaultTitle = "ExtractSchema"

// Property describes one output column.
type Property struct {
	Title string `json:"title"`
	Type  string `json:"type"`
}

// Schema is a JSON Schema object describing a single extracted record.
type Schema struct {
	Title      string              `json:"title"`
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Build converts schema-builder rows into a Schema. It returns nil when no
// row has a non-empty name. Names are trimmed and NFC-normalized; a repeated
// name silently replaces the earlier row's type. An unknown type is an error.
func Build(fields []model.SchemaField) (*Schema, error) {
	s := &Schema{
		Title:      DefaultTitle,
		Type:       "object",
		Properties: make(map[string]Property),
	}
	for i, f := range fields {
		name := NormalizeName(f.Name)
		if name == "" {
			continue
		}
		jsType, err := f.Type.JSONType()
		if err != nil {
			return nil, eris.Wrapf(err, "schema: field %d (%s)", i+1, name)
		}
		if _, seen := s.Properties[name]; !seen {
			s.Required = append(s.Required, name)
		}
		s.Properties[name] = Property{Title: PropertyTitle(name), Type: jsType}
	}
	if len(s.Properties) == 0 {
		return nil, nil
	}
	return s, nil
}

// NormalizeName trims surrounding whitespace and applies Unicode NFC so that
// visually identical names collapse to the same property key.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// PropertyTitle renders a human-readable title for a property key
// ("item_price" -> "Item Price").
func PropertyTitle(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}

// Map returns the schema as a generic JSON object for request bodies.
func (s *Schema) Map() map[string]any {
	if s == nil {
		return nil
	}
	props := make(map[string]any, len(s.Properties))
	for k, p := range s.Properties {
		props[k] = map[string]any{"title": p.Title, "type": p.Type}
	}
	out := map[string]any{
		"title":      s.Title,
		"type":       s.Type,
		"properties": props,
	}
	if len(s.Required) > 0 {
		req := make([]any, len(s.Required))
		for i, r := range s.Required {
			req[i] = r
		}
		out["required"] = req
	}
	return out
}
