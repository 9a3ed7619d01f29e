package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// FieldType is the primitive kind of a schema field.
type FieldType string

// Supported field types. The string values are what the schema builder form
// submits.
const (
	FieldString FieldType = "str"
	FieldBool   FieldType = "bool"
	FieldInt    FieldType = "int"
	FieldFloat  FieldType = "float"
)

// FieldTypes lists the supported types in display order.
var FieldTypes = []FieldType{FieldString, FieldBool, FieldInt, FieldFloat}

// Schema field row limits.
const (
	MinSchemaFields = 1
	MaxSchemaFields = 10
)

// ErrUnknownFieldType is returned for a type string outside FieldTypes.
var ErrUnknownFieldType = eris.New("unknown field type")

// ParseFieldType maps a type name to a FieldType. Long JSON-Schema-style
// names ("string", "boolean", "integer", "number") are accepted as aliases.
func ParseFieldType(s string) (FieldType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "str", "string":
		return FieldString, nil
	case "bool", "boolean":
		return FieldBool, nil
	case "int", "integer":
		return FieldInt, nil
	case "float", "number":
		return FieldFloat, nil
	}
	return "", eris.Wrapf(ErrUnknownFieldType, "%q", s)
}

// JSONType returns the JSON Schema primitive type for the field type.
func (t FieldType) JSONType() (string, error) {
	switch t {
	case FieldString:
		return "string", nil
	case FieldBool:
		return "boolean", nil
	case FieldInt:
		return "integer", nil
	case FieldFloat:
		return "number", nil
	}
	return "", eris.Wrapf(ErrUnknownFieldType, "%q", string(t))
}

// SchemaField is one user-defined output column.
type SchemaField struct {
	Name string    `json:"name" yaml:"name"`
	Type FieldType `json:"type" yaml:"type"`
}

// BlankField returns the default empty row of the schema builder.
func BlankField() SchemaField {
	return SchemaField{Type: FieldString}
}

// ParseFieldSpec parses a "name:type" pair. A missing type defaults to str.
func ParseFieldSpec(spec string) (SchemaField, error) {
	name, typ, found := strings.Cut(spec, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return SchemaField{}, eris.Errorf("field spec %q has no name", spec)
	}
	if !found {
		return SchemaField{Name: name, Type: FieldString}, nil
	}
	ft, err := ParseFieldType(typ)
	if err != nil {
		return SchemaField{}, err
	}
	return SchemaField{Name: name, Type: ft}, nil
}
