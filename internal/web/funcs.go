package web

import (
	"html/template"
	"strings"

	"github.com/sells-group/extract-chat/internal/model"
)

var templateFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"typeLabel": func(t model.FieldType) string {
		switch t {
		case model.FieldBool:
			return "Boolean"
		case model.FieldInt:
			return "Integer"
		case model.FieldFloat:
			return "Number"
		default:
			return "Text"
		}
	},
	"join": strings.Join,
}
