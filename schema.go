package axon

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/zoobzio/sentinel"
)

// schemaFor renders a JSON Schema for struct type T.
// Non-struct types have no schema and yield "".
func schemaFor[T any]() string {
	if reflect.TypeFor[T]().Kind() != reflect.Struct {
		return ""
	}

	return buildSchema(sentinel.Inspect[T]().Fields)
}

// buildSchema renders an object schema for fields. Fields tagged json:"-"
// are skipped and fields without omitempty are required.
func buildSchema(fields []sentinel.FieldMetadata) string {
	properties := make(map[string]any)
	required := make([]string, 0, len(fields))
	for _, field := range fields {
		name, omitempty := jsonFieldName(field)
		if name == "-" {
			continue
		}

		prop := map[string]any{"type": jsonType(field.Type)}
		if desc, ok := field.Tags["desc"]; ok {
			prop["description"] = desc
		}
		properties[name] = prop

		if !omitempty {
			required = append(required, name)
		}
	}

	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return ""
	}
	return string(out)
}

// jsonFieldName returns the encoded name of a field and whether it is
// tagged omitempty. Untagged fields keep their Go name, as encoding/json does.
func jsonFieldName(field sentinel.FieldMetadata) (string, bool) {
	tag, ok := field.Tags["json"]
	if !ok || tag == "" {
		return field.Name, false
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = field.Name
	}
	return name, strings.Contains(opts, "omitempty")
}

// jsonType maps a Go type name to a JSON Schema type.
func jsonType(goType string) string {
	goType = strings.TrimLeft(goType, "*")
	switch {
	case goType == "string":
		return "string"
	case goType == "bool":
		return "boolean"
	case strings.HasPrefix(goType, "int"), strings.HasPrefix(goType, "uint"):
		return "integer"
	case strings.HasPrefix(goType, "float"):
		return "number"
	case strings.HasPrefix(goType, "[]"):
		return "array"
	default:
		return "object"
	}
}
