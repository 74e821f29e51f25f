package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildJSONSchema returns a JSON-Schema (draft 2020-12 subset) for d as a
// generic map. The same map is serialized into the model prompt and used
// locally to validate merged records. Optional fields accept null.
func BuildJSONSchema(d *Descriptor) map[string]any {
	out := objectSchema(d.Fields, false)
	out["$schema"] = "https://json-schema.org/draft/2020-12/schema"
	out["title"] = d.Name
	if d.Description != "" {
		out["description"] = d.Description
	}
	return out
}

func fieldSchema(f Field) map[string]any {
	var out map[string]any
	switch f.Kind {
	case KindObject:
		out = objectSchema(f.Fields, f.Optional())
	case KindList:
		out = map[string]any{
			"type":  nullable("array", f.Optional()),
			"items": fieldSchema(itemField(f)),
		}
	default:
		out = map[string]any{"type": nullable(string(f.Type), f.Optional())}
	}
	if f.Description != "" {
		out["description"] = f.Description
	}
	return out
}

func objectSchema(fields []Field, optional bool) map[string]any {
	props := make(map[string]any, len(fields))
	required := make([]string, 0)
	for _, f := range fields {
		props[f.Name] = fieldSchema(f)
		if f.Required {
			required = append(required, f.Name)
		}
	}
	out := map[string]any{
		"type":                 nullable("object", optional),
		"additionalProperties": false,
		"properties":           props,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

// itemField is the element descriptor of a list; list items are never null.
func itemField(f Field) Field {
	item := *f.Items
	item.Required = true
	return item
}

func nullable(typ string, optional bool) any {
	if optional {
		return []string{typ, "null"}
	}
	return typ
}

// PromptJSON renders the JSON Schema for d, indented for use in prompts.
func PromptJSON(d *Descriptor) string {
	b, _ := json.MarshalIndent(BuildJSONSchema(d), "", "  ")
	return string(b)
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
