package models

import (
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
)

func TestSchemaToParameters(t *testing.T) {
	schema := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"money": {
				Type:                 "object",
				Description:          "Currency mapping.",
				AdditionalProperties: &jsonschema.Schema{Type: "integer"},
			},
			"items": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"item": {Type: "string"},
						"qty":  {Type: "integer"},
					},
					Required: []string{"item", "qty"},
				},
			},
		},
		Required: []string{"money"},
	}

	params := schemaToParameters(schema)

	if params["type"] != "object" {
		t.Fatalf("expected object type, got %v", params["type"])
	}
	props, ok := params["properties"].(map[string]any)
	if !ok {
		t.Fatalf("expected properties mapping, got %T", params["properties"])
	}

	money, ok := props["money"].(map[string]any)
	if !ok {
		t.Fatalf("expected money property, got %T", props["money"])
	}
	addl, ok := money["additionalProperties"].(map[string]any)
	if !ok || addl["type"] != "integer" {
		t.Fatalf("additionalProperties not converted: %v", money["additionalProperties"])
	}

	items, ok := props["items"].(map[string]any)
	if !ok {
		t.Fatalf("expected items property, got %T", props["items"])
	}
	inner, ok := items["items"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested item schema, got %T", items["items"])
	}
	required, ok := inner["required"].([]string)
	if !ok || len(required) != 2 {
		t.Fatalf("nested required not preserved: %v", inner["required"])
	}
}

func TestSchemaToParametersNilAndEmptyRequired(t *testing.T) {
	if schemaToParameters(nil) != nil {
		t.Fatalf("nil schema should yield nil parameters")
	}

	params := schemaToParameters(&jsonschema.Schema{Type: "object"})
	required, ok := params["required"].([]string)
	if !ok || len(required) != 0 {
		t.Fatalf("expected explicit empty required list, got %v", params["required"])
	}
}
