package models

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/openai/openai-go/v3"
)

// schemaToParameters converts a tool's jsonschema.Schema into the
// OpenAI function parameters format.
func schemaToParameters(schema *jsonschema.Schema) openai.FunctionParameters {
	if schema == nil {
		return nil
	}

	result := make(map[string]any)

	if schema.Type != "" {
		result["type"] = schema.Type
	} else {
		result["type"] = "object"
	}

	if len(schema.Properties) > 0 {
		properties := make(map[string]any)
		for name, propSchema := range schema.Properties {
			if propSchema != nil {
				properties[name] = convertProperty(propSchema)
			}
		}
		if len(properties) > 0 {
			result["properties"] = properties
		}
	}

	if len(schema.Required) > 0 {
		result["required"] = schema.Required
	} else {
		result["required"] = []string{}
	}

	return openai.FunctionParameters(result)
}

func convertProperty(schema *jsonschema.Schema) map[string]any {
	if schema == nil {
		return nil
	}

	prop := make(map[string]any)

	if len(schema.Types) > 0 {
		prop["type"] = schema.Types[0]
	} else if schema.Type != "" {
		prop["type"] = schema.Type
	}

	if schema.Description != "" {
		prop["description"] = schema.Description
	}
	if schema.Format != "" {
		prop["format"] = schema.Format
	}
	if len(schema.Enum) > 0 {
		prop["enum"] = schema.Enum
	}
	if schema.Const != nil {
		prop["const"] = *schema.Const
	}

	if len(schema.Default) > 0 {
		var defaultVal any
		if err := json.Unmarshal(schema.Default, &defaultVal); err == nil {
			prop["default"] = defaultVal
		}
	}

	if schema.Minimum != nil {
		prop["minimum"] = *schema.Minimum
	}
	if schema.Maximum != nil {
		prop["maximum"] = *schema.Maximum
	}
	if schema.MinLength != nil {
		prop["minLength"] = *schema.MinLength
	}
	if schema.MaxLength != nil {
		prop["maxLength"] = *schema.MaxLength
	}
	if schema.Pattern != "" {
		prop["pattern"] = schema.Pattern
	}

	if schema.Items != nil {
		prop["items"] = convertProperty(schema.Items)
	}

	if len(schema.Properties) > 0 {
		properties := make(map[string]any)
		for name, propSchema := range schema.Properties {
			if propSchema != nil {
				properties[name] = convertProperty(propSchema)
			}
		}
		if len(properties) > 0 {
			prop["properties"] = properties
		}
	}

	if schema.AdditionalProperties != nil {
		prop["additionalProperties"] = convertProperty(schema.AdditionalProperties)
	}

	if len(schema.Required) > 0 {
		prop["required"] = schema.Required
	}

	return prop
}
