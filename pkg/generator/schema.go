package generator

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ToolName is the single function the model must call (spec §6).
const ToolName = "generate_component_metadata"

var exampleSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title":       map[string]any{"type": "string"},
		"code":        map[string]any{"type": "string"},
		"description": map[string]any{"type": "string"},
	},
	"required": []string{"title", "code"},
}

// toolSchemaMap builds the fixed JSON-schema parameter shape for
// ToolName, following the same map[string]any construction style as
// cagent's tools.ToOutputSchemaSchema.
func toolSchemaMap(minDescLen, maxDescLen int) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": map[string]any{
				"type":      "string",
				"minLength": minDescLen,
				"maxLength": maxDescLen,
			},
			"guidance": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"whenToUse":    map[string]any{"type": "string", "minLength": 20},
					"whenNotToUse": map[string]any{"type": "string", "minLength": 10},
					"accessibility": map[string]any{"type": "string"},
					"patterns": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string", "enum": AllowedPatterns},
					},
					"relatedComponents": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
				},
				"required": []string{"whenToUse", "whenNotToUse", "accessibility"},
			},
			"examples": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"minimal":  exampleSchema,
					"common":   map[string]any{"type": "array", "items": exampleSchema},
					"advanced": map[string]any{"type": "array", "items": exampleSchema},
				},
			},
			"variantDescriptions": map[string]any{
				"type": "object",
			},
			"subComponentVariantDescriptions": map[string]any{
				"type": "object",
			},
		},
		"required": []string{"description", "guidance"},
	}
}

// schemaValidator wraps a compiled gojsonschema.Schema, the same
// validate-at-the-boundary pattern cagent's own config package uses
// against cagent-schema.json.
type schemaValidator struct {
	schema *gojsonschema.Schema
}

func newSchemaValidator(minDescLen, maxDescLen int) (*schemaValidator, error) {
	raw, err := json.Marshal(toolSchemaMap(minDescLen, maxDescLen))
	if err != nil {
		return nil, fmt.Errorf("generator: marshal schema: %w", err)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("generator: compile schema: %w", err)
	}
	return &schemaValidator{schema: schema}, nil
}

func (v *schemaValidator) Validate(argumentsJSON []byte) (*gojsonschema.Result, error) {
	var doc any
	if err := json.Unmarshal(argumentsJSON, &doc); err != nil {
		return nil, fmt.Errorf("generator: unmarshal tool output: %w", err)
	}
	return v.schema.Validate(gojsonschema.NewRawLoader(doc))
}
