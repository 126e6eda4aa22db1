package backend

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// buildRecipeJSONSchema LLM 輸出的 JSON Schema（draft 2020-12 子集）
// 同一份 schema 放進 prompt 的約束，也在本地驗證模型回應
func buildRecipeJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"title":        map[string]any{"type": "string", "minLength": 1},
			"description":  map[string]any{"type": "string"},
			"ingredients":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"instructions": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"prep_time":    map[string]any{"type": "integer", "minimum": 0},
			"cook_time":    map[string]any{"type": "integer", "minimum": 0},
			"servings":     map[string]any{"type": "integer", "minimum": 1},
			"confidence":   map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		},
		"required": []string{"title", "ingredients", "instructions"},
	}
}

// validateAgainstSchema 用 jsonschema 驗證模型輸出
func validateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("recipe.schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("recipe.schema.json")
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
