package aiflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func nullableString() map[string]any {
	return map[string]any{"type": []any{"string", "null"}}
}

func idDetailsSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"idNumber":    nullableString(),
			"name":        nullableString(),
			"dateOfBirth": nullableString(),
		},
	}
}

func fraudScanSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"fraudIndicators": map[string]any{"type": "string", "minLength": 1},
			"name":            nullableString(),
			"dateOfBirth":     nullableString(),
			"gender":          nullableString(),
			"address":         nullableString(),
			"aadhaarNumber":   nullableString(),
		},
		"required": []any{"fraudIndicators"},
	}
}

func faceMatchSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"isMatch":    map[string]any{"type": "boolean"},
			"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
			"reasoning":  map[string]any{"type": "string"},
		},
		"required": []any{"isMatch", "confidence", "reasoning"},
	}
}

func answerSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"answer": map[string]any{"type": "string", "minLength": 1},
		},
		"required": []any{"answer"},
	}
}

// ValidateAgainstSchema validates data against a schema expressed as a map.
func ValidateAgainstSchema(schemaMap map[string]any, data []byte) error {
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

// StripCodeFence unwraps a ```json ... ``` block that models sometimes emit
// despite being asked for bare JSON.
func StripCodeFence(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	rest, ok := strings.CutPrefix(s, "```")
	if !ok {
		return []byte(s)
	}
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	} else {
		rest = strings.TrimPrefix(rest, "json")
	}
	rest = strings.TrimSuffix(strings.TrimSpace(rest), "```")
	return []byte(strings.TrimSpace(rest))
}
