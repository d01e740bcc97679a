package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// buildPageJSONSchema returns the JSON Schema the raw provider payload must
// satisfy before it is coerced into PageFields. Amounts are accepted as
// numbers or strings; models are inconsistent about quoting and about
// thousands separators, and coercion handles both after validation.
func buildPageJSONSchema() map[string]any {
	amount := map[string]any{"type": []string{"number", "string", "null"}}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"bill_items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"item_name":     map[string]any{"type": []string{"string", "null"}},
						"item_amount":   map[string]any{"type": []string{"number", "string"}},
						"item_rate":     amount,
						"item_quantity": amount,
					},
					"required": []string{"item_amount"},
				},
			},
			"sub_total":         amount,
			"actual_bill_total": amount,
			"extraction_notes":  map[string]any{"type": []string{"string", "null"}},
		},
		"required": []string{"bill_items"},
	}
}

// validatePagePayload validates raw JSON against the page schema.
func validatePagePayload(data []byte) error {
	b, err := json.Marshal(buildPageJSONSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("page.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("page.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("payload does not match schema: %w", err)
	}
	return nil
}
