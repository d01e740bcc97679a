package extraction

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// parsePageJSON turns a raw provider response into validated PageFields.
// Providers return free text that usually contains a JSON object, sometimes
// wrapped in markdown fences or surrounded by commentary.
func parsePageJSON(text string) (*PageFields, error) {
	raw, err := isolateJSONObject(text)
	if err != nil {
		return nil, err
	}

	if err := validatePagePayload([]byte(raw)); err != nil {
		return nil, err
	}

	var payload struct {
		BillItems []struct {
			ItemName     any `json:"item_name"`
			ItemAmount   any `json:"item_amount"`
			ItemRate     any `json:"item_rate"`
			ItemQuantity any `json:"item_quantity"`
		} `json:"bill_items"`
		SubTotal        any    `json:"sub_total"`
		ActualBillTotal any    `json:"actual_bill_total"`
		ExtractionNotes string `json:"extraction_notes"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("unmarshaling page payload: %w", err)
	}

	fields := &PageFields{
		Items:      make([]ItemFields, 0, len(payload.BillItems)),
		Subtotal:   parseOptionalDecimal(payload.SubTotal),
		GrandTotal: parseOptionalDecimal(payload.ActualBillTotal),
		Notes:      strings.TrimSpace(payload.ExtractionNotes),
	}

	for _, item := range payload.BillItems {
		name := "Unknown"
		if s, ok := item.ItemName.(string); ok && strings.TrimSpace(s) != "" {
			name = strings.TrimSpace(s)
		}
		fields.Items = append(fields.Items, ItemFields{
			Name:     name,
			Amount:   parseDecimal(item.ItemAmount),
			Rate:     parseOptionalDecimal(item.ItemRate),
			Quantity: parseOptionalDecimal(item.ItemQuantity),
		})
	}

	return fields, nil
}

// isolateJSONObject strips markdown fences and commentary, returning the
// outermost {...} in the text.
func isolateJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return "", fmt.Errorf("no JSON object found in response")
	}
	end := strings.LastIndex(text, "}")
	if end == -1 || end < start {
		return "", fmt.Errorf("invalid JSON object in response")
	}

	return text[start : end+1], nil
}

// parseDecimal handles flexible amount parsing from duck-typed JSON values.
// Supports numbers, strings, and strings with thousands separators
// (e.g. "3,965.34"). Anything unparsable becomes zero.
func parseDecimal(v any) decimal.Decimal {
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val)
	case json.Number:
		d, err := decimal.NewFromString(string(val))
		if err != nil {
			return decimal.Zero
		}
		return d
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(val), ",", "")
		if cleaned == "" {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// parseOptionalDecimal maps null/absent values to nil instead of zero, so
// "no subtotal printed" is distinguishable from "subtotal of zero".
func parseOptionalDecimal(v any) *decimal.Decimal {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil
	}
	d := parseDecimal(v)
	return &d
}
