package llm

// BuildExtractionJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. Nothing is required, since partial extractions are the point of
// the iterative flow, but every field that does appear must be well-typed.
func BuildExtractionJSONSchema() map[string]any {
	productProps := map[string]any{
		"name":        map[string]any{"type": "string"},
		"quantity":    map[string]any{"type": "number", "minimum": 0.0},
		"unit_price":  map[string]any{"type": "number", "minimum": 0.0},
		"total_price": map[string]any{"type": "number", "minimum": 0.0},
	}

	props := map[string]any{
		"issuer_name":    map[string]any{"type": "string"},
		"ruc":            map[string]any{"type": "string"},
		"dv":             map[string]any{"type": "string"},
		"address":        map[string]any{"type": "string"},
		"invoice_number": map[string]any{"type": "string"},
		"date":           map[string]any{"type": "string"},
		"total":          map[string]any{"type": "number"},
		"subtotal":       map[string]any{"type": "number"},
		"tax":            map[string]any{"type": "number"},
		"products": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties":           productProps,
				"required":             []string{"name"},
			},
		},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}
