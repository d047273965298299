package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// StripMarkdownFence removes a surrounding ```json / ``` code fence when the
// model wrapped its response in one; unfenced payloads pass through
// untouched.
func StripMarkdownFence(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") && strings.HasSuffix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
		return strings.TrimSpace(text)
	}
	if strings.HasPrefix(text, "```") && strings.HasSuffix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		return strings.TrimSpace(text)
	}
	return text
}

var (
	numericFields = []string{"total", "subtotal", "tax"}
	stringFields  = []string{"issuer_name", "ruc", "dv", "address", "invoice_number", "date"}
	allowedKeys   = map[string]struct{}{
		"issuer_name": {}, "ruc": {}, "dv": {}, "address": {},
		"invoice_number": {}, "date": {}, "total": {}, "subtotal": {},
		"tax": {}, "products": {},
	}
)

// NormalizeResponse cleans a model's JSON before schema validation:
//   - drops nulls and unknown keys (additionalProperties-false friendliness)
//   - coerces numeric strings ("25.50") to numbers for money fields
//   - trims strings, dropping the ones that end up empty
//
// Returns the cleaned JSON plus the list of keys that were touched.
func NormalizeResponse(raw []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var touched []string

	for _, k := range stringFields {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case nil:
			delete(m, k)
			touched = append(touched, k+"(null)")
		case string:
			s := strings.TrimSpace(t)
			if s == "" || strings.EqualFold(s, "null") {
				delete(m, k)
				touched = append(touched, k+"(empty)")
			} else {
				m[k] = s
			}
		default:
			delete(m, k)
			touched = append(touched, k+"(type)")
		}
	}

	for _, k := range numericFields {
		if coerceNumber(m, k) {
			touched = append(touched, k)
		}
	}

	if v, ok := m["products"]; ok {
		if items, ok := v.([]any); ok {
			for _, item := range items {
				p, ok := item.(map[string]any)
				if !ok {
					continue
				}
				for _, k := range []string{"quantity", "unit_price", "total_price"} {
					if coerceNumber(p, k) {
						touched = append(touched, "products."+k)
					}
				}
			}
		} else {
			delete(m, "products")
			touched = append(touched, "products(type)")
		}
	}

	for k := range m {
		if _, ok := allowedKeys[k]; !ok {
			delete(m, k)
			touched = append(touched, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, touched, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, touched, nil
}

// coerceNumber converts a string number to a float in place and drops values
// that cannot be read as numbers. Reports whether the key was changed.
func coerceNumber(m map[string]any, k string) bool {
	v, ok := m[k]
	if !ok {
		return false
	}
	switch t := v.(type) {
	case float64:
		return false
	case nil:
		delete(m, k)
		return true
	case string:
		s := strings.TrimSpace(strings.TrimPrefix(t, "$"))
		s = strings.ReplaceAll(s, ",", "")
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			m[k] = f
		} else {
			delete(m, k)
		}
		return true
	default:
		delete(m, k)
		return true
	}
}
