package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripMarkdownFence(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"json fence", "```json\n{\"total\": 5}\n```", `{"total": 5}`},
		{"bare fence", "```\n{\"total\": 5}\n```", `{"total": 5}`},
		{"no fence", `{"total": 5}`, `{"total": 5}`},
		{"surrounding whitespace", "  \n```json\n{}\n```  ", "{}"},
		{"opening fence only", "```json\n{}", "```json\n{}"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripMarkdownFence(tc.in))
		})
	}
}

func TestNormalizeResponse_CoercesAndDrops(t *testing.T) {
	in := []byte(`{
		"issuer_name": "  Super 99  ",
		"ruc": null,
		"dv": "",
		"invoice_number": "001-002",
		"total": "25.50",
		"tax": "$1,234.56",
		"confidence": 0.9,
		"products": [{"name": "Arroz", "quantity": "2", "unit_price": 1.25, "total_price": "2.50"}]
	}`)

	out, touched, err := NormalizeResponse(in)
	require.NoError(t, err)
	assert.NotEmpty(t, touched)

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))

	assert.Equal(t, "Super 99", m["issuer_name"])
	assert.NotContains(t, m, "ruc")
	assert.NotContains(t, m, "dv")
	assert.NotContains(t, m, "confidence")
	assert.Equal(t, 25.50, m["total"])
	assert.Equal(t, 1234.56, m["tax"])

	products := m["products"].([]any)
	p := products[0].(map[string]any)
	assert.Equal(t, 2.0, p["quantity"])
	assert.Equal(t, 2.5, p["total_price"])
}

func TestNormalizeResponse_InvalidJSON(t *testing.T) {
	_, _, err := NormalizeResponse([]byte("not json"))
	assert.Error(t, err)
}

func TestNormalizeResponse_ValidatesAgainstSchema(t *testing.T) {
	in := []byte(`{"issuer_name": "Super 99", "total": "10", "products": [{"name": "x", "quantity": 1}]}`)
	out, _, err := NormalizeResponse(in)
	require.NoError(t, err)
	require.NoError(t, ValidateExtraction(out))
}
