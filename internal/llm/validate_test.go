package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateExtraction_AcceptsPartialPayload(t *testing.T) {
	require.NoError(t, ValidateExtraction([]byte(`{"ruc":"155-1","total":25.5}`)))
	require.NoError(t, ValidateExtraction([]byte(`{}`)))
}

func TestValidateExtraction_AcceptsFullPayload(t *testing.T) {
	payload := `{
		"issuer_name": "Super 99",
		"ruc": "155-1",
		"dv": "66",
		"invoice_number": "A-01",
		"date": "2025-01-02",
		"total": 25.5,
		"products": [{"name": "arroz", "quantity": 1, "unit_price": 25.5, "total_price": 25.5}]
	}`
	require.NoError(t, ValidateExtraction([]byte(payload)))
}

func TestValidateExtraction_RejectsBadShapes(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{name: "total as string", payload: `{"total":"25.50"}`},
		{name: "unknown key", payload: `{"cashier":"Maria"}`},
		{name: "product without name", payload: `{"products":[{"total_price":5}]}`},
		{name: "not json", payload: `not json`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, ValidateExtraction([]byte(tc.payload)))
		})
	}
}
