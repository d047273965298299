package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumis-app/invoice-ocr/constants"
	"github.com/lumis-app/invoice-ocr/internal/entity"
)

func completeFields() entity.ExtractedFields {
	return entity.ExtractedFields{
		IssuerName:    "Super 99",
		IssuerRUC:     "155-1",
		IssuerDV:      "66",
		InvoiceNumber: "001-002-123456",
		Date:          "2025-01-02",
		Total:         25.50,
		Products: []entity.Product{
			{Name: "Arroz 5lb", Quantity: 1, UnitPrice: 4.25, TotalPrice: 4.25},
			{Name: "Pollo entero", Quantity: 2, UnitPrice: 10.60, TotalPrice: 21.25},
		},
	}
}

func TestMissing_EmptyRecord(t *testing.T) {
	missing := Missing(entity.ExtractedFields{})
	assert.Equal(t, constants.RequiredFields, missing)
}

func TestMissing_CompleteRecord(t *testing.T) {
	assert.Empty(t, Missing(completeFields()))
	assert.True(t, IsComplete(completeFields()))
}

func TestMissing_EmptyIffAllPredicatesHold(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*entity.ExtractedFields)
		want   constants.FieldKey
	}{
		{"blank ruc", func(f *entity.ExtractedFields) { f.IssuerRUC = "  " }, constants.FieldIssuerRUC},
		{"no dv", func(f *entity.ExtractedFields) { f.IssuerDV = "" }, constants.FieldIssuerDV},
		{"no number", func(f *entity.ExtractedFields) { f.InvoiceNumber = "" }, constants.FieldInvoiceNumber},
		{"zero total", func(f *entity.ExtractedFields) { f.Total = 0 }, constants.FieldTotal},
		{"negative total", func(f *entity.ExtractedFields) { f.Total = -3 }, constants.FieldTotal},
		{"no products", func(f *entity.ExtractedFields) { f.Products = nil }, constants.FieldProducts},
		{"only invalid products", func(f *entity.ExtractedFields) {
			f.Products = []entity.Product{{Name: "", TotalPrice: 5}, {Name: "x", TotalPrice: 0}}
		}, constants.FieldProducts},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := completeFields()
			tc.mutate(&f)
			missing := Missing(f)
			require.Len(t, missing, 1)
			assert.Equal(t, tc.want, missing[0])
			assert.False(t, IsComplete(f))
		})
	}
}

func TestIsPresent_ProductsNeedOneValidItem(t *testing.T) {
	f := entity.ExtractedFields{Products: []entity.Product{
		{Name: "", TotalPrice: 9.99},
		{Name: "Cafe", Quantity: 1, UnitPrice: 2.5, TotalPrice: 2.5},
	}}
	assert.True(t, IsPresent(constants.FieldProducts, f))
}

func TestDescribe_CoversRequiredFields(t *testing.T) {
	for _, key := range constants.RequiredFields {
		d := Describe(key)
		assert.Equal(t, key, d.Key)
		assert.NotEmpty(t, d.Label)
		assert.NotEmpty(t, d.Hint)
	}
}
