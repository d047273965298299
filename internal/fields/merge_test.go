package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumis-app/invoice-ocr/constants"
	"github.com/lumis-app/invoice-ocr/internal/entity"
)

func TestMerge_EmptyTargetKeepsPrevious(t *testing.T) {
	prev := completeFields()
	next := entity.ExtractedFields{
		IssuerRUC:     "999-9",
		IssuerDV:      "11",
		InvoiceNumber: "ZZZ",
		Total:         999.99,
		Products:      []entity.Product{{Name: "Otro", TotalPrice: 1}},
	}

	out := Merge(prev, next, nil)

	assert.Equal(t, prev.IssuerRUC, out.IssuerRUC)
	assert.Equal(t, prev.IssuerDV, out.IssuerDV)
	assert.Equal(t, prev.InvoiceNumber, out.InvoiceNumber)
	assert.Equal(t, prev.Total, out.Total)
	assert.Equal(t, prev.Products, out.Products)
}

func TestMerge_TargetedValidValueWins(t *testing.T) {
	prev := entity.ExtractedFields{IssuerRUC: "155-1"}
	next := entity.ExtractedFields{IssuerRUC: "200-2", IssuerDV: "42"}

	out := Merge(prev, next, []constants.FieldKey{constants.FieldIssuerRUC, constants.FieldIssuerDV})

	assert.Equal(t, "200-2", out.IssuerRUC)
	assert.Equal(t, "42", out.IssuerDV)
}

func TestMerge_TargetedInvalidValueKeepsPrevious(t *testing.T) {
	prev := entity.ExtractedFields{Total: 25.50}
	next := entity.ExtractedFields{Total: 0}

	out := Merge(prev, next, []constants.FieldKey{constants.FieldTotal})

	assert.Equal(t, 25.50, out.Total)
}

// A focused retry targeting only products must not let a spurious total from
// the new extraction overwrite the already-accepted one.
func TestMerge_UntargetedTotalNotOverwritten(t *testing.T) {
	prev := entity.ExtractedFields{
		IssuerRUC:     "155-1",
		IssuerDV:      "66",
		InvoiceNumber: "001-002-123456",
		Total:         25.50,
	}
	next := entity.ExtractedFields{
		Total: 99.99, // spurious
		Products: []entity.Product{
			{Name: "Arroz", Quantity: 1, UnitPrice: 4.25, TotalPrice: 4.25},
			{Name: "Cafe", Quantity: 2, UnitPrice: 2.50, TotalPrice: 5.00},
		},
	}

	out := Merge(prev, next, []constants.FieldKey{constants.FieldProducts})

	assert.Equal(t, 25.50, out.Total)
	require.Len(t, out.Products, 2)
	assert.Equal(t, "Arroz", out.Products[0].Name)
	assert.Empty(t, Missing(out))
}

func TestMerge_TargetedProductsDropInvalidItems(t *testing.T) {
	next := entity.ExtractedFields{Products: []entity.Product{
		{Name: "", TotalPrice: 3},
		{Name: "Leche", Quantity: 1, UnitPrice: 1.99, TotalPrice: 1.99},
	}}

	out := Merge(entity.ExtractedFields{}, next, []constants.FieldKey{constants.FieldProducts})

	require.Len(t, out.Products, 1)
	assert.Equal(t, "Leche", out.Products[0].Name)
}

func TestMerge_SecondaryFieldsPreferNew(t *testing.T) {
	prev := entity.ExtractedFields{IssuerName: "Super", Date: "2025-01-01", Subtotal: 10}
	next := entity.ExtractedFields{IssuerName: "Super 99", Address: "Via España", Tax: 1.75}

	out := Merge(prev, next, nil)

	assert.Equal(t, "Super 99", out.IssuerName)
	assert.Equal(t, "Via España", out.Address)
	assert.Equal(t, "2025-01-01", out.Date) // next had none, keep old
	assert.Equal(t, 10.0, out.Subtotal)
	assert.Equal(t, 1.75, out.Tax)
}

func TestMergeAll_AdoptsEverythingValid(t *testing.T) {
	next := completeFields()
	out := MergeAll(entity.ExtractedFields{}, next)
	assert.Empty(t, Missing(out))
	assert.Equal(t, next.Total, out.Total)
}
