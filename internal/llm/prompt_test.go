package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lumis-app/invoice-ocr/constants"
	"github.com/lumis-app/invoice-ocr/internal/entity"
)

func TestBuildInitialPrompt_AsksForEverything(t *testing.T) {
	p := BuildInitialPrompt()

	for _, key := range []string{"ruc", "dv", "invoice_number", "date", "total", "products"} {
		assert.Contains(t, p, `"`+key+`"`)
	}
	assert.Contains(t, p, "YYYY-MM-DD")
	assert.Contains(t, p, "ONLY JSON")
}

func TestBuildFocusedPrompt_ListsOnlyMissingFields(t *testing.T) {
	known := entity.ExtractedFields{
		IssuerName:    "Super 99",
		IssuerRUC:     "155-1",
		InvoiceNumber: "001-002-123456",
		Total:         25.50,
	}
	p := BuildFocusedPrompt([]constants.FieldKey{constants.FieldIssuerDV, constants.FieldProducts}, known)

	assert.Contains(t, p, "DV")
	assert.Contains(t, p, "PRODUCTS")
	assert.NotContains(t, p, "- RUC (")

	// Known values are summarized so the model does not re-derive them.
	assert.Contains(t, p, "RUC: 155-1")
	assert.Contains(t, p, "total: 25.50")
	assert.Contains(t, p, "do not change confirmed values")
}

func TestBuildFocusedPrompt_NothingKnownYet(t *testing.T) {
	p := BuildFocusedPrompt([]constants.FieldKey{constants.FieldTotal}, entity.ExtractedFields{})
	assert.Contains(t, p, "nothing yet")
}

func TestBuildFocusedPrompt_IncludesFieldHints(t *testing.T) {
	p := BuildFocusedPrompt([]constants.FieldKey{constants.FieldIssuerDV}, entity.ExtractedFields{})
	assert.True(t, strings.Contains(p, "check digit usually follows the RUC"))
}
