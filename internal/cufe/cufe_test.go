package cufe

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lumis-app/invoice-ocr/internal/entity"
)

func TestGenerate_Deterministic(t *testing.T) {
	f := entity.ExtractedFields{
		IssuerRUC:     "155-1",
		IssuerDV:      "66",
		Date:          "2025-01-02",
		InvoiceNumber: "A-01",
	}

	first := Generate(f)
	assert.Equal(t, "OCR-155166-20250102-A01", first)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Generate(f))
	}
}

func TestGenerate_InsensitiveToWhitespaceAndHyphens(t *testing.T) {
	base := entity.ExtractedFields{
		IssuerRUC:     "155-1",
		IssuerDV:      "66",
		Date:          "2025-01-02",
		InvoiceNumber: "A-01",
	}
	noisy := entity.ExtractedFields{
		IssuerRUC:     " 1551 ",
		IssuerDV:      "66\n",
		Date:          "20250102",
		InvoiceNumber: "A 01",
	}

	assert.Equal(t, Generate(base), Generate(noisy))
}

func TestGenerate_MissingPartsFallBack(t *testing.T) {
	id := Generate(entity.ExtractedFields{})
	assert.Equal(t, "OCR-UNKNOWN-19700101-UNKNOWN", id)
}

func TestGenerate_DVOptional(t *testing.T) {
	withDV := Generate(entity.ExtractedFields{IssuerRUC: "200", IssuerDV: "7", Date: "2025-03-04", InvoiceNumber: "9"})
	withoutDV := Generate(entity.ExtractedFields{IssuerRUC: "200", Date: "2025-03-04", InvoiceNumber: "9"})
	assert.Equal(t, "OCR-2007-20250304-9", withDV)
	assert.Equal(t, "OCR-200-20250304-9", withoutDV)
	assert.NotEqual(t, withDV, withoutDV)
}
