package fields

import (
	"strings"

	"github.com/lumis-app/invoice-ocr/constants"
	"github.com/lumis-app/invoice-ocr/internal/entity"
)

// Merge combines previously accumulated fields with a fresh extraction
// result. A required field takes the new value only when this attempt
// targeted it AND the new value is valid on its own; fields outside the
// targeted set are never overwritten, even when the model returned a
// plausible value for them. Secondary fields (issuer name, address, date,
// subtotal, tax) simply prefer the new value whenever present.
func Merge(prev, next entity.ExtractedFields, targeted []constants.FieldKey) entity.ExtractedFields {
	out := prev

	for _, key := range targeted {
		if !IsPresent(key, next) {
			continue
		}
		switch key {
		case constants.FieldIssuerRUC:
			out.IssuerRUC = next.IssuerRUC
		case constants.FieldIssuerDV:
			out.IssuerDV = next.IssuerDV
		case constants.FieldInvoiceNumber:
			out.InvoiceNumber = next.InvoiceNumber
		case constants.FieldTotal:
			out.Total = next.Total
		case constants.FieldProducts:
			out.Products = keepValid(next.Products)
		}
	}

	if strings.TrimSpace(next.IssuerName) != "" {
		out.IssuerName = next.IssuerName
	}
	if strings.TrimSpace(next.Address) != "" {
		out.Address = next.Address
	}
	if strings.TrimSpace(next.Date) != "" {
		out.Date = next.Date
	}
	if next.Subtotal > 0 {
		out.Subtotal = next.Subtotal
	}
	if next.Tax > 0 {
		out.Tax = next.Tax
	}

	return out
}

// MergeAll is the initial-attempt merge: every required field is targeted.
func MergeAll(prev, next entity.ExtractedFields) entity.ExtractedFields {
	return Merge(prev, next, constants.RequiredFields)
}

func keepValid(products []entity.Product) []entity.Product {
	out := make([]entity.Product, 0, len(products))
	for _, p := range products {
		if ValidProduct(p) {
			out = append(out, p)
		}
	}
	return out
}
