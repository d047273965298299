// Package fields is the single implementation of "what counts as complete"
// for an invoice extraction. The initial gate, every retry gate, and the
// final save validation all go through Missing.
package fields

import (
	"strings"

	"github.com/lumis-app/invoice-ocr/constants"
	"github.com/lumis-app/invoice-ocr/internal/entity"
)

// Descriptor carries the wire key, a human label, and the hint the prompt
// builder shows the model when the field is still missing.
type Descriptor struct {
	Key   constants.FieldKey
	Label string
	Hint  string
}

var descriptors = map[constants.FieldKey]Descriptor{
	constants.FieldIssuerRUC: {
		Key:   constants.FieldIssuerRUC,
		Label: "tax id (RUC)",
		Hint:  "look for 'RUC:' near the merchant name, usually a long number like 1234567-1-654321",
	},
	constants.FieldIssuerDV: {
		Key:   constants.FieldIssuerDV,
		Label: "check digit (DV)",
		Hint:  "the check digit usually follows the RUC or is labeled 'DV' (e.g. 'RUC: 123456-1-654321 DV: 89')",
	},
	constants.FieldInvoiceNumber: {
		Key:   constants.FieldInvoiceNumber,
		Label: "invoice number",
		Hint:  "look for 'Factura' or 'Fact', often a hyphenated number like 001-002-123456",
	},
	constants.FieldTotal: {
		Key:   constants.FieldTotal,
		Label: "total amount",
		Hint:  "look for 'Total' or 'Total a Pagar', the largest amount near the bottom",
	},
	constants.FieldProducts: {
		Key:   constants.FieldProducts,
		Label: "line items",
		Hint:  "the itemized list of purchased products with prices",
	},
}

// Describe returns the descriptor for a required field key.
func Describe(key constants.FieldKey) Descriptor {
	return descriptors[key]
}

// IsPresent reports whether the given required field holds a valid value in
// the record: non-blank strings, total > 0, and at least one valid line item.
func IsPresent(key constants.FieldKey, f entity.ExtractedFields) bool {
	switch key {
	case constants.FieldIssuerRUC:
		return strings.TrimSpace(f.IssuerRUC) != ""
	case constants.FieldIssuerDV:
		return strings.TrimSpace(f.IssuerDV) != ""
	case constants.FieldInvoiceNumber:
		return strings.TrimSpace(f.InvoiceNumber) != ""
	case constants.FieldTotal:
		return f.Total > 0
	case constants.FieldProducts:
		for _, p := range f.Products {
			if ValidProduct(p) {
				return true
			}
		}
		return false
	}
	return false
}

// ValidProduct reports whether a line item is usable: a non-empty name and a
// positive line total.
func ValidProduct(p entity.Product) bool {
	return strings.TrimSpace(p.Name) != "" && p.TotalPrice > 0
}

// Missing returns the required fields not yet present, in reporting order.
func Missing(f entity.ExtractedFields) []constants.FieldKey {
	var missing []constants.FieldKey
	for _, key := range constants.RequiredFields {
		if !IsPresent(key, f) {
			missing = append(missing, key)
		}
	}
	return missing
}

// IsComplete reports whether all required fields are present.
func IsComplete(f entity.ExtractedFields) bool {
	return len(Missing(f)) == 0
}
