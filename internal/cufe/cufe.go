// Package cufe derives the deterministic identity string that uniquely names
// an extracted invoice. The same function runs at duplicate-check time and at
// persistence time, so the two can never disagree.
package cufe

import (
	"fmt"
	"strings"

	"github.com/lumis-app/invoice-ocr/internal/entity"
)

// Prefix tags identities produced by the iterative extraction pipeline, so
// they are visually distinguishable from the QR pipeline's CUFEs.
const Prefix = "OCR"

const (
	unknownPart = "UNKNOWN"
	epochDate   = "19700101"
)

// Generate builds the invoice identity from normalized tax id + check digit,
// date, and invoice number: OCR-{RUC+DV}-{YYYYMMDD}-{NUMBER}. The result is
// byte-identical across calls and insensitive to whitespace/hyphen variations
// in the raw inputs.
func Generate(f entity.ExtractedFields) string {
	ruc := normalize(f.IssuerRUC)
	if ruc == "" {
		ruc = unknownPart
	}
	rucDV := ruc + normalize(f.IssuerDV)

	date := normalize(f.Date)
	if date == "" {
		date = epochDate
	}

	number := normalize(f.InvoiceNumber)
	if number == "" {
		number = unknownPart
	}

	return fmt.Sprintf("%s-%s-%s-%s", Prefix, rucDV, date, number)
}

// normalize strips whitespace and hyphens so formatting noise in the raw
// extraction never changes the identity.
func normalize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '-':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
