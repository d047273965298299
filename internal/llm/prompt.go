package llm

import (
	"fmt"
	"strings"

	"github.com/lumis-app/invoice-ocr/constants"
	"github.com/lumis-app/invoice-ocr/internal/entity"
	"github.com/lumis-app/invoice-ocr/internal/fields"
)

// BuildInitialPrompt asks for every field in one shot, with the exact JSON
// shape and formatting rules spelled out.
func BuildInitialPrompt() string {
	parts := []string{
		"You are an invoice parser. Analyze this photo of a Panamanian paper invoice and return ONLY JSON with this exact shape:",
		jsonShape,
		"Formatting rules:",
		"- Dates in ISO-8601 (YYYY-MM-DD); convert DD/MM/YYYY and similar formats.",
		"- Amounts as plain decimal numbers, never strings, never currency symbols.",
		"- The RUC is the long tax id near the merchant name (e.g. 1234567-1-654321); the DV is the check digit that follows it.",
		"- Extract EVERY visible line item; do not skip any.",
		"- Omit fields you cannot read. Never output null.",
		"- Respond with the JSON only, no explanations and no markdown.",
	}
	return strings.Join(parts, "\n")
}

// BuildFocusedPrompt lists only the fields still being hunted, with per-field
// guidance, plus a compact summary of what earlier photos already confirmed,
// so the model neither re-derives nor overwrites accepted values. The merge
// step decides what is actually used regardless of what comes back.
func BuildFocusedPrompt(missing []constants.FieldKey, known entity.ExtractedFields) string {
	var b strings.Builder
	b.WriteString("This is an additional photo of the same invoice. Focus SPECIFICALLY on finding:\n")
	for _, key := range missing {
		d := fields.Describe(key)
		fmt.Fprintf(&b, "- %s (%s): %s\n", strings.ToUpper(string(key)), d.Label, d.Hint)
	}

	b.WriteString("\nAlready confirmed from earlier photos: ")
	b.WriteString(summarizeKnown(known))
	b.WriteString("\n\nOnly fill in the fields listed above; do not change confirmed values.\n")
	b.WriteString("Respond with the same JSON shape as before:\n")
	b.WriteString(jsonShape)
	return b.String()
}

func summarizeKnown(f entity.ExtractedFields) string {
	var known []string
	if f.IssuerName != "" {
		known = append(known, "merchant: "+f.IssuerName)
	}
	if f.IssuerRUC != "" {
		known = append(known, "RUC: "+f.IssuerRUC)
	}
	if f.IssuerDV != "" {
		known = append(known, "DV: "+f.IssuerDV)
	}
	if f.InvoiceNumber != "" {
		known = append(known, "invoice number: "+f.InvoiceNumber)
	}
	if f.Date != "" {
		known = append(known, "date: "+f.Date)
	}
	if f.Total > 0 {
		known = append(known, fmt.Sprintf("total: %.2f", f.Total))
	}
	if n := len(f.Products); n > 0 {
		known = append(known, fmt.Sprintf("%d line items", n))
	}
	if len(known) == 0 {
		return "nothing yet"
	}
	return strings.Join(known, ", ")
}

const jsonShape = `{
  "issuer_name": "full merchant/company name",
  "ruc": "complete RUC tax id",
  "dv": "check digit after the RUC",
  "address": "merchant address if visible",
  "invoice_number": "complete invoice number",
  "date": "YYYY-MM-DD",
  "total": 0.0,
  "subtotal": 0.0,
  "tax": 0.0,
  "products": [
    {"name": "item description", "quantity": 1.0, "unit_price": 0.0, "total_price": 0.0}
  ]
}`
