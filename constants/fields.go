package constants

// FieldKey identifies one of the invoice fields tracked across extraction
// attempts. The wire values are stable; clients echo them back in
// missing_fields on retry.
type FieldKey string

const (
	FieldIssuerRUC     FieldKey = "ruc"
	FieldIssuerDV      FieldKey = "dv"
	FieldInvoiceNumber FieldKey = "invoice_number"
	FieldTotal         FieldKey = "total"
	FieldProducts      FieldKey = "products"
)

// RequiredFields is the fixed completion gate. The same set is checked after
// the initial attempt and after every retry; order here is the order missing
// fields are reported in.
var RequiredFields = []FieldKey{
	FieldIssuerRUC,
	FieldIssuerDV,
	FieldInvoiceNumber,
	FieldTotal,
	FieldProducts,
}

// IsRecognizedField reports whether key names one of the required fields.
func IsRecognizedField(key FieldKey) bool {
	for _, k := range RequiredFields {
		if k == key {
			return true
		}
	}
	return false
}
