package entity

import "time"

// ExtractedFields is the accumulating evidence record for one invoice. Every
// attribute is optional; the zero value means "not detected yet". An empty
// Products slice is equivalent to missing.
type ExtractedFields struct {
	IssuerName    string    `json:"issuer_name,omitempty"`
	IssuerRUC     string    `json:"ruc,omitempty"`
	IssuerDV      string    `json:"dv,omitempty"`
	Address       string    `json:"address,omitempty"`
	InvoiceNumber string    `json:"invoice_number,omitempty"`
	Date          string    `json:"date,omitempty"` // free-form until finalized, preferably YYYY-MM-DD
	Total         float64   `json:"total,omitempty"`
	Subtotal      float64   `json:"subtotal,omitempty"`
	Tax           float64   `json:"tax,omitempty"`
	Products      []Product `json:"products"`
}

// Product is one detected invoice line item.
type Product struct {
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
}

// InvoiceHeader represents a persisted invoice for data transfer between
// layers.
type InvoiceHeader struct {
	ID         int64     `json:"id"`
	Identity   string    `json:"identity"`
	IssuerName string    `json:"issuer_name"`
	IssuerRUC  string    `json:"issuer_ruc,omitempty"`
	IssuerDV   string    `json:"issuer_dv,omitempty"`
	Number     string    `json:"number"`
	Date       time.Time `json:"date"`
	Total      float64   `json:"total"`
	UserID     int64     `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
}
