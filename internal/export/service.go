package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/lumis-app/invoice-ocr/internal/repository"
)

// Service is a tiny façade over the invoice repository that produces XLSX
// bytes for exports.
type Service struct {
	invoices repository.InvoiceRepository
	logger   *slog.Logger
}

func NewService(invoices repository.InvoiceRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{invoices: invoices, logger: logger}
}

// ExportInvoicesXLSX returns an XLSX workbook (as bytes) for the given user and date window.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> all invoices for the user.
func (s *Service) ExportInvoicesXLSX(ctx context.Context, userID int64, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	// Normalize dates (date-only, UTC)
	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		today := time.Now().UTC()
		t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}

	invs, err := s.invoices.ListInvoices(ctx, userID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Invoices"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Invoice Date",
		"Merchant",
		"RUC",
		"DV",
		"Invoice Number",
		"Total",
		"Identity",
		"Registered",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, inv := range invs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		if !inv.Date.IsZero() {
			write(1, inv.Date.Format("2006-01-02"))
		} else {
			write(1, "")
		}
		write(2, truncate(inv.IssuerName, 60))
		write(3, inv.IssuerRUC)
		write(4, inv.IssuerDV)
		write(5, inv.Number)
		write(6, inv.Total)
		write(7, inv.Identity)
		if !inv.CreatedAt.IsZero() {
			write(8, inv.CreatedAt.Format("2006-01-02 15:04"))
		} else {
			write(8, "")
		}

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 14) // date
	_ = f.SetColWidth(sheet, "B", "B", 32) // merchant
	_ = f.SetColWidth(sheet, "C", "C", 18) // ruc
	_ = f.SetColWidth(sheet, "E", "E", 20) // number
	_ = f.SetColWidth(sheet, "F", "F", 12) // total
	_ = f.SetColWidth(sheet, "G", "G", 42) // identity
	_ = f.SetColWidth(sheet, "H", "H", 18) // registered

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"user_id", userID,
		"rows", len(invs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
