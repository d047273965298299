package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumis-app/invoice-ocr/internal/common"
	"github.com/lumis-app/invoice-ocr/internal/entity"
)

// SaveInvoiceRequest wraps everything the persistence step needs.
type SaveInvoiceRequest struct {
	Identity  string
	Invoice   entity.ExtractedFields
	UserID    int64
	UserEmail string
	ImageURL  string // data URL of the consolidated image
}

// InvoiceRepository persists extracted invoices and answers duplicate
// lookups. The identity column carries a uniqueness constraint as defense in
// depth behind FindDuplicate.
type InvoiceRepository interface {
	// FindDuplicate returns the identity of an already-persisted matching
	// invoice, or "" when none exists. Matches on identity first, then
	// defensively on issuer + number + date + user.
	FindDuplicate(ctx context.Context, identity string, inv entity.ExtractedFields, userID int64) (string, error)
	// SaveInvoice writes header, line items and payment summary in one
	// transaction and returns the new header id.
	SaveInvoice(ctx context.Context, req SaveInvoiceRequest) (int64, error)
	// ListInvoices returns a user's persisted invoice headers, optionally
	// bounded by date.
	ListInvoices(ctx context.Context, userID int64, from, to *time.Time) ([]entity.InvoiceHeader, error)
}

type invoiceRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewInvoiceRepository(pool *pgxpool.Pool, logger *slog.Logger) InvoiceRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &invoiceRepository{pool: pool, logger: logger}
}

func (r *invoiceRepository) FindDuplicate(ctx context.Context, identity string, inv entity.ExtractedFields, userID int64) (string, error) {
	var existing string
	err := r.pool.QueryRow(ctx,
		`SELECT identity FROM invoice_header WHERE identity = $1 LIMIT 1`, identity,
	).Scan(&existing)
	if err == nil {
		r.logger.Info("invoice.duplicate.identity_match", "identity", identity)
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("duplicate lookup by identity: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`SELECT identity FROM invoice_header
		 WHERE issuer_name = $1 AND number = $2 AND date::date = $3::date AND user_id = $4
		 LIMIT 1`,
		inv.IssuerName, inv.InvoiceNumber, parseDate(inv.Date), userID,
	).Scan(&existing)
	if err == nil {
		r.logger.Info("invoice.duplicate.field_match",
			"issuer", inv.IssuerName, "number", inv.InvoiceNumber, "user_id", userID)
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("duplicate lookup by fields: %w", err)
	}
	return "", nil
}

func (r *invoiceRepository) SaveInvoice(ctx context.Context, req SaveInvoiceRequest) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %v", common.ErrPersistence, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	inv := req.Invoice
	now := time.Now().UTC()

	var headerID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO invoice_header (
			identity, issuer_name, issuer_ruc, issuer_dv, issuer_address,
			number, date, tot_amount, tot_tax, type, origin,
			user_id, user_email, image_url, process_date, reception_date
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING id`,
		req.Identity, inv.IssuerName, inv.IssuerRUC, inv.IssuerDV, inv.Address,
		inv.InvoiceNumber, parseDate(inv.Date), inv.Total, inv.Tax,
		"ocr_pending", "ocr_iterative",
		req.UserID, req.UserEmail, req.ImageURL, now, now,
	).Scan(&headerID)
	if err != nil {
		return 0, fmt.Errorf("%w: insert header: %v", common.ErrPersistence, err)
	}

	for i, p := range inv.Products {
		// partkey format: {identity}|{i}, 1-based
		partkey := fmt.Sprintf("%s|%d", req.Identity, i+1)
		_, err = tx.Exec(ctx, `
			INSERT INTO invoice_detail (
				identity, partkey, description, quantity, unit_price, total, date
			) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			req.Identity, partkey, p.Name, p.Quantity, p.UnitPrice, p.TotalPrice, parseDate(inv.Date),
		)
		if err != nil {
			return 0, fmt.Errorf("%w: insert detail %d: %v", common.ErrPersistence, i+1, err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO invoice_payment (identity, total_paid, payment_method)
		VALUES ($1,$2,$3)`,
		req.Identity, inv.Total, "unknown",
	)
	if err != nil {
		return 0, fmt.Errorf("%w: insert payment: %v", common.ErrPersistence, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%w: commit: %v", common.ErrPersistence, err)
	}

	r.logger.Info("invoice.saved", "identity", req.Identity, "id", headerID, "items", len(inv.Products))
	return headerID, nil
}

func (r *invoiceRepository) ListInvoices(ctx context.Context, userID int64, from, to *time.Time) ([]entity.InvoiceHeader, error) {
	q := `SELECT id, identity, issuer_name, COALESCE(issuer_ruc,''), COALESCE(issuer_dv,''),
	             number, date, tot_amount, user_id, process_date
	      FROM invoice_header WHERE user_id = $1`
	args := []any{userID}
	if from != nil {
		args = append(args, *from)
		q += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		q += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	q += " ORDER BY date"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []entity.InvoiceHeader
	for rows.Next() {
		var h entity.InvoiceHeader
		if err := rows.Scan(&h.ID, &h.Identity, &h.IssuerName, &h.IssuerRUC, &h.IssuerDV,
			&h.Number, &h.Date, &h.Total, &h.UserID, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// parseDate turns the free-form extracted date into a timestamp, falling back
// to the epoch when unreadable so persistence never fails on a date format.
func parseDate(s string) time.Time {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	return time.Unix(0, 0).UTC()
}
