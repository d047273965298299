package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumis-app/invoice-ocr/internal/entity"
)

// CallLogRepository persists one row per external model invocation.
type CallLogRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewCallLogRepository(pool *pgxpool.Pool, logger *slog.Logger) *CallLogRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &CallLogRepository{pool: pool, logger: logger}
}

// Append inserts the record. Callers treat failures as non-fatal; the
// extraction result matters more than its audit trail.
func (r *CallLogRepository) Append(ctx context.Context, rec entity.APICallLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO api_call_log (
			id, user_id, session_id, provider, model, image_bytes,
			success, latency_ms, prompt_tokens, completion_tokens, total_tokens,
			cost_usd, response, error, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		rec.ID, rec.UserID, rec.SessionID, rec.Provider, rec.Model, rec.ImageBytes,
		rec.Success, rec.LatencyMS, rec.PromptTokens, rec.CompletionTokens, rec.TotalTokens,
		rec.CostUSD, rec.Response, rec.Error, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append call log: %w", err)
	}
	return nil
}
