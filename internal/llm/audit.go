package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lumis-app/invoice-ocr/internal/common"
	"github.com/lumis-app/invoice-ocr/internal/entity"
)

// CallLogger appends one audit record per external model invocation.
type CallLogger interface {
	Append(ctx context.Context, log entity.APICallLog) error
}

// AuditedCaller decorates a ModelCaller with append-only call logging, so the
// bookkeeping never leaks into the cascade's control flow. Log failures are
// reported but never fail the extraction.
type AuditedCaller struct {
	inner  ModelCaller
	logs   CallLogger
	logger *slog.Logger
}

func NewAuditedCaller(inner ModelCaller, logs CallLogger, logger *slog.Logger) *AuditedCaller {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditedCaller{inner: inner, logs: logs, logger: logger}
}

func (a *AuditedCaller) Provider() string  { return a.inner.Provider() }
func (a *AuditedCaller) ModelName() string { return a.inner.ModelName() }

func (a *AuditedCaller) Extract(ctx context.Context, req ExtractRequest) (entity.ExtractedFields, Usage, []byte, error) {
	start := time.Now()
	fields, usage, raw, err := a.inner.Extract(ctx, req)

	record := entity.APICallLog{
		ID:               uuid.New(),
		UserID:           common.UserIDFromContext(ctx),
		SessionID:        common.SessionIDFromContext(ctx),
		Provider:         a.inner.Provider(),
		Model:            a.inner.ModelName(),
		ImageBytes:       len(req.Image),
		Success:          err == nil,
		LatencyMS:        time.Since(start).Milliseconds(),
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		CostUSD:          usage.CostUSD,
		Response:         raw,
		CreatedAt:        time.Now().UTC(),
	}
	if err != nil {
		record.Error = err.Error()
	}

	if logErr := a.logs.Append(ctx, record); logErr != nil {
		a.logger.Warn("llm.audit.append_failed", "model", a.inner.ModelName(), "error", logErr)
	}

	return fields, usage, raw, err
}
