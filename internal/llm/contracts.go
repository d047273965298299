package llm

import (
	"context"

	"github.com/lumis-app/invoice-ocr/internal/entity"
)

// ExtractRequest is one vision extraction attempt: an invoice photo plus the
// instruction text built for it.
type ExtractRequest struct {
	Image    []byte
	MimeType string
	Prompt   string
}

// Usage is the provider-reported token accounting for one call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	CostUSD          float64
}

// Result is a successful extraction: the parsed fields plus which model
// produced them.
type Result struct {
	Fields entity.ExtractedFields
	Model  string
	Usage  Usage
}

// ModelCaller is a single model endpoint the cascade can try. Raw is the
// sanitized response JSON, returned even alongside some errors so the audit
// log can keep it.
type ModelCaller interface {
	Provider() string
	ModelName() string
	Extract(ctx context.Context, req ExtractRequest) (fields entity.ExtractedFields, usage Usage, raw []byte, err error)
}

// Extractor is the interface the session orchestrator depends on.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest) (Result, error)
}
