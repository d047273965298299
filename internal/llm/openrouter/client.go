package openrouter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lumis-app/invoice-ocr/internal/entity"
	"github.com/lumis-app/invoice-ocr/internal/llm"
)

func (c *Client) Provider() string  { return "openrouter" }
func (c *Client) ModelName() string { return c.cfg.Model }

// Extract implements llm.ModelCaller against the OpenAI-compatible
// chat/completions endpoint, attaching the invoice photo as a data URL.
func (c *Client) Extract(ctx context.Context, req llm.ExtractRequest) (entity.ExtractedFields, llm.Usage, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"image_bytes", len(req.Image),
		"mime_type", req.MimeType,
	)

	dataURL := "data:" + req.MimeType + ";base64," + base64.StdEncoding.EncodeToString(req.Image)
	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"max_tokens":  c.cfg.MaxTokens,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": req.Prompt},
					{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
				},
			},
		},
	}

	headers := map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
	}
	if c.cfg.Referer != "" {
		headers["HTTP-Referer"] = c.cfg.Referer
	}
	if c.cfg.Title != "" {
		headers["X-Title"] = c.cfg.Title
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, status, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.log)
	if err != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.ExtractedFields{}, llm.Usage{}, nil, fmt.Errorf("provider call: %w", err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.ExtractedFields{}, llm.Usage{}, raw, fmt.Errorf("decode provider response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return entity.ExtractedFields{}, llm.Usage{}, raw, fmt.Errorf("no choices in provider response")
	}

	usage := llm.Usage{
		PromptTokens:     cc.Usage.PromptTokens,
		CompletionTokens: cc.Usage.CompletionTokens,
		TotalTokens:      cc.Usage.TotalTokens,
		CostUSD:          float64(cc.Usage.TotalTokens) / 1_000_000 * c.cfg.CostPerMTokenUSD,
	}

	content := llm.StripMarkdownFence(cc.Choices[0].Message.Content)
	cleaned, touched, err := llm.NormalizeResponse([]byte(content))
	if err != nil {
		c.log.Error("llm.extract.sanitize_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.ExtractedFields{}, usage, []byte(content), fmt.Errorf("sanitize response: %w", err)
	}
	if len(touched) > 0 {
		c.log.Warn("llm.extract.normalized", "req_id", rid, "touched", touched)
	}

	if err := llm.ValidateExtraction(cleaned); err != nil {
		c.log.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "error", err, "content", string(cleaned),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.ExtractedFields{}, usage, cleaned, fmt.Errorf("schema validation failed: %w", err)
	}

	var out entity.ExtractedFields
	if err := json.Unmarshal(cleaned, &out); err != nil {
		return entity.ExtractedFields{}, usage, cleaned, fmt.Errorf("unmarshal fields: %w", err)
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"model", c.cfg.Model,
		"ruc", out.IssuerRUC,
		"invoice_number", out.InvoiceNumber,
		"total", out.Total,
		"products", len(out.Products),
		"total_tokens", usage.TotalTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, usage, cleaned, nil
}
