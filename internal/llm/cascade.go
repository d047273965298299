package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lumis-app/invoice-ocr/internal/common"
)

// Cascade tries an ordered list of model callers (cheapest first) and returns
// the first success. Models are called strictly in sequence: a later model
// runs only after the previous one definitively failed, never in parallel.
type Cascade struct {
	callers []ModelCaller
	logger  *slog.Logger
}

func NewCascade(callers []ModelCaller, logger *slog.Logger) *Cascade {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cascade{callers: callers, logger: logger}
}

// Extract runs the cascade. When every model fails, the single aggregated
// error wraps common.ErrProviderExhausted and carries each model's failure.
func (c *Cascade) Extract(ctx context.Context, req ExtractRequest) (Result, error) {
	start := time.Now()
	var failures []string

	for _, caller := range c.callers {
		fields, usage, _, err := caller.Extract(ctx, req)
		if err != nil {
			c.logger.Warn("llm.cascade.model_failed",
				"provider", caller.Provider(),
				"model", caller.ModelName(),
				"error", err,
			)
			failures = append(failures, fmt.Sprintf("%s: %v", caller.ModelName(), err))
			continue
		}

		c.logger.Info("llm.cascade.ok",
			"model", caller.ModelName(),
			"total_tokens", usage.TotalTokens,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return Result{Fields: fields, Model: caller.ModelName(), Usage: usage}, nil
	}

	c.logger.Error("llm.cascade.exhausted",
		"models", len(c.callers),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Result{}, fmt.Errorf("%w: %s", common.ErrProviderExhausted, strings.Join(failures, " | "))
}
