package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// APICallLog is one record per external model invocation attempt, success or
// failure. Append-only; used for audit and cost accounting.
type APICallLog struct {
	ID               uuid.UUID       `json:"id"`
	UserID           int64           `json:"user_id"`
	SessionID        string          `json:"session_id,omitempty"`
	Provider         string          `json:"provider"`
	Model            string          `json:"model"`
	ImageBytes       int             `json:"image_bytes"`
	Success          bool            `json:"success"`
	LatencyMS        int64           `json:"latency_ms"`
	PromptTokens     int             `json:"prompt_tokens"`
	CompletionTokens int             `json:"completion_tokens"`
	TotalTokens      int             `json:"total_tokens"`
	CostUSD          float64         `json:"cost_usd"`
	Response         json.RawMessage `json:"response,omitempty"`
	Error            string          `json:"error,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}
