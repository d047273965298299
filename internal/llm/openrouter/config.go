package openrouter

import (
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Config for one OpenRouter-backed model endpoint.
type Config struct {
	APIKey           string        // if empty, falls back to env OPENROUTER_API_KEY
	BaseURL          string        // default https://openrouter.ai/api/v1
	Model            string        // e.g. "google/gemini-2.0-flash-001"
	Temperature      float32       // 0..2
	MaxTokens        int           // completion cap
	Timeout          time.Duration // http client timeout
	CostPerMTokenUSD float64       // rough blended rate for cost accounting
	Referer          string
	Title            string
}

type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENROUTER_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "google/gemini-2.0-flash-001"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger,
	}
}
