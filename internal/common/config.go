package common

import (
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	LLM      LLMConfig
	Sessions SessionConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string
}

// LLMConfig holds vision-model provider configuration. Models are tried in
// order, cheapest first.
type LLMConfig struct {
	APIKey           string
	BaseURL          string
	Models           []string
	Temperature      float32
	Timeout          time.Duration
	CostPerMTokenUSD float64
}

// SessionConfig holds session-cache configuration
type SessionConfig struct {
	Path string
	TTL  time.Duration
}

// fileConfig is the optional TOML overlay (EXTRACTOR_CONFIG). Only the keys a
// deployment actually wants to pin need to be present.
type fileConfig struct {
	LLM struct {
		BaseURL          string   `toml:"base_url"`
		Models           []string `toml:"models"`
		Temperature      *float32 `toml:"temperature"`
		CostPerMTokenUSD *float64 `toml:"cost_per_mtoken_usd"`
	} `toml:"llm"`
	Sessions struct {
		Path string `toml:"path"`
	} `toml:"sessions"`
}

// LoadConfig loads configuration from environment variables, then applies the
// TOML overlay file named by EXTRACTOR_CONFIG when set.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		},
		LLM: LLMConfig{
			APIKey:  getEnv("OPENROUTER_API_KEY", ""),
			BaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			Models: []string{
				"google/gemini-2.0-flash-001",
				"qwen/qwen3-vl-30b-a3b-instruct",
				"openai/gpt-4o-mini",
			},
			Temperature:      getEnvAsFloat32("LLM_TEMPERATURE", 0.1),
			Timeout:          getEnvAsDuration("LLM_TIMEOUT", 45*time.Second),
			CostPerMTokenUSD: 0.40,
		},
		Sessions: SessionConfig{
			Path: getEnv("SESSION_STORE_PATH", "./sessions.db"),
			TTL:  getEnvAsDuration("SESSION_TTL", 30*time.Minute),
		},
	}

	if path := os.Getenv("EXTRACTOR_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, WrapError(err, "load config file")
		}
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := toml.Unmarshal(raw, &fc); err != nil {
		return err
	}
	if fc.LLM.BaseURL != "" {
		c.LLM.BaseURL = fc.LLM.BaseURL
	}
	if len(fc.LLM.Models) > 0 {
		c.LLM.Models = fc.LLM.Models
	}
	if fc.LLM.Temperature != nil {
		c.LLM.Temperature = *fc.LLM.Temperature
	}
	if fc.LLM.CostPerMTokenUSD != nil {
		c.LLM.CostPerMTokenUSD = *fc.LLM.CostPerMTokenUSD
	}
	if fc.Sessions.Path != "" {
		c.Sessions.Path = fc.Sessions.Path
	}
	return nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrValidation)
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENROUTER_API_KEY is required", ErrValidation)
	}
	if len(c.LLM.Models) == 0 {
		return NewAppError("CONFIG_ERROR", "at least one model is required", ErrValidation)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrValidation)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
