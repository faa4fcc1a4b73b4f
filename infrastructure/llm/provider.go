// Package llm talks to the generative model that writes mind maps and task plans.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Provider defines the interface for model backends (Gemini, Ollama, mock)
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string, options CompletionOptions) (string, error)
	IsAvailable() bool
}

// CompletionOptions configures completion requests
type CompletionOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	MaxTokens   int     `json:"max_tokens"`
	Format      string  `json:"format"` // "json" or "text"
}

// Provider names
const (
	ProviderMock   = "mock"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// Config selects and configures a provider
type Config struct {
	Provider       string
	Model          string
	APIKey         string
	BaseURL        string
	Temperature    float64
	TopP           float64
	MaxTokens      int
	RequestTimeout time.Duration

	// Circuit breaker around the provider; disabled when BreakerEnabled is false
	BreakerEnabled     bool
	BreakerMinRequests uint32
	BreakerFailureRate float64
	BreakerOpenTimeout time.Duration
}

// DefaultConfig mirrors the generation settings of the original web app
func DefaultConfig() Config {
	return Config{
		Provider:           ProviderMock,
		Model:              "gemini-2.5-flash",
		Temperature:        0.8,
		TopP:               0.95,
		RequestTimeout:     90 * time.Second,
		BreakerEnabled:     true,
		BreakerMinRequests: 5,
		BreakerFailureRate: 0.8,
		BreakerOpenTimeout: 60 * time.Second,
	}
}

// NewProvider builds the configured provider, wrapped in a circuit breaker
// when enabled.
func NewProvider(cfg Config, logger *zap.Logger) (Provider, error) {
	var p Provider
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderMock:
		p = NewMockProvider()
	case ProviderGemini:
		gemini, err := NewGeminiProvider(context.Background(), cfg.BaseURL, cfg.Model, cfg.APIKey, cfg.RequestTimeout)
		if err != nil {
			return nil, err
		}
		p = gemini
	case ProviderOllama:
		p = NewOllamaProvider(cfg.BaseURL, cfg.Model, cfg.RequestTimeout)
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}

	if cfg.BreakerEnabled {
		p = NewBreakerProvider(p, BreakerSettings{
			MinRequests:      cfg.BreakerMinRequests,
			FailureThreshold: cfg.BreakerFailureRate,
			Timeout:          cfg.BreakerOpenTimeout,
			Logger:           logger,
		})
	}
	return p, nil
}
