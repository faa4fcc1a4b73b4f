package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	domainconfig "ideamap/domain/config"
	"ideamap/infrastructure/llm"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress   string
	Environment     string
	ServiceName     string
	Version         string
	MaxRequestBytes int64

	// AWS configuration
	AWSRegion    string
	EventBusName string

	// Lambda configuration
	IsLambda bool

	// Logging
	LogLevel string

	// Authentication
	JWTSecret   string
	JWTIssuer   string
	JWTTokenTTL time.Duration

	// Model provider
	ModelProvider    string
	ModelName        string
	ModelAPIKey      string
	ModelBaseURL     string
	ModelTemperature float64
	ModelTopP        float64
	ModelMaxTokens   int
	EnableBreaker    bool

	// Generation
	TreeTimeout time.Duration
	TaskTimeout time.Duration
	FanOutLimit int
	SessionTTL  time.Duration

	// Rate limits per minute, 0 disables
	GenerationsPerMinute int
	SessionsPerMinute    int

	// Layout sizing rules file, optional
	RulesFile string

	// CORS
	CORSOrigins []string

	// Tracing
	TracingEndpoint string

	// Feature flags
	EnableMetrics bool
	EnableTracing bool
	EnableCORS    bool
	EnableEvents  bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress:   getEnv("SERVER_ADDRESS", ":8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		ServiceName:     getEnv("SERVICE_NAME", "ideamap"),
		Version:         getEnv("SERVICE_VERSION", "dev"),
		MaxRequestBytes: int64(getEnvInt("MAX_REQUEST_BYTES", 64<<10)),

		AWSRegion:    getEnv("AWS_REGION", "us-west-2"),
		EventBusName: getEnv("EVENT_BUS_NAME", "ideamap-events"),

		IsLambda: getEnvBool("IS_LAMBDA", os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTIssuer:   getEnv("JWT_ISSUER", "ideamap"),
		JWTTokenTTL: getEnvDuration("JWT_TOKEN_TTL", 2*time.Hour),

		ModelProvider:    getEnv("MODEL_PROVIDER", llm.ProviderMock),
		ModelName:        getEnv("MODEL_NAME", ""),
		ModelAPIKey:      getEnv("GEMINI_API_KEY", getEnv("API_KEY", "")),
		ModelBaseURL:     getEnv("MODEL_BASE_URL", ""),
		ModelTemperature: getEnvFloat("MODEL_TEMPERATURE", 0.8),
		ModelTopP:        getEnvFloat("MODEL_TOP_P", 0.95),
		ModelMaxTokens:   getEnvInt("MODEL_MAX_TOKENS", 0),
		EnableBreaker:    getEnvBool("ENABLE_CIRCUIT_BREAKER", true),

		TreeTimeout: getEnvDuration("TREE_TIMEOUT", 90*time.Second),
		TaskTimeout: getEnvDuration("TASK_TIMEOUT", 60*time.Second),
		FanOutLimit: getEnvInt("FAN_OUT_LIMIT", 0),
		SessionTTL:  getEnvDuration("SESSION_TTL", 2*time.Hour),

		GenerationsPerMinute: getEnvInt("GENERATIONS_PER_MINUTE", 10),
		SessionsPerMinute:    getEnvInt("SESSIONS_PER_MINUTE", 30),

		RulesFile: getEnv("LAYOUT_RULES_FILE", ""),

		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"*"}),

		TracingEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
		EnableEvents:  getEnvBool("ENABLE_EVENTS", false),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.ModelProvider {
	case llm.ProviderMock, llm.ProviderOllama:
	case llm.ProviderGemini:
		if c.ModelAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
	default:
		return fmt.Errorf("MODEL_PROVIDER must be one of mock, gemini, ollama; got %q", c.ModelProvider)
	}

	if c.ModelTemperature < 0 || c.ModelTemperature > 2 {
		return fmt.Errorf("MODEL_TEMPERATURE must be between 0 and 2")
	}
	if c.ModelTopP < 0 || c.ModelTopP > 1 {
		return fmt.Errorf("MODEL_TOP_P must be between 0 and 1")
	}
	if c.FanOutLimit < 0 {
		return fmt.Errorf("FAN_OUT_LIMIT must not be negative")
	}
	if c.TreeTimeout < 0 || c.TaskTimeout < 0 {
		return fmt.Errorf("generation timeouts must not be negative")
	}
	if c.GenerationsPerMinute < 0 || c.SessionsPerMinute < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}
	if c.MaxRequestBytes <= 0 {
		return fmt.Errorf("MAX_REQUEST_BYTES must be positive")
	}

	if c.IsProduction() {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.ModelProvider == llm.ProviderMock {
			return fmt.Errorf("the mock model provider is not allowed in production")
		}
		if c.EnableEvents && c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// LLM returns the model provider configuration
func (c *Config) LLM() llm.Config {
	out := llm.DefaultConfig()
	out.Provider = c.ModelProvider
	if c.ModelName != "" {
		out.Model = c.ModelName
	} else if c.ModelProvider == llm.ProviderOllama {
		out.Model = ""
	}
	out.APIKey = c.ModelAPIKey
	out.BaseURL = c.ModelBaseURL
	out.Temperature = c.ModelTemperature
	out.TopP = c.ModelTopP
	out.MaxTokens = c.ModelMaxTokens
	out.BreakerEnabled = c.EnableBreaker
	if c.TreeTimeout > 0 {
		out.RequestTimeout = c.TreeTimeout
	}
	return out
}

// Domain returns the generation rules with the configured timeouts applied
func (c *Config) Domain() *domainconfig.DomainConfig {
	d := domainconfig.DefaultDomainConfig()
	d.TreeTimeout = c.TreeTimeout
	d.TaskTimeout = c.TaskTimeout
	d.FanOutLimit = c.FanOutLimit
	d.SessionTimeout = c.SessionTTL
	return d
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("90")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
