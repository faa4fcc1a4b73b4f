package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideamap/infrastructure/config"
	"ideamap/infrastructure/llm"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:     "test",
		ServiceName:     "ideamap",
		Version:         "test",
		MaxRequestBytes: 1 << 16,
		LogLevel:        "error",
		JWTSecret:       "test-secret",
		JWTIssuer:       "ideamap",
		ModelProvider:   llm.ProviderMock,
		ModelTopP:       0.95,
		EnableMetrics:   true,
	}
}

func TestInitializeContainer(t *testing.T) {
	container, cleanup, err := InitializeContainer(context.Background(), testConfig())
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, container.CommandBus)
	assert.NotNil(t, container.QueryBus)
	assert.True(t, container.ModelClient.IsAvailable())

	rec := httptest.NewRecorder()
	container.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	container.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ideamap_sessions_active 0")
}

func TestInitializeContainer_MetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.EnableMetrics = false

	container, cleanup, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	rec := httptest.NewRecorder()
	container.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProvideLogger_InvalidLevel(t *testing.T) {
	cfg := testConfig()
	cfg.LogLevel = "loud"

	_, err := ProvideLogger(cfg)
	assert.Error(t, err)
}

func TestProvideModelProvider_GeminiNeedsKey(t *testing.T) {
	cfg := testConfig()
	cfg.ModelProvider = llm.ProviderGemini

	logger, err := ProvideLogger(cfg)
	require.NoError(t, err)
	_, err = ProvideModelProvider(cfg, logger)
	assert.Error(t, err)
}
