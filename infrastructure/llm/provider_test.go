package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "ideamap/pkg/errors"
)

type geminiWireRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		ResponseMIMEType string  `json:"responseMimeType"`
		Temperature      float64 `json:"temperature"`
		TopP             float64 `json:"topP"`
	} `json:"generationConfig"`
}

func TestGeminiProvider_Complete(t *testing.T) {
	var got geminiWireRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-2.5-flash:generateContent"), r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"centralTopic\":"},{"text":"\"x\"}"}]}}]}`))
	}))
	defer server.Close()

	p, err := NewGeminiProvider(context.Background(), server.URL, "", "secret", time.Second)
	require.NoError(t, err)
	assert.True(t, p.IsAvailable())
	assert.Equal(t, ProviderGemini, p.Name())

	text, err := p.Complete(context.Background(), "hello", CompletionOptions{Temperature: 0.8, TopP: 0.95, Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, `{"centralTopic":"x"}`, text)

	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 1)
	assert.Equal(t, "hello", got.Contents[0].Parts[0].Text)
	assert.Equal(t, "application/json", got.GenerationConfig.ResponseMIMEType)
	assert.InDelta(t, 0.8, got.GenerationConfig.Temperature, 1e-6)
	assert.InDelta(t, 0.95, got.GenerationConfig.TopP, 1e-6)
}

func TestGeminiProvider_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "http error", status: http.StatusBadRequest, body: `{"error":{"code":400,"message":"bad request","status":"INVALID_ARGUMENT"}}`},
		{name: "no candidates", status: http.StatusOK, body: `{"candidates":[]}`},
		{name: "blocked prompt", status: http.StatusOK, body: `{"promptFeedback":{"blockReason":"SAFETY"}}`},
		{name: "bad json", status: http.StatusOK, body: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p, err := NewGeminiProvider(context.Background(), server.URL, "m", "k", time.Second)
			require.NoError(t, err)
			_, err = p.Complete(context.Background(), "hello", CompletionOptions{})
			assert.Error(t, err)
		})
	}

	_, err := NewGeminiProvider(context.Background(), "", "", "", 0)
	assert.Error(t, err)
}

func TestOllamaProvider_Complete(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[]}`))
		case "/api/generate":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = w.Write([]byte(`{"response":"{\"ok\":true}","done":true}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	p := NewOllamaProvider(server.URL, "llama3.1", time.Second)
	assert.True(t, p.IsAvailable())

	text, err := p.Complete(context.Background(), "hi", CompletionOptions{Temperature: 0.8, Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, text)
	assert.Equal(t, "llama3.1", got.Model)
	assert.Equal(t, "json", got.Format)
	assert.False(t, got.Stream)
	assert.Equal(t, 0.8, got.Options.Temperature)
}

func TestOllamaProvider_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	p := NewOllamaProvider(server.URL, "", time.Second)
	assert.False(t, p.IsAvailable())
	_, err := p.Complete(context.Background(), "hi", CompletionOptions{})
	assert.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{Provider: "mock"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MockProvider{}, p)

	cfg := DefaultConfig()
	p, err = NewProvider(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &BreakerProvider{}, p)

	_, err = NewProvider(Config{Provider: "gemini"}, nil)
	assert.Error(t, err)

	_, err = NewProvider(Config{Provider: "gpt"}, nil)
	assert.Error(t, err)
}

func TestMockProvider_UnsupportedPrompt(t *testing.T) {
	m := NewMockProvider()
	_, err := m.Complete(context.Background(), "tell me a joke", CompletionOptions{})
	assert.Error(t, err)

	m.SetAvailable(false)
	_, err = m.Complete(context.Background(), `"centralTopic"`, CompletionOptions{})
	assert.Error(t, err)
}

func TestBreakerProvider_OpensAfterFailures(t *testing.T) {
	stub := &stubProvider{err: errors.New("boom"), available: true}
	b := NewBreakerProvider(stub, BreakerSettings{MinRequests: 2, FailureThreshold: 0.5, Timeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, err := b.Complete(context.Background(), "p", CompletionOptions{})
		require.Error(t, err)
		assert.False(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())
	assert.False(t, b.IsAvailable())

	_, err := b.Complete(context.Background(), "p", CompletionOptions{})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
	assert.Len(t, stub.prompts, 2)
}

func TestBreakerProvider_IgnoresCancellation(t *testing.T) {
	stub := &stubProvider{err: context.Canceled, available: true}
	b := NewBreakerProvider(stub, BreakerSettings{MinRequests: 2, FailureThreshold: 0.5})

	for i := 0; i < 5; i++ {
		_, err := b.Complete(context.Background(), "p", CompletionOptions{})
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())

	stub.err = nil
	stub.response = "ok"
	text, err := b.Complete(context.Background(), "p", CompletionOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
}
